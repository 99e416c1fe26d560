package application

import (
	"time"

	"github.com/phkuod/product-tracking-sub000/internal/domain"
)

// ToStationDTO converts a station definition to its DTO
func ToStationDTO(station *domain.StationDefinition) *StationDTO {
	fields := make([]FieldDefinitionDTO, len(station.Fields))
	for i, f := range station.Fields {
		fields[i] = FieldDefinitionDTO{
			ID:           f.ID,
			Name:         f.Name,
			Type:         string(f.Type),
			Required:     f.Required,
			Options:      f.Options,
			DefaultValue: f.DefaultValue,
		}
	}

	return &StationDTO{
		ID:                       station.ID,
		Name:                     station.Name,
		Owner:                    station.Owner,
		CompletionRule:           string(station.CompletionRule),
		EstimatedDurationMinutes: station.EstimatedDurationMinutes,
		Fields:                   fields,
		CreatedAt:                station.CreatedAt,
		UpdatedAt:                station.UpdatedAt,
	}
}

// ToRouteDTO converts a route definition to its DTO
func ToRouteDTO(route *domain.RouteDefinition) *RouteDTO {
	stations := make([]RoutePositionDTO, len(route.Stations))
	for i, pos := range route.Stations {
		stations[i] = RoutePositionDTO{
			StationID:     pos.StationID,
			SequenceOrder: pos.SequenceOrder,
		}
	}

	return &RouteDTO{
		ID:           route.ID,
		Name:         route.Name,
		Description:  route.Description,
		Version:      route.Version,
		Stations:     stations,
		SupersededBy: route.SupersededBy,
		CreatedAt:    route.CreatedAt,
		UpdatedAt:    route.UpdatedAt,
	}
}

// ToProductDTO converts a product to its DTO, deriving the effective status
// as of now
func ToProductDTO(product *domain.Product, now time.Time) *ProductDTO {
	return &ProductDTO{
		ID:               product.ID,
		Name:             product.Name,
		Model:            product.Model,
		RouteID:          product.RouteID,
		Priority:         string(product.Priority),
		CurrentStationID: product.CurrentStationID,
		CurrentSequence:  product.CurrentSequence,
		CurrentOwner:     product.CurrentOwner,
		CurrentDueAt:     product.CurrentDueAt,
		ProgressPercent:  product.ProgressPercent,
		Status:           string(product.EffectiveStatus(now)),
		StatusOverride:   string(product.StatusOverride),
		CompletedAt:      product.CompletedAt,
		TerminatedAt:     product.TerminatedAt,
		CreatedAt:        product.CreatedAt,
		UpdatedAt:        product.UpdatedAt,
	}
}

// ToProductDTOs converts a product page
func ToProductDTOs(products []*domain.Product, now time.Time) []*ProductDTO {
	dtos := make([]*ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = ToProductDTO(p, now)
	}
	return dtos
}

// ToHistoryEntryDTO converts a ledger entry to its DTO
func ToHistoryEntryDTO(entry *domain.StationHistoryEntry) *HistoryEntryDTO {
	return &HistoryEntryDTO{
		ID:                       entry.ID,
		ProductID:                entry.ProductID,
		StationID:                entry.StationID,
		StationName:              entry.StationName,
		Owner:                    entry.Owner,
		SequenceOrder:            entry.SequenceOrder,
		EstimatedDurationMinutes: entry.EstimatedDurationMinutes,
		StartTime:                entry.StartTime,
		EndTime:                  entry.EndTime,
		Status:                   string(entry.Status),
		CapturedFieldData:        entry.CapturedFieldData,
		Notes:                    entry.Notes,
	}
}

// ToHistoryEntryDTOs converts a ledger slice
func ToHistoryEntryDTOs(entries []*domain.StationHistoryEntry) []*HistoryEntryDTO {
	dtos := make([]*HistoryEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ToHistoryEntryDTO(e)
	}
	return dtos
}

func toFieldDefinitions(inputs []FieldDefinitionInput, newID func() string) ([]domain.FieldDefinition, error) {
	fields := make([]domain.FieldDefinition, 0, len(inputs))
	for _, in := range inputs {
		id := in.ID
		if id == "" {
			id = newID()
		}
		f, err := domain.NewFieldDefinition(id, in.Name, domain.FieldType(in.Type), in.Required, in.Options, in.DefaultValue)
		if err != nil {
			return nil, err
		}
		fields = append(fields, *f)
	}
	return fields, nil
}

func toRoutePositions(inputs []RoutePositionInput) []domain.RoutePosition {
	positions := make([]domain.RoutePosition, len(inputs))
	for i, in := range inputs {
		positions[i] = domain.RoutePosition{
			StationID:     in.StationID,
			SequenceOrder: in.SequenceOrder,
		}
	}
	return positions
}
