package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phkuod/product-tracking-sub000/internal/application"
	"github.com/phkuod/product-tracking-sub000/pkg/logging"
	"github.com/phkuod/product-tracking-sub000/pkg/middleware"
)

// DefinitionHandlers contains the HTTP handlers for station and route
// definition endpoints
type DefinitionHandlers struct {
	definitions *application.DefinitionService
	logger      *logging.Logger
}

// NewDefinitionHandlers creates new definition HTTP handlers
func NewDefinitionHandlers(definitions *application.DefinitionService, logger *logging.Logger) *DefinitionHandlers {
	return &DefinitionHandlers{
		definitions: definitions,
		logger:      logger,
	}
}

// CreateStation handles POST /api/v1/stations
func (h *DefinitionHandlers) CreateStation() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var cmd application.CreateStationCommand
		if !bindJSON(c, responder, &cmd) {
			return
		}

		result, err := h.definitions.CreateStation(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

// GetStation handles GET /api/v1/stations/:stationId
func (h *DefinitionHandlers) GetStation() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		result, err := h.definitions.GetStation(c.Request.Context(), c.Param("stationId"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// ListStations handles GET /api/v1/stations
func (h *DefinitionHandlers) ListStations() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		result, err := h.definitions.ListStations(c.Request.Context())
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": result})
	}
}

// UpdateStation handles PUT /api/v1/stations/:stationId
func (h *DefinitionHandlers) UpdateStation() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var cmd application.UpdateStationCommand
		if !bindJSON(c, responder, &cmd) {
			return
		}
		cmd.StationID = c.Param("stationId")

		result, err := h.definitions.UpdateStation(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// DeleteStation handles DELETE /api/v1/stations/:stationId
func (h *DefinitionHandlers) DeleteStation() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		if err := h.definitions.DeleteStation(c.Request.Context(), c.Param("stationId")); err != nil {
			responder.RespondWithError(err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// CreateRoute handles POST /api/v1/routes
func (h *DefinitionHandlers) CreateRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var cmd application.CreateRouteCommand
		if !bindJSON(c, responder, &cmd) {
			return
		}

		result, err := h.definitions.CreateRoute(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

// GetRoute handles GET /api/v1/routes/:routeId
func (h *DefinitionHandlers) GetRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		result, err := h.definitions.GetRoute(c.Request.Context(), c.Param("routeId"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// ListRoutes handles GET /api/v1/routes
func (h *DefinitionHandlers) ListRoutes() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		result, err := h.definitions.ListRoutes(c.Request.Context())
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": result})
	}
}

// UpdateRoute handles PUT /api/v1/routes/:routeId
//
// Editing a route referenced by products returns a new route version; the
// response body carries the id callers should use from then on.
func (h *DefinitionHandlers) UpdateRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var cmd application.UpdateRouteCommand
		if !bindJSON(c, responder, &cmd) {
			return
		}
		cmd.RouteID = c.Param("routeId")

		result, err := h.definitions.UpdateRoute(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
