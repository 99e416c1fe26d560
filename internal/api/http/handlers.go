package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/phkuod/product-tracking-sub000/internal/application"
	"github.com/phkuod/product-tracking-sub000/pkg/api"
	"github.com/phkuod/product-tracking-sub000/pkg/errors"
	"github.com/phkuod/product-tracking-sub000/pkg/logging"
	"github.com/phkuod/product-tracking-sub000/pkg/middleware"
)

// Handlers contains the HTTP handlers for product tracking endpoints
type Handlers struct {
	tracking *application.TrackingService
	logger   *logging.Logger
}

// NewHandlers creates new HTTP handlers
func NewHandlers(tracking *application.TrackingService, logger *logging.Logger) *Handlers {
	return &Handlers{
		tracking: tracking,
		logger:   logger,
	}
}

func bindJSON(c *gin.Context, responder *middleware.ErrorResponder, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			responder.RespondValidationError("request validation failed", middleware.ValidationErrorFormatter(verrs))
			return false
		}
		responder.RespondWithAppError(errors.ErrBadRequest(err.Error()))
		return false
	}
	return true
}

// CreateProduct handles POST /api/v1/products
func (h *Handlers) CreateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var cmd application.CreateProductCommand
		if !bindJSON(c, responder, &cmd) {
			return
		}

		result, err := h.tracking.CreateProduct(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

// GetProduct handles GET /api/v1/products/:productId
func (h *Handlers) GetProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		result, err := h.tracking.GetProduct(c.Request.Context(), c.Param("productId"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// ListProducts handles GET /api/v1/products
func (h *Handlers) ListProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		list := api.ParseListRequest(c, "createdAt")

		products, total, err := h.tracking.ListProducts(c.Request.Context(), application.ListProductsQuery{List: list})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(products, list.Pagination.Page, list.Pagination.PageSize, total))
	}
}

// GetProductHistory handles GET /api/v1/products/:productId/history
func (h *Handlers) GetProductHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		history, err := h.tracking.GetHistory(c.Request.Context(), c.Param("productId"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": history})
	}
}

// AdvanceProduct handles POST /api/v1/products/:productId/advance
func (h *Handlers) AdvanceProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var cmd application.AdvanceProductCommand
		if !bindJSON(c, responder, &cmd) {
			return
		}
		cmd.ProductID = c.Param("productId")
		cmd.ChangedBy = middleware.GetActingUser(c)

		result, err := h.tracking.AdvanceProduct(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// TerminateProduct handles POST /api/v1/products/:productId/terminate
func (h *Handlers) TerminateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var cmd application.TerminateProductCommand
		if !bindJSON(c, responder, &cmd) {
			return
		}
		cmd.ProductID = c.Param("productId")
		cmd.ChangedBy = middleware.GetActingUser(c)

		result, err := h.tracking.TerminateProduct(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// UpdateProduct handles PATCH /api/v1/products/:productId
func (h *Handlers) UpdateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var cmd application.UpdateProductCommand
		if !bindJSON(c, responder, &cmd) {
			return
		}
		cmd.ProductID = c.Param("productId")
		cmd.ChangedBy = middleware.GetActingUser(c)

		result, err := h.tracking.UpdateProduct(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// BulkUpdateProducts handles PATCH /api/v1/products/bulk
func (h *Handlers) BulkUpdateProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var cmd application.BulkUpdateProductsCommand
		if !bindJSON(c, responder, &cmd) {
			return
		}
		cmd.ChangedBy = middleware.GetActingUser(c)

		result, err := h.tracking.BulkUpdateProducts(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		// Partial failures are part of the summary, not an error status
		c.JSON(http.StatusOK, result)
	}
}

// DeleteProduct handles DELETE /api/v1/products/:productId
func (h *Handlers) DeleteProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		err := h.tracking.DeleteProduct(c.Request.Context(), application.DeleteProductCommand{
			ProductID: c.Param("productId"),
			ChangedBy: middleware.GetActingUser(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
