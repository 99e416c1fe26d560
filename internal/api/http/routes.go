package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires all API routes
func RegisterRoutes(router *gin.Engine, products *Handlers, definitions *DefinitionHandlers) {
	stations := router.Group("/api/v1/stations")
	{
		stations.POST("", definitions.CreateStation())
		stations.GET("", definitions.ListStations())
		stations.GET("/:stationId", definitions.GetStation())
		stations.PUT("/:stationId", definitions.UpdateStation())
		stations.DELETE("/:stationId", definitions.DeleteStation())
	}

	routes := router.Group("/api/v1/routes")
	{
		routes.POST("", definitions.CreateRoute())
		routes.GET("", definitions.ListRoutes())
		routes.GET("/:routeId", definitions.GetRoute())
		routes.PUT("/:routeId", definitions.UpdateRoute())
	}

	productRoutes := router.Group("/api/v1/products")
	{
		productRoutes.POST("", products.CreateProduct())
		productRoutes.GET("", products.ListProducts())
		productRoutes.PATCH("/bulk", products.BulkUpdateProducts())
		productRoutes.GET("/:productId", products.GetProduct())
		productRoutes.GET("/:productId/history", products.GetProductHistory())
		productRoutes.POST("/:productId/advance", products.AdvanceProduct())
		productRoutes.POST("/:productId/terminate", products.TerminateProduct())
		productRoutes.PATCH("/:productId", products.UpdateProduct())
		productRoutes.DELETE("/:productId", products.DeleteProduct())
	}
}
