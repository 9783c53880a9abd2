package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the HTTP routes.
func NewRouter(taxHandler *TaxHandler, maxMultipartMemory int64) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	if maxMultipartMemory > 0 {
		router.MaxMultipartMemory = maxMultipartMemory
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Tax Form Extraction",
		})
	})

	api := router.Group("/api/v1")
	{
		tax := api.Group("/tax")
		{
			tax.GET("/engines", taxHandler.ListEngines)
			tax.GET("/forms", taxHandler.ListForms)
			tax.POST("/:type/parse", taxHandler.ParseFile)
			tax.POST("/:type/parse-text", taxHandler.ParseText)
		}
	}

	return router
}
