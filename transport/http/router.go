package http

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter sets up the Gin router
func SetupRouter(handlers *TransferHandlers) *gin.Engine {
	router := gin.Default()

	router.GET("/health", handlers.Health)
	router.POST("/transfer", handlers.Transfer)
	router.GET("/transfer/:id", handlers.TransferStatus)
	router.GET("/balances/:address", handlers.Balances)

	return router
}
