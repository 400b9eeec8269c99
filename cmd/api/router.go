package api

import (
	"net/http"

	applydelivery "sigsync/internal/apply/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, applyHandler *applydelivery.ApplyHandler) {
	// Health check (no auth required)
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Pub/Sub push endpoint. Deliveries are applied strictly one at a
	// time; concurrent pushes queue behind the in-flight one.
	r.POST("/update-signature", applydelivery.MaxInFlight(1), applyHandler.UpdateSignature)
}
