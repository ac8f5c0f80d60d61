package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// RegisterHealthRoutes wires liveness endpoints.
func RegisterHealthRoutes(router *gin.Engine, db *sqlx.DB) {
	router.GET("/api/health", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Server is running"})
	})
}
