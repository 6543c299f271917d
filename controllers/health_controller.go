package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	store   Pinger
	started time.Time
}

func NewHealthController(store Pinger) *HealthController {
	return &HealthController{store: store, started: time.Now()}
}

func (ctl *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	database := "connected"
	if err := ctl.store.Ping(ctx); err != nil {
		database = "disconnected"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"message":   "Mach Lagbe API is running",
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(ctl.started).Seconds(),
	})
}

func (ctl *HealthController) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to Mach Lagbe API!",
		"version": "1.0.0",
		"endpoints": gin.H{
			"health":        "GET /api/health",
			"auth_register": "POST /api/auth/register",
			"auth_login":    "POST /api/auth/login",
			"fish":          "GET /api/fish",
			"orders":        "GET /api/orders",
		},
	})
}
