package main

import (
	"github.com/gin-gonic/gin"

	"casecall-platform/internal/httpapi"
	"casecall-platform/internal/session"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h *httpapi.Handlers) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Every call route carries a bearer credential; which of the three
	// session kinds it is gets decided per case by the access resolver.
	call := r.Group("/call")
	call.Use(session.RequireCredential())
	{
		call.POST("/create", h.CreateCall)
		call.GET("/rooms", h.ListRinging)
		call.GET("/cases/:case_id/summary", h.CaseSummary)

		call.POST("/:room_id/join", h.JoinCall)
		call.POST("/:room_id/end", h.EndCall)
		call.POST("/:room_id/signal", h.SubmitSignal)
		call.GET("/:room_id", h.PollRoom)
	}
}
