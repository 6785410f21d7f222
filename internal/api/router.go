package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/godesk-io/godesk-ce/internal/middleware"
	"github.com/godesk-io/godesk-ce/internal/version"
)

// Router assembles the HTTP surface.
type Router struct {
	engine     *gin.Engine
	auth       *middleware.AuthMiddleware
	tickets    *TicketHandler
	escalation *EscalationHandler
	feedback   *FeedbackHandler
}

// NewRouter creates the router from its handlers.
func NewRouter(auth *middleware.AuthMiddleware, tickets *TicketHandler, escalation *EscalationHandler, feedback *FeedbackHandler) *Router {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Metrics())
	return &Router{
		engine:     engine,
		auth:       auth,
		tickets:    tickets,
		escalation: escalation,
		feedback:   feedback,
	}
}

// SetupRoutes registers all endpoints.
func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.String()})
	})
	r.engine.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.GetInfo())
	})
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.engine.Group("/api/v1")
	v1.Use(r.auth.RequireAuth())
	{
		tickets := v1.Group("/tickets")
		{
			tickets.GET("", r.tickets.List)
			tickets.POST("", r.tickets.Create)
			tickets.GET("/:id", r.tickets.Get)
			tickets.GET("/:id/sla", r.tickets.GetSLA)
			tickets.POST("/:id/status", r.tickets.UpdateStatus)
			tickets.POST("/:id/priority", r.tickets.UpdatePriority)
			tickets.POST("/:id/assign", r.tickets.Assign)
			tickets.PUT("/:id/due-date", r.tickets.SetDueDate)
			tickets.POST("/:id/followers", r.tickets.AddFollowers)
			tickets.POST("/:id/escalations/evaluate", r.escalation.Evaluate)
			tickets.POST("/:id/feedback", r.feedback.Submit)
			tickets.GET("/:id/feedback", r.feedback.Latest)
		}
	}
}

// Engine exposes the underlying gin engine for serving and for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
