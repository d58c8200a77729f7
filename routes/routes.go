package routes

import (
	"net/http"
	"time"

	"planora/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the handlers the router needs.
type HandlerBundle struct {
	Concierge *handlers.ConciergeHandler
	Assistant *handlers.AssistantHandler
}

// RegisterSessionRoutes registers the trip-session endpoints.
func RegisterSessionRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/sessions")
	{
		api.POST("", hb.Concierge.CreateSessionHandler)
		api.GET("/:sessionID", hb.Concierge.GetSessionHandler)
		api.DELETE("/:sessionID", hb.Concierge.DeleteSessionHandler)
		api.POST("/:sessionID/turn", hb.Concierge.TurnHandler)
	}
}

// RegisterAssistantRoutes registers the stateless assistant endpoints.
func RegisterAssistantRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/assistant")
	{
		api.POST("/ask", hb.Assistant.AskHandler)
		api.POST("/note", hb.Assistant.NoteHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Planora"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterSessionRoutes(r, hb)
	RegisterAssistantRoutes(r, hb)
	RegisterHealthRoute(r)
}
