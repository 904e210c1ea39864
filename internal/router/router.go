package router

import (
	"github.com/gin-gonic/gin"

	"voteboard/internal/handlers"
	"voteboard/internal/identity"
	"voteboard/internal/middleware"
)

// Register mounts the application routes. The landing page and topic
// listing are public; profile and topic writes sit behind the hard-fail
// auth guard.
func Register(
	r *gin.Engine,
	provider identity.Provider,
	index *handlers.IndexHandler,
	profile *handlers.ProfileHandler,
	topics *handlers.TopicHandler,
	uploads *handlers.UploadHandler,
) {
	r.Use(middleware.LoadUser(provider))

	// Public routes
	r.GET("/", index.Show)
	r.GET("/topics", topics.List)
	r.GET("/uploads/:name", uploads.Serve)

	// Protected routes
	authorized := r.Group("/")
	authorized.Use(middleware.RequireUser())
	{
		authorized.GET("/profile", profile.Show)
		authorized.POST("/profile", profile.UpdateAvatar)
		authorized.POST("/topics", topics.Create)
		authorized.PUT("/topics/:id/:direction", topics.Vote)
	}
}
