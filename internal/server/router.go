package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tagmesh/tagmesh-backend/internal/handlers"
	"github.com/tagmesh/tagmesh-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleware
	RelationshipHandler *handlers.RelationshipHandler
	SuggestionHandler   *handlers.SuggestionHandler
	VoteHandler         *handlers.VoteHandler
	TagSuggestHandler   *handlers.TagSuggestHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/api/tags/:id/related", cfg.RelationshipHandler.GetRelatedTags)
	router.GET("/api/tags/suggest", cfg.TagSuggestHandler.SuggestTags)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Proposals
	protected.POST("/relationships/propose", cfg.RelationshipHandler.Propose)
	// Votes
	protected.POST("/votes", cfg.VoteHandler.CastVote)
	protected.DELETE("/votes", cfg.VoteHandler.RetractVote)
	protected.GET("/votes/me", cfg.VoteHandler.GetMyVote)
	// Co-occurrence reporting
	protected.POST("/cooccurrence", cfg.TagSuggestHandler.RecordCooccurrence)

	// ===============
	// || Moderator ||
	// ===============
	moderator := router.Group("/api")
	moderator.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireModerator())
	moderator.GET("/suggestions", cfg.SuggestionHandler.List)
	moderator.POST("/suggestions/:id/resolve", cfg.SuggestionHandler.Resolve)
	moderator.POST("/suggestions/resolve-batch", cfg.SuggestionHandler.ResolveBatch)
	moderator.POST("/relationships/seed", cfg.RelationshipHandler.Seed)
	moderator.POST("/relationships/:id/retire", cfg.RelationshipHandler.Retire)

	return router
}
