package app

import (
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/cache"
	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/services"
)

type Services struct {
	Graph      services.GraphService
	Feedback   services.FeedbackService
	Moderation services.ModerationService
	Suggest    services.SuggestService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) Services {
	log.Info("Wiring services...")

	// The related-tags cache is optional; the graph service treats a nil
	// cache as a permanent miss.
	relatedCache, err := cache.NewRelatedTagsCache(log, cfg.RelatedCacheTTL)
	if err != nil {
		log.Warn("Related-tags cache disabled", "error", err)
		relatedCache = nil
	}

	graphService := services.NewGraphService(db, log, reposet.Tag, reposet.Relationship, relatedCache)
	feedbackService := services.NewFeedbackService(db, log, reposet.Feedback, reposet.Relationship, reposet.Suggestion)
	moderationService := services.NewModerationService(
		db,
		log,
		reposet.Tag,
		reposet.Relationship,
		reposet.Suggestion,
		reposet.Feedback,
		feedbackService,
		graphService,
	)
	suggestService := services.NewSuggestService(db, log, reposet.Tag, reposet.Relationship, reposet.Cooccurrence)

	return Services{
		Graph:      graphService,
		Feedback:   feedbackService,
		Moderation: moderationService,
		Suggest:    suggestService,
	}
}
