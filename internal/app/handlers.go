package app

import (
	"github.com/tagmesh/tagmesh-backend/internal/handlers"
	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
)

type Handlers struct {
	Relationship *handlers.RelationshipHandler
	Suggestion   *handlers.SuggestionHandler
	Vote         *handlers.VoteHandler
	TagSuggest   *handlers.TagSuggestHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Relationship: handlers.NewRelationshipHandler(log, serviceset.Graph, serviceset.Moderation),
		Suggestion:   handlers.NewSuggestionHandler(log, serviceset.Moderation),
		Vote:         handlers.NewVoteHandler(log, serviceset.Feedback),
		TagSuggest:   handlers.NewTagSuggestHandler(log, serviceset.Suggest),
	}
}
