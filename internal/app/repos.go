package app

import (
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/repos"
)

type Repos struct {
	Tag          repos.TagRepo
	Relationship repos.RelationshipRepo
	Suggestion   repos.SuggestionRepo
	Feedback     repos.FeedbackRepo
	Cooccurrence repos.CooccurrenceRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tag:          repos.NewTagRepo(db, log),
		Relationship: repos.NewRelationshipRepo(db, log),
		Suggestion:   repos.NewSuggestionRepo(db, log),
		Feedback:     repos.NewFeedbackRepo(db, log),
		Cooccurrence: repos.NewCooccurrenceRepo(db, log),
	}
}
