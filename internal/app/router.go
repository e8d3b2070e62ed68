package app

import (
	"github.com/gin-gonic/gin"

	"github.com/tagmesh/tagmesh-backend/internal/server"
)

func wireRouter(handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:      middlewareset.Auth,
		RelationshipHandler: handlerset.Relationship,
		SuggestionHandler:   handlerset.Suggestion,
		VoteHandler:         handlerset.Vote,
		TagSuggestHandler:   handlerset.TagSuggest,
	})
}
