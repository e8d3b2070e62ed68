package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tagmesh/tagmesh-backend/internal/apperr"
	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/services"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

type TagSuggestHandler struct {
	log        *logger.Logger
	suggestSvc services.SuggestService
}

func NewTagSuggestHandler(log *logger.Logger, suggestSvc services.SuggestService) *TagSuggestHandler {
	return &TagSuggestHandler{
		log:        log.With("handler", "TagSuggestHandler"),
		suggestSvc: suggestSvc,
	}
}

// GET /api/tags/suggest?query=blen&seed_tag_ids=a,b&mode=hybrid&min_strength=0.5&min_confidence=0.1&limit=10
func (h *TagSuggestHandler) SuggestTags(c *gin.Context) {
	var seedIDs []uuid.UUID
	if raw := c.Query("seed_tag_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid seed tag id %q", part))
				return
			}
			seedIDs = append(seedIDs, id)
		}
	}

	minStrength, err := parseFloatQuery(c, "min_strength", 0.5)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}
	minConfidence, err := parseFloatQuery(c, "min_confidence", 0.1)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}
	limit, err := parseIntQuery(c, "limit", 10)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}

	mode := types.SuggestMode(c.Query("mode"))
	if mode != "" {
		switch mode {
		case types.ModeFuzzy, types.ModeRelationship, types.ModeHybrid:
		default:
			RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid mode %q", mode))
			return
		}
	}

	suggestions, err := h.suggestSvc.SuggestTags(c.Request.Context(), services.SuggestParams{
		Query:         c.Query("query"),
		SeedTagIDs:    seedIDs,
		MinStrength:   minStrength,
		MinConfidence: minConfidence,
		Mode:          mode,
		Limit:         limit,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"suggestions": suggestions})
}

type cooccurrenceRequest struct {
	TagIDs []uuid.UUID `json:"tag_ids" binding:"required"`
}

// POST /api/cooccurrence
// Reports tags applied together to one content item. Fire-and-forget:
// the response never waits on, or fails with, the counter writes.
func (h *TagSuggestHandler) RecordCooccurrence(c *gin.Context) {
	var req cooccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}
	h.suggestSvc.RecordCooccurrence(req.TagIDs)
	c.Status(http.StatusAccepted)
}
