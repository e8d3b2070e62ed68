package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tagmesh/tagmesh-backend/internal/apperr"
	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/requestdata"
	"github.com/tagmesh/tagmesh-backend/internal/services"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

type SuggestionHandler struct {
	log           *logger.Logger
	moderationSvc services.ModerationService
}

func NewSuggestionHandler(log *logger.Logger, moderationSvc services.ModerationService) *SuggestionHandler {
	return &SuggestionHandler{
		log:           log.With("handler", "SuggestionHandler"),
		moderationSvc: moderationSvc,
	}
}

func resolverFrom(c *gin.Context) (services.Resolver, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return services.Resolver{}, false
	}
	return services.Resolver{UserID: rd.UserID}, true
}

type resolveRequest struct {
	Action           string   `json:"action" binding:"required"`
	OverrideStrength *float64 `json:"override_strength"`
	OverrideType     *string  `json:"override_type"`
	Notes            string   `json:"notes"`
}

// POST /api/suggestions/:id/resolve
func (h *SuggestionHandler) Resolve(c *gin.Context) {
	suggestionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid suggestion id"))
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}
	action := types.ResolveAction(req.Action)
	if !action.Valid() {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid action %q", req.Action))
		return
	}
	var overrideType *types.RelationshipType
	if req.OverrideType != nil {
		parsed := types.RelationshipType(*req.OverrideType)
		if !parsed.Valid() {
			RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid override type %q", *req.OverrideType))
			return
		}
		overrideType = &parsed
	}

	resolver, ok := resolverFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, apperr.CodeInvalidArgument, fmt.Errorf("missing caller identity"))
		return
	}

	outcome, err := h.moderationSvc.Resolve(c.Request.Context(), resolver, services.ResolveParams{
		SuggestionID:     suggestionID,
		Action:           action,
		OverrideStrength: req.OverrideStrength,
		OverrideType:     overrideType,
		Notes:            req.Notes,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"id":              outcome.SuggestionID,
		"action":          outcome.Action,
		"status":          outcome.Status,
		"created_edge_id": outcome.CreatedEdgeID,
	})
}

type resolveBatchRequest struct {
	IDs    []uuid.UUID `json:"ids" binding:"required"`
	Action string      `json:"action" binding:"required"`
	Notes  string      `json:"notes"`
}

// POST /api/suggestions/resolve-batch
// Partial failure is a first-class outcome: each id resolves or fails on
// its own and the response reports both tallies.
func (h *SuggestionHandler) ResolveBatch(c *gin.Context) {
	var req resolveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}
	action := types.ResolveAction(req.Action)
	if !action.Valid() {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid action %q", req.Action))
		return
	}

	resolver, ok := resolverFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, apperr.CodeInvalidArgument, fmt.Errorf("missing caller identity"))
		return
	}

	batch, err := h.moderationSvc.ResolveMany(c.Request.Context(), resolver, req.IDs, action, req.Notes)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	items := make([]gin.H, 0, len(batch.Results))
	for _, item := range batch.Results {
		entry := gin.H{"id": item.SuggestionID, "ok": item.OK}
		if item.OK {
			entry["status"] = item.Status
			if item.CreatedEdgeID != nil {
				entry["created_edge_id"] = item.CreatedEdgeID
			}
		} else {
			entry["error_code"] = item.ErrorCode
			entry["error_message"] = item.ErrorMessage
		}
		items = append(items, entry)
	}
	RespondOK(c, gin.H{
		"succeeded": batch.Succeeded,
		"failed":    batch.Failed,
		"results":   items,
	})
}

// GET /api/suggestions?status=pending&sort=votes&limit=25&offset=0
func (h *SuggestionHandler) List(c *gin.Context) {
	status := types.SuggestionStatus(c.DefaultQuery("status", string(types.SuggestionPending)))
	sortBy := c.DefaultQuery("sort", "recent")
	limit, err := parseIntQuery(c, "limit", 25)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}
	offset, err := parseIntQuery(c, "offset", 0)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}

	items, total, err := h.moderationSvc.ListSuggestions(c.Request.Context(), status, sortBy, limit, offset)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"suggestions": items,
		"total":       total,
		"limit":       limit,
		"offset":      offset,
	})
}
