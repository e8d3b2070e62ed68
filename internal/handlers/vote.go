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

type VoteHandler struct {
	log         *logger.Logger
	feedbackSvc services.FeedbackService
}

func NewVoteHandler(log *logger.Logger, feedbackSvc services.FeedbackService) *VoteHandler {
	return &VoteHandler{
		log:         log.With("handler", "VoteHandler"),
		feedbackSvc: feedbackSvc,
	}
}

// voteScopeRequest is the wire shape of a vote target: either edge_id,
// or the three pair fields together.
type voteScopeRequest struct {
	EdgeID *uuid.UUID `json:"edge_id"`
	TagXID *uuid.UUID `json:"tag_x_id"`
	TagYID *uuid.UUID `json:"tag_y_id"`
	Type   *string    `json:"type"`
}

func (r voteScopeRequest) toScope() (types.VoteScope, error) {
	if r.EdgeID != nil {
		if r.TagXID != nil || r.TagYID != nil || r.Type != nil {
			return types.VoteScope{}, fmt.Errorf("provide either edge_id or a tag pair, not both")
		}
		return types.EdgeScope(*r.EdgeID), nil
	}
	if r.TagXID == nil || r.TagYID == nil || r.Type == nil {
		return types.VoteScope{}, fmt.Errorf("provide either edge_id or tag_x_id, tag_y_id and type")
	}
	relType := types.RelationshipType(*r.Type)
	if !relType.Valid() {
		return types.VoteScope{}, fmt.Errorf("invalid relationship type %q", *r.Type)
	}
	return types.PairScope(*r.TagXID, *r.TagYID, relType), nil
}

type castVoteRequest struct {
	voteScopeRequest
	Vote   string `json:"vote" binding:"required"`
	Reason string `json:"reason"`
}

// POST /api/votes
func (h *VoteHandler) CastVote(c *gin.Context) {
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}
	scope, err := req.toScope()
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}
	vote := types.Vote(req.Vote)
	if !vote.Valid() {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid vote %q", req.Vote))
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, apperr.CodeInvalidArgument, fmt.Errorf("missing caller identity"))
		return
	}

	result, err := h.feedbackSvc.CastVote(c.Request.Context(), rd.UserID, scope, vote, req.Reason)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"id":     result.Record.ID,
		"vote":   result.Record.Vote,
		"is_new": result.IsNew,
	})
}

// DELETE /api/votes
func (h *VoteHandler) RetractVote(c *gin.Context) {
	var req voteScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}
	scope, err := req.toScope()
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, apperr.CodeInvalidArgument, fmt.Errorf("missing caller identity"))
		return
	}

	deleted, err := h.feedbackSvc.RetractVote(c.Request.Context(), rd.UserID, scope)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": deleted})
}

// GET /api/votes/me?edge_id=... or ?tag_x_id=...&tag_y_id=...&type=...
// Returns the caller's own prior vote on a scope, if any.
func (h *VoteHandler) GetMyVote(c *gin.Context) {
	req := voteScopeRequest{}
	if raw := c.Query("edge_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid edge_id"))
			return
		}
		req.EdgeID = &id
	}
	if raw := c.Query("tag_x_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid tag_x_id"))
			return
		}
		req.TagXID = &id
	}
	if raw := c.Query("tag_y_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid tag_y_id"))
			return
		}
		req.TagYID = &id
	}
	if raw := c.Query("type"); raw != "" {
		req.Type = &raw
	}
	scope, err := req.toScope()
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, apperr.CodeInvalidArgument, fmt.Errorf("missing caller identity"))
		return
	}

	record, err := h.feedbackSvc.GetVote(c.Request.Context(), rd.UserID, scope)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if record == nil {
		RespondOK(c, gin.H{"vote": nil})
		return
	}
	RespondOK(c, gin.H{
		"vote":   record.Vote,
		"reason": record.Reason,
	})
}
