package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tagmesh/tagmesh-backend/internal/apperr"
	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/requestdata"
	"github.com/tagmesh/tagmesh-backend/internal/services"
	"github.com/tagmesh/tagmesh-backend/internal/types"
)

type RelationshipHandler struct {
	log           *logger.Logger
	graphService  services.GraphService
	moderationSvc services.ModerationService
}

func NewRelationshipHandler(log *logger.Logger, graphService services.GraphService, moderationSvc services.ModerationService) *RelationshipHandler {
	return &RelationshipHandler{
		log:           log.With("handler", "RelationshipHandler"),
		graphService:  graphService,
		moderationSvc: moderationSvc,
	}
}

type proposeRequest struct {
	TagXID   uuid.UUID `json:"tag_x_id" binding:"required"`
	TagYID   uuid.UUID `json:"tag_y_id" binding:"required"`
	Type     string    `json:"type" binding:"required"`
	Strength *float64  `json:"strength"`
	Reason   string    `json:"reason"`
}

type proposeResponse struct {
	ID           uuid.UUID              `json:"id"`
	IsNew        bool                   `json:"is_new"`
	Message      string                 `json:"message"`
	Suggestion   interface{}            `json:"suggestion,omitempty"`
	ExistingEdge *types.TagRelationship `json:"existing_edge,omitempty"`
}

// POST /api/relationships/propose
// Propose a semantic relationship between two tags. Proposing a pair that
// already has an edge or a pending suggestion degrades into the existing
// row, never an error.
func (h *RelationshipHandler) Propose(c *gin.Context) {
	var req proposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}
	relType := types.RelationshipType(req.Type)
	if !relType.Valid() {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid relationship type %q", req.Type))
		return
	}
	strength := 0.7
	if req.Strength != nil {
		strength = *req.Strength
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, apperr.CodeInvalidArgument, fmt.Errorf("missing caller identity"))
		return
	}

	result, err := h.moderationSvc.Propose(c.Request.Context(), services.ProposeParams{
		TagXID:     req.TagXID,
		TagYID:     req.TagYID,
		Type:       relType,
		Strength:   strength,
		ProposedBy: rd.UserID,
		Reason:     req.Reason,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}

	resp := proposeResponse{IsNew: result.IsNew, Message: result.Message}
	if result.Suggestion != nil {
		resp.ID = result.Suggestion.ID
		resp.Suggestion = result.Suggestion
	}
	if result.ExistingEdge != nil {
		resp.ID = result.ExistingEdge.ID
		resp.ExistingEdge = result.ExistingEdge
	}
	RespondOK(c, resp)
}

// GET /api/tags/:id/related?min_strength=0.5&type=tool_of
func (h *RelationshipHandler) GetRelatedTags(c *gin.Context) {
	tagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid tag id"))
		return
	}

	minStrength, err := parseFloatQuery(c, "min_strength", 0.5)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}

	var relType *types.RelationshipType
	if raw := c.Query("type"); raw != "" {
		parsed := types.RelationshipType(raw)
		if !parsed.Valid() {
			RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid relationship type %q", raw))
			return
		}
		relType = &parsed
	}

	related, err := h.graphService.GetRelatedTags(c.Request.Context(), tagID, minStrength, relType)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"related": related})
}

type seedRequest struct {
	TagXID   uuid.UUID      `json:"tag_x_id" binding:"required"`
	TagYID   uuid.UUID      `json:"tag_y_id" binding:"required"`
	Type     string         `json:"type" binding:"required"`
	Strength *float64       `json:"strength"`
	Notes    string         `json:"notes"`
	Metadata datatypes.JSON `json:"metadata"`
}

// POST /api/relationships/seed
// Privileged operator path that creates an active edge directly.
func (h *RelationshipHandler) Seed(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, err)
		return
	}
	relType := types.RelationshipType(req.Type)
	if !relType.Valid() {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid relationship type %q", req.Type))
		return
	}
	strength := 0.7
	if req.Strength != nil {
		strength = *req.Strength
	}

	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, apperr.CodeInvalidArgument, fmt.Errorf("missing caller identity"))
		return
	}

	edge, err := h.graphService.SeedEdge(c.Request.Context(), services.SeedEdgeParams{
		TagXID:   req.TagXID,
		TagYID:   req.TagYID,
		Type:     relType,
		Strength: strength,
		SeededBy: rd.UserID,
		Notes:    req.Notes,
		Metadata: req.Metadata,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, edge)
}

// POST /api/relationships/:id/retire
func (h *RelationshipHandler) Retire(c *gin.Context) {
	edgeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeInvalidArgument, fmt.Errorf("invalid relationship id"))
		return
	}
	edge, err := h.graphService.RetireEdge(c.Request.Context(), edgeID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, edge)
}
