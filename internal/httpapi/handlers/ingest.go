package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/notsoai/dashboard/internal/common"
	"github.com/notsoai/dashboard/internal/httpapi/middleware"
	"github.com/notsoai/dashboard/internal/logging"
	"github.com/notsoai/dashboard/internal/models"
)

const (
	maxTranscriptEntries = 500
	// started_at may run ahead of the server clock by at most this much.
	maxClockSkew = 24 * time.Hour
)

var unixEpoch = time.Unix(0, 0).UTC()

type ingestReq struct {
	VisitorID  string                   `json:"visitor_id"`
	StartedAt  time.Time                `json:"started_at"`
	EndedAt    *time.Time               `json:"ended_at"`
	Transcript []models.TranscriptEntry `json:"transcript"`
}

// IngestChatSession stores a finished widget conversation for the tenant and
// assistant named in the ingest token, then queues it for analysis.
func (h *Handler) IngestChatSession(c *gin.Context) {
	claims, ok := middleware.IngestClaimsFrom(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, common.CodeUnauthorized, "invalid token")
		return
	}
	var req ingestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "invalid json")
		return
	}
	if len(req.Transcript) == 0 || len(req.Transcript) > maxTranscriptEntries {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "transcript must have 1-500 entries")
		return
	}
	for i := range req.Transcript {
		a := strings.ToLower(strings.TrimSpace(req.Transcript[i].Author))
		if a != models.AuthorUser && a != models.AuthorAssistant {
			common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "author must be user or assistant")
			return
		}
		req.Transcript[i].Author = a
	}
	now := h.Now().UTC()
	if req.StartedAt.IsZero() {
		req.StartedAt = now
	}
	if req.StartedAt.Before(unixEpoch) || req.StartedAt.After(now.Add(maxClockSkew)) {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "started_at is out of range")
		return
	}
	if req.EndedAt != nil && req.EndedAt.Before(req.StartedAt) {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "ended_at is before started_at")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Store.GetClient(ctx, claims.ClientID); err != nil {
		h.storeError(c, err, "client")
		return
	}
	if err := h.checkAssistant(c, claims.ClientID, claims.AssistantID); err != nil {
		if errors.Is(err, errAssistantMismatch) {
			common.Fail(c, http.StatusForbidden, common.CodeForbidden, err.Error())
			return
		}
		h.internalError(c, err, "load assistant")
		return
	}

	id, err := common.NewULIDAt(req.StartedAt)
	if err != nil {
		h.internalError(c, err, "generate id")
		return
	}
	cs := models.ChatSession{
		ID:          id,
		ClientID:    claims.ClientID,
		AssistantID: claims.AssistantID,
		VisitorID:   req.VisitorID,
		StartedAt:   req.StartedAt.UTC(),
		EndedAt:     req.EndedAt,
		Transcript:  datatypes.JSONSlice[models.TranscriptEntry](req.Transcript),
	}
	if err := h.Store.CreateChatSession(ctx, &cs); err != nil {
		h.internalError(c, err, "create chat session")
		return
	}

	resp := gin.H{"id": cs.ID}
	if h.Analysis != nil {
		job, err := h.Analysis.Enqueue(ctx, cs.ClientID, cs.ID)
		if err != nil {
			// The session is stored; analysis can be re-run later.
			logging.Ctx(ctx).Error().Err(err).Str("chat_session_id", cs.ID).Msg("enqueue analysis")
		} else {
			resp["job_id"] = job.ID
		}
	}
	common.OK(c, resp)
}
