package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/notsoai/dashboard/internal/common"
	"github.com/notsoai/dashboard/internal/logging"
	"github.com/notsoai/dashboard/internal/models"
	"github.com/notsoai/dashboard/internal/store"
)

func (h *Handler) ListAssistants(c *gin.Context) {
	d, ok := h.authorize(c, c.Query("clientId"))
	if !ok {
		return
	}
	list, err := h.Store.ListAssistants(c.Request.Context(), d.Client.ID, c.Query("workspaceId"))
	if err != nil {
		h.internalError(c, err, "list assistants")
		return
	}
	common.OK(c, gin.H{"assistants": nonNil(list)})
}

type createAssistantReq struct {
	ClientID    string `json:"clientId"`
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
	Model       string `json:"model"`
}

func (h *Handler) CreateAssistant(c *gin.Context) {
	var req createAssistantReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "invalid json")
		return
	}
	d, ok := h.authorize(c, req.ClientID)
	if !ok {
		return
	}
	if !d.Session.Role.CanManage() {
		common.Fail(c, http.StatusForbidden, common.CodeForbidden, "insufficient role")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 255 {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "name is required")
		return
	}
	ctx := c.Request.Context()

	workspaceID := strings.TrimSpace(req.WorkspaceID)
	if workspaceID == "" {
		workspaceID = d.Session.DefaultWorkspaceID
	}
	if workspaceID != "" {
		found, err := h.workspaceBelongs(c, d.Client.ID, workspaceID)
		if err != nil {
			h.internalError(c, err, "list workspaces")
			return
		}
		if !found {
			common.Fail(c, http.StatusNotFound, common.CodeNotFound, "workspace not found")
			return
		}
	}

	id, err := common.NewULID()
	if err != nil {
		h.internalError(c, err, "generate id")
		return
	}
	a := models.Assistant{
		ID:          id,
		ClientID:    d.Client.ID,
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Model:       strings.TrimSpace(req.Model),
	}
	if err := h.Store.CreateAssistant(ctx, &a); err != nil {
		h.internalError(c, err, "create assistant")
		return
	}
	logging.Ctx(ctx).Info().Str("client_id", a.ClientID).Str("assistant_id", a.ID).Str("user_id", d.Session.UserID).Msg("assistant created")
	common.OK(c, a)
}

func (h *Handler) workspaceBelongs(c *gin.Context, clientID, workspaceID string) (bool, error) {
	list, err := h.Store.ListWorkspaces(c.Request.Context(), clientID)
	if err != nil {
		return false, err
	}
	for _, w := range list {
		if w.ID == workspaceID {
			return true, nil
		}
	}
	return false, nil
}

var errAssistantMismatch = errors.New("assistant does not belong to client")

func (h *Handler) checkAssistant(c *gin.Context, clientID, assistantID string) error {
	_, err := h.Store.GetAssistant(c.Request.Context(), clientID, assistantID)
	if errors.Is(err, store.ErrNotFound) {
		return errAssistantMismatch
	}
	return err
}
