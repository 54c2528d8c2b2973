package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notsoai/dashboard/internal/analytics"
	"github.com/notsoai/dashboard/internal/common"
	"github.com/notsoai/dashboard/internal/redact"
	"github.com/notsoai/dashboard/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func (h *Handler) GetAnalytics(c *gin.Context) {
	d, ok := h.authorize(c, c.Query("clientId"))
	if !ok {
		return
	}
	r, err := analytics.ParseRange(c.Query("from"), c.Query("to"), h.Now())
	if err != nil {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, err.Error())
		return
	}

	sessions, err := h.Store.ListChatSessions(c.Request.Context(), d.Client.ID, store.ChatSessionFilter{
		AssistantID: c.Query("assistantId"),
		From:        r.From,
		// store bounds are half-open
		To: r.To.Add(time.Nanosecond),
	})
	if err != nil {
		h.internalError(c, err, "list chat sessions")
		return
	}
	common.OK(c, analytics.Summarize(sessions, r))
}

func (h *Handler) ListChatSessions(c *gin.Context) {
	d, ok := h.authorize(c, c.Query("clientId"))
	if !ok {
		return
	}
	limit, ok := queryLimit(c, defaultPageSize, maxPageSize)
	if !ok {
		return
	}

	list, err := h.Store.ListChatSessions(c.Request.Context(), d.Client.ID, store.ChatSessionFilter{
		AssistantID: c.Query("assistantId"),
		Before:      c.Query("before"),
		Limit:       limit,
	})
	if err != nil {
		h.internalError(c, err, "list chat sessions")
		return
	}
	list = redact.ChatSessionsForRole(d.Session.Role, list)

	var next string
	if len(list) == limit {
		next = list[len(list)-1].ID
	}
	common.OK(c, gin.H{"chat_sessions": nonNil(list), "next_before": next})
}

func (h *Handler) GetChatSession(c *gin.Context) {
	d, ok := h.authorize(c, c.Query("clientId"))
	if !ok {
		return
	}
	cs, err := h.Store.GetChatSession(c.Request.Context(), d.Client.ID, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "chat session")
		return
	}
	common.OK(c, redact.ChatSessionForRole(d.Session.Role, cs))
}

func (h *Handler) ListConversations(c *gin.Context) {
	d, ok := h.authorize(c, c.Query("clientId"))
	if !ok {
		return
	}
	limit, ok := queryLimit(c, defaultPageSize, maxPageSize)
	if !ok {
		return
	}
	list, err := h.Store.ListChatSessions(c.Request.Context(), d.Client.ID, store.ChatSessionFilter{
		AssistantID: c.Query("assistantId"),
		Before:      c.Query("before"),
		Limit:       limit,
	})
	if err != nil {
		h.internalError(c, err, "list chat sessions")
		return
	}
	convs := redact.ConversationsForRole(d.Session.Role, analytics.ToConversations(list))
	common.OK(c, gin.H{"conversations": nonNil(convs)})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
