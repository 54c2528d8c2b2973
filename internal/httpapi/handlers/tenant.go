package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notsoai/dashboard/internal/common"
	"github.com/notsoai/dashboard/internal/models"
)

type clientResp struct {
	models.Client
	SessionsThisMonth int64 `json:"sessions_this_month"`
}

func (h *Handler) GetClient(c *gin.Context) {
	d, ok := h.authorize(c, c.Param("clientId"))
	if !ok {
		return
	}
	now := h.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	n, err := h.Store.CountChatSessionsSince(c.Request.Context(), d.Client.ID, monthStart)
	if err != nil {
		h.internalError(c, err, "count chat sessions")
		return
	}
	common.OK(c, clientResp{Client: *d.Client, SessionsThisMonth: n})
}

func (h *Handler) ListWorkspaces(c *gin.Context) {
	d, ok := h.authorize(c, c.Query("clientId"))
	if !ok {
		return
	}
	list, err := h.Store.ListWorkspaces(c.Request.Context(), d.Client.ID)
	if err != nil {
		h.internalError(c, err, "list workspaces")
		return
	}
	common.OK(c, gin.H{"workspaces": list})
}

type billingResp struct {
	Account           *models.BillingAccount `json:"account"`
	Invoices          []models.Invoice       `json:"invoices"`
	SessionsThisCycle int64                  `json:"sessions_this_cycle"`
	QuotaRemaining    int64                  `json:"quota_remaining"`
}

func (h *Handler) GetBilling(c *gin.Context) {
	d, ok := h.authorize(c, c.Query("clientId"))
	if !ok {
		return
	}
	ctx := c.Request.Context()
	acct, invoices, err := h.Store.GetBilling(ctx, d.Client.ID)
	if err != nil {
		h.storeError(c, err, "billing account")
		return
	}
	used, err := h.Store.CountChatSessionsSince(ctx, d.Client.ID, acct.PeriodStart)
	if err != nil {
		h.internalError(c, err, "count chat sessions")
		return
	}
	remaining := int64(acct.MonthlyQuota) - used
	if remaining < 0 {
		remaining = 0
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	common.OK(c, billingResp{Account: acct, Invoices: invoices, SessionsThisCycle: used, QuotaRemaining: remaining})
}
