package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notsoai/dashboard/internal/access"
	"github.com/notsoai/dashboard/internal/analysis"
	"github.com/notsoai/dashboard/internal/common"
	"github.com/notsoai/dashboard/internal/config"
	"github.com/notsoai/dashboard/internal/logging"
	"github.com/notsoai/dashboard/internal/session"
	"github.com/notsoai/dashboard/internal/store"
)

// LoginThrottle counts failed logins per email. *redisstore.Store implements
// it.
type LoginThrottle interface {
	LoginBlocked(ctx context.Context, email string) (bool, error)
	RecordLoginFailure(ctx context.Context, email string) (int64, error)
	ResetLoginFailures(ctx context.Context, email string) error
}

type Handler struct {
	Store    store.Store
	Cfg      config.Config
	Sessions *session.Resolver
	Access   *access.Enforcer
	// Throttle may be nil; logins are then unthrottled.
	Throttle LoginThrottle
	// Analysis may be nil; ingested sessions are then stored without analysis.
	Analysis *analysis.Service
	Now      func() time.Time
}

func NewHandler(st store.Store, cfg config.Config, sessions *session.Resolver, throttle LoginThrottle, an *analysis.Service) *Handler {
	return &Handler{
		Store:    st,
		Cfg:      cfg,
		Sessions: sessions,
		Access:   access.NewEnforcer(sessions, st),
		Throttle: throttle,
		Analysis: an,
		Now:      time.Now,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

// authorize runs the access check for the tenant named by clientID and
// writes the failure response itself. The decision is returned only when
// allowed.
func (h *Handler) authorize(c *gin.Context, clientID string) (access.Decision, bool) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "clientId is required")
		return access.Decision{}, false
	}
	d := h.Access.EnforceClientAccess(c.Request, clientID)
	if d.Allowed() {
		return d, true
	}
	if d.ClearCookie {
		h.Sessions.Clear(c.Writer)
	}
	p := d.Payload()
	common.Fail(c, d.Status(), p.Code, p.Message)
	return access.Decision{}, false
}

func (h *Handler) internalError(c *gin.Context, err error, msg string) {
	logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
	common.Fail(c, http.StatusInternalServerError, common.CodeInternal, "internal error")
}

func (h *Handler) storeError(c *gin.Context, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		common.Fail(c, http.StatusNotFound, common.CodeNotFound, what+" not found")
		return
	}
	h.internalError(c, err, "load "+what)
}

// queryLimit parses ?limit= within [1, max], falling back to def.
func queryLimit(c *gin.Context, def, max int) (int, bool) {
	s := c.Query("limit")
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "invalid limit")
		return 0, false
	}
	if n > max {
		n = max
	}
	return n, true
}
