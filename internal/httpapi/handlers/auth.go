package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/notsoai/dashboard/internal/access"
	"github.com/notsoai/dashboard/internal/auth"
	"github.com/notsoai/dashboard/internal/common"
	"github.com/notsoai/dashboard/internal/logging"
	"github.com/notsoai/dashboard/internal/session"
	"github.com/notsoai/dashboard/internal/store"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResp struct {
	Session session.Session `json:"session"`
	Home    string          `json:"home"`
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeTiming spends a bcrypt comparison when the email is unknown.
func equalizeTiming(pw string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("not-a-real-password")
	})
	_ = auth.CheckPassword(dummyHash, pw)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "invalid json")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "email and password required")
		return
	}
	ctx := c.Request.Context()
	log := logging.Ctx(ctx)

	if h.Throttle != nil {
		blocked, err := h.Throttle.LoginBlocked(ctx, email)
		if err != nil {
			// Redis down: fail open, logins still need the password.
			log.Warn().Err(err).Msg("login throttle unavailable")
		} else if blocked {
			common.Fail(c, http.StatusTooManyRequests, common.CodeTooManyRequests, "too many failed attempts, try again later")
			return
		}
	}

	user, err := h.Store.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		equalizeTiming(req.Password)
		h.loginFailed(c, email)
		return
	case err != nil:
		h.internalError(c, err, "load user")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.loginFailed(c, email)
		return
	}

	role, ok := session.ParseRole(user.Role)
	if !ok {
		log.Warn().Str("user_id", user.ID).Str("role", user.Role).Msg("user has unknown role")
		common.Fail(c, http.StatusForbidden, common.CodeForbidden, "account is not allowed to sign in")
		return
	}
	client, err := h.Store.GetClient(ctx, user.ClientID)
	if err != nil {
		h.internalError(c, err, "load client for login")
		return
	}

	s := session.Session{
		ClientID:   client.ID,
		ClientSlug: client.Slug,
		UserID:     user.ID,
		Role:       role,
	}
	if user.DefaultWorkspaceID != nil {
		s.DefaultWorkspaceID = *user.DefaultWorkspaceID
	}
	if err := h.Sessions.Issue(c.Writer, s); err != nil {
		h.internalError(c, err, "issue session")
		return
	}
	if h.Throttle != nil {
		if err := h.Throttle.ResetLoginFailures(ctx, email); err != nil {
			log.Warn().Err(err).Msg("reset login failures")
		}
	}

	log.Info().Str("user_id", user.ID).Str("client_id", client.ID).Msg("login")
	common.OK(c, sessionResp{Session: s, Home: access.TenantHome(s.Tenant())})
}

func (h *Handler) loginFailed(c *gin.Context, email string) {
	if h.Throttle != nil {
		if _, err := h.Throttle.RecordLoginFailure(c.Request.Context(), email); err != nil {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("record login failure")
		}
	}
	common.Fail(c, http.StatusUnauthorized, common.CodeUnauthorized, "invalid email or password")
}

func (h *Handler) Logout(c *gin.Context) {
	h.Sessions.Clear(c.Writer)
	common.OK(c, nil)
}

// CurrentSession returns the caller's session. The tenant is re-checked so a
// deleted tenant logs the user out.
func (h *Handler) CurrentSession(c *gin.Context) {
	res := h.Sessions.FromRequest(c.Request)
	if !res.Valid {
		common.Fail(c, http.StatusUnauthorized, common.CodeUnauthorized, "authentication required")
		return
	}
	d, ok := h.authorize(c, res.Session.ClientID)
	if !ok {
		return
	}
	common.OK(c, sessionResp{Session: *d.Session, Home: access.TenantHome(d.Session.Tenant())})
}
