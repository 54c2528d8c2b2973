// Package access decides whether a request may touch a tenant's data, both
// for API handlers (typed decisions) and for page routing (redirects).
package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/notsoai/dashboard/internal/common"
	"github.com/notsoai/dashboard/internal/logging"
	"github.com/notsoai/dashboard/internal/models"
	"github.com/notsoai/dashboard/internal/session"
	"github.com/notsoai/dashboard/internal/store"
)

type Outcome int

const (
	Allowed Outcome = iota
	Unauthorized
	Forbidden
	Internal
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Internal:
		return "internal"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Decision is the result of an access check. Session and Client are set only
// when Outcome is Allowed.
type Decision struct {
	Outcome Outcome
	Session *session.Session
	Client  *models.Client
	// ClearCookie is set when the session names a tenant that no longer
	// exists.
	ClearCookie bool
}

func (d Decision) Allowed() bool { return d.Outcome == Allowed }

func (d Decision) Status() int {
	switch d.Outcome {
	case Allowed:
		return http.StatusOK
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Internal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Payload is the client-facing error body. Messages are deliberately generic.
func (d Decision) Payload() common.ErrorPayload {
	switch d.Outcome {
	case Allowed:
		return common.ErrorPayload{Code: common.CodeOK, Message: "ok"}
	case Unauthorized:
		return common.ErrorPayload{Code: common.CodeUnauthorized, Message: "authentication required"}
	case Forbidden:
		return common.ErrorPayload{Code: common.CodeForbidden, Message: "access to this client is not allowed"}
	case Internal:
		return common.ErrorPayload{Code: common.CodeInternal, Message: "internal error"}
	}
	return common.ErrorPayload{Code: common.CodeInternal, Message: "internal error"}
}

// TenantLookup is the one upstream call made per decision.
type TenantLookup interface {
	GetClient(ctx context.Context, ref string) (*models.Client, error)
}

type Enforcer struct {
	resolver *session.Resolver
	tenants  TenantLookup
}

func NewEnforcer(resolver *session.Resolver, tenants TenantLookup) *Enforcer {
	return &Enforcer{resolver: resolver, tenants: tenants}
}

// EnforceClientAccess checks that the request's session belongs to the
// tenant named by requested (id or slug).
func (e *Enforcer) EnforceClientAccess(r *http.Request, requested string) (d Decision) {
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}
	defer func() {
		if p := recover(); p != nil {
			logging.Ctx(ctx).Error().Interface("panic", p).Msg("access check panicked")
			d = Decision{Outcome: Internal}
		}
	}()

	res := e.resolver.FromRequest(r)
	if !res.Valid || res.Session == nil {
		return Decision{Outcome: Unauthorized}
	}
	sess := res.Session

	if !sess.Tenant().Matches(requested) {
		logging.Ctx(ctx).Warn().
			Str("user_id", sess.UserID).
			Str("session_client", sess.ClientID).
			Str("requested_client", requested).
			Msg("cross-tenant access denied")
		return Decision{Outcome: Forbidden}
	}

	client, err := e.tenants.GetClient(ctx, sess.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Decision{Outcome: Unauthorized, ClearCookie: true}
		}
		logging.Ctx(ctx).Error().Err(err).Str("client_id", sess.ClientID).Msg("tenant lookup failed")
		return Decision{Outcome: Internal}
	}

	return Decision{Outcome: Allowed, Session: sess, Client: client}
}

// Resolve exposes the session resolver for handlers that only need to know
// who is calling.
func (e *Enforcer) Resolve(r *http.Request) session.Result {
	return e.resolver.FromRequest(r)
}
