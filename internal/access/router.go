package access

import (
	"net/url"
	"strings"

	"github.com/notsoai/dashboard/internal/session"
)

const (
	LoginPath   = "/login"
	AppPrefix   = "/app"
	ProfilePath = "/profile"
)

// RouteDecision is empty when the request may render; otherwise Redirect is
// the local URL to send the browser to.
type RouteDecision struct {
	Redirect string
}

func (d RouteDecision) Pass() bool { return d.Redirect == "" }

// Route applies the page-level rules before rendering:
//   - /app and /profile require a session, else /login?redirect=<original>
//   - /app/<tenant>/... is rewritten to the session's canonical tenant
//   - /login with a session goes forward into the app
func Route(path, rawQuery string, res session.Result) RouteDecision {
	authed := res.Valid && res.Session != nil

	switch {
	case under(path, LoginPath):
		if !authed {
			return RouteDecision{}
		}
		q, _ := url.ParseQuery(rawQuery)
		if target := q.Get("redirect"); safeLocalTarget(target) {
			return RouteDecision{Redirect: target}
		}
		return RouteDecision{Redirect: TenantHome(res.Session.Tenant())}

	case under(path, AppPrefix), under(path, ProfilePath):
		if !authed {
			original := path
			if rawQuery != "" {
				original += "?" + rawQuery
			}
			return RouteDecision{Redirect: LoginPath + "?redirect=" + url.QueryEscape(original)}
		}
		if under(path, AppPrefix) {
			return routeApp(path, rawQuery, res.Session.Tenant())
		}
	}
	return RouteDecision{}
}

func routeApp(path, rawQuery string, tenant session.TenantRef) RouteDecision {
	rest := strings.TrimPrefix(strings.TrimPrefix(path, AppPrefix), "/")
	if rest == "" {
		return RouteDecision{Redirect: TenantHome(tenant)}
	}

	seg, tail := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		seg, tail = rest[:i], rest[i:]
	}
	if tenant.IsCanonical(seg) {
		return RouteDecision{}
	}

	// Either the raw id of the right tenant or some other tenant entirely.
	// Both land on the canonical URL of the session's tenant.
	target := AppPrefix + "/" + url.PathEscape(tenant.Canonical()) + tail
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return RouteDecision{Redirect: target}
}

// TenantHome is the landing page inside the app for tenant.
func TenantHome(tenant session.TenantRef) string {
	return AppPrefix + "/" + url.PathEscape(tenant.Canonical()) + "/home"
}

func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func safeLocalTarget(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return false
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return false
	}
	return under(u.Path, AppPrefix) || under(u.Path, ProfilePath)
}
