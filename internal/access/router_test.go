package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notsoai/dashboard/internal/session"
)

func authed(s session.Session) session.Result {
	return session.Result{Valid: true, Session: &s}
}

func TestRoute(t *testing.T) {
	noSession := session.Result{}
	acmeRes := authed(acmeOwner)
	idOnly := authed(session.Session{ClientID: "c_789", UserID: "u_9", Role: session.RoleViewer})

	tests := []struct {
		name     string
		path     string
		query    string
		res      session.Result
		redirect string
	}{
		{"public page passes", "/", "", noSession, ""},
		{"api passes", "/api/analytics", "clientId=c_123", noSession, ""},
		{"app without session", "/app/acme-inc/home", "", noSession, "/login?redirect=%2Fapp%2Facme-inc%2Fhome"},
		{"app keeps query in redirect", "/app/acme-inc/home", "tab=2", noSession, "/login?redirect=%2Fapp%2Facme-inc%2Fhome%3Ftab%3D2"},
		{"profile without session", "/profile", "", noSession, "/login?redirect=%2Fprofile"},
		{"profile with session", "/profile/settings", "", acmeRes, ""},
		{"canonical slug passes", "/app/acme-inc/home", "", acmeRes, ""},
		{"raw id is rewritten", "/app/c_123/home", "", acmeRes, "/app/acme-inc/home"},
		{"other tenant is rewritten", "/app/globex/analytics", "from=2026-01-01", acmeRes, "/app/acme-inc/analytics?from=2026-01-01"},
		{"bare app goes home", "/app", "", acmeRes, "/app/acme-inc/home"},
		{"bare app with slash goes home", "/app/", "", acmeRes, "/app/acme-inc/home"},
		{"id is canonical without slug", "/app/c_789/home", "", idOnly, ""},
		{"login without session passes", "/login", "", noSession, ""},
		{"login with session goes home", "/login", "", acmeRes, "/app/acme-inc/home"},
		{"login honours local redirect", "/login", "redirect=%2Fapp%2Facme-inc%2Fchats", acmeRes, "/app/acme-inc/chats"},
		{"login ignores external redirect", "/login", "redirect=https%3A%2F%2Fevil.test%2Fapp", acmeRes, "/app/acme-inc/home"},
		{"login ignores protocol-relative", "/login", "redirect=%2F%2Fevil.test%2Fapp", acmeRes, "/app/acme-inc/home"},
		{"prefix lookalike is public", "/applications", "", noSession, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Route(tt.path, tt.query, tt.res)
			assert.Equal(t, tt.redirect, d.Redirect)
			assert.Equal(t, tt.redirect == "", d.Pass())
		})
	}
}
