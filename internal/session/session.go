// Package session implements the signed session cookie: the Session value,
// its tamper-evident token codec, and request resolution.
package session

// Session binds an authenticated user to exactly one tenant.
type Session struct {
	ClientID           string `json:"clientId"`
	ClientSlug         string `json:"clientSlug,omitempty"`
	UserID             string `json:"userId"`
	Role               Role   `json:"role"`
	DefaultWorkspaceID string `json:"defaultWorkspaceId,omitempty"`
}

func (s Session) Tenant() TenantRef {
	return TenantRef{ID: s.ClientID, Slug: s.ClientSlug}
}

// valid is the shape check applied to every decoded payload.
func (s Session) valid() bool {
	if s.ClientID == "" || s.UserID == "" {
		return false
	}
	return s.Role == RoleUnset || s.Role.Valid()
}
