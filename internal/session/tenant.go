package session

// TenantRef identifies a tenant by its opaque id and, optionally, its slug.
// Both forms name the same tenant.
type TenantRef struct {
	ID   string
	Slug string
}

// Matches reports whether ref names this tenant by id or by slug.
func (t TenantRef) Matches(ref string) bool {
	if ref == "" {
		return false
	}
	if t.ID != "" && ref == t.ID {
		return true
	}
	return t.Slug != "" && ref == t.Slug
}

// Canonical is the external identifier used in URLs: the slug when known.
func (t TenantRef) Canonical() string {
	if t.Slug != "" {
		return t.Slug
	}
	return t.ID
}

// IsCanonical reports whether ref is exactly the canonical form.
func (t TenantRef) IsCanonical(ref string) bool {
	return ref != "" && ref == t.Canonical()
}
