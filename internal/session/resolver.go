package session

import (
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultCookieName = "notsoai-session"
	DefaultMaxAge     = 7 * 24 * time.Hour
)

// Result is the outcome of resolving a request's session cookie.
type Result struct {
	Valid   bool
	Session *Session
}

// Resolver reads and validates the session cookie of inbound requests. It
// holds no per-request state.
type Resolver struct {
	codec      *Codec
	cookieName string
	maxAge     time.Duration
	secure     bool
}

func NewResolver(codec *Codec, cookieName string, maxAge time.Duration, secure bool) *Resolver {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Resolver{codec: codec, cookieName: cookieName, maxAge: maxAge, secure: secure}
}

func (r *Resolver) CookieName() string { return r.cookieName }

// FromRequest never panics; every failure reports an invalid result.
func (r *Resolver) FromRequest(req *http.Request) (res Result) {
	defer func() {
		if recover() != nil {
			res = Result{}
		}
	}()

	if req == nil || r.codec == nil {
		return Result{}
	}
	ck, err := req.Cookie(r.cookieName)
	if err != nil || ck.Value == "" {
		return Result{}
	}
	// Values are percent-encoded on the way out so that legacy JSON tokens
	// survive cookie syntax.
	token, err := url.QueryUnescape(ck.Value)
	if err != nil {
		return Result{}
	}
	s, ok := r.codec.Decode(token)
	if !ok {
		return Result{}
	}
	return Result{Valid: true, Session: &s}
}

// Issue encodes s and writes it as the session cookie.
func (r *Resolver) Issue(w http.ResponseWriter, s Session) error {
	token, err := r.codec.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, r.cookie(url.QueryEscape(token), int(r.maxAge/time.Second)))
	return nil
}

// Clear deletes the session cookie.
func (r *Resolver) Clear(w http.ResponseWriter) {
	http.SetCookie(w, r.cookie("", -1))
}

func (r *Resolver) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     r.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
