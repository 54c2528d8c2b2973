package session

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// ErrConfiguration means no signing secret is available where one is
// required.
var ErrConfiguration = errors.New("session: signing secret is not configured")

// Codec turns a Session into a cookie value and back.
//
// Signed tokens are base64url(json) "." base64url(hmac-sha256(json)). With no
// secret, outside production and with allowUnsigned set, the raw JSON is used
// instead. That mode is insecure and exists for local demos only.
type Codec struct {
	secret        []byte
	production    bool
	allowUnsigned bool
}

func NewCodec(secret string, production, allowUnsigned bool) (*Codec, error) {
	if secret == "" && production {
		return nil, ErrConfiguration
	}
	return &Codec{
		secret:        []byte(secret),
		production:    production,
		allowUnsigned: allowUnsigned && !production,
	}, nil
}

// Signed reports whether tokens produced by c carry a signature.
func (c *Codec) Signed() bool { return len(c.secret) > 0 }

func (c *Codec) unsignedMode() bool {
	return !c.Signed() && !c.production && c.allowUnsigned
}

func (c *Codec) Encode(s Session) (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	if !c.Signed() {
		if c.unsignedMode() {
			return string(payload), nil
		}
		return "", ErrConfiguration
	}
	return b64.EncodeToString(payload) + "." + b64.EncodeToString(c.sign(payload)), nil
}

// Decode returns the session carried by token. Any malformed, unsigned or
// tampered input yields ok=false.
func (c *Codec) Decode(token string) (s Session, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = Session{}, false
		}
	}()

	if token == "" {
		return Session{}, false
	}
	if !c.Signed() {
		if !c.unsignedMode() {
			return Session{}, false
		}
		return parsePayload([]byte(token))
	}

	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Session{}, false
	}
	payload, err := b64Strict.DecodeString(strings.TrimRight(parts[0], "="))
	if err != nil {
		return Session{}, false
	}
	sig, err := b64Strict.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Session{}, false
	}
	if !hmac.Equal(sig, c.sign(payload)) {
		return Session{}, false
	}
	return parsePayload(payload)
}

func (c *Codec) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

var (
	b64 = base64.RawURLEncoding
	// Strict rejects non-zero trailing bits, so every character of the
	// signature is significant.
	b64Strict = base64.RawURLEncoding.Strict()
)

func parsePayload(payload []byte) (Session, bool) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || payload[0] != '{' {
		return Session{}, false
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return Session{}, false
	}
	if !s.valid() {
		return Session{}, false
	}
	return s, true
}
