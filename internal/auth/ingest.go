package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const ingestAudience = "notsoai-ingest"

var ErrInvalidIngestToken = errors.New("auth: invalid ingest token")

// IngestClaims authorize the chat widget of one assistant to post sessions
// for its tenant.
type IngestClaims struct {
	ClientID    string `json:"client_id"`
	AssistantID string `json:"assistant_id"`
	jwt.RegisteredClaims
}

func SignIngestToken(clientID, assistantID, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("auth: ingest secret is empty")
	}
	if clientID == "" || assistantID == "" {
		return "", errors.New("auth: client and assistant are required")
	}
	now := time.Now()
	claims := IngestClaims{
		ClientID:    clientID,
		AssistantID: assistantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   assistantID,
			Audience:  jwt.ClaimStrings{ingestAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseIngestToken(tokenStr, secret string) (*IngestClaims, error) {
	if secret == "" {
		return nil, ErrInvalidIngestToken
	}
	claims := &IngestClaims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(ingestAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIngestToken, err)
	}
	if claims.ClientID == "" || claims.AssistantID == "" {
		return nil, ErrInvalidIngestToken
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer ..." value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
