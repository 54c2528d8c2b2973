package common

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID returns a 26 character, time-ordered identifier.
func NewULID() (string, error) {
	return NewULIDAt(time.Now())
}

// NewULIDAt embeds t, so ids sort in the order of the events they name.
func NewULIDAt(t time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(t), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
