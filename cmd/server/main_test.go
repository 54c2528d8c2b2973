package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notsoai/dashboard/internal/config"
	"github.com/notsoai/dashboard/internal/session"
)

func TestNewCodec(t *testing.T) {
	var cfg config.Config

	c, err := newCodec(cfg)
	require.NoError(t, err)
	assert.True(t, c.Signed(), "development without a secret gets an ephemeral one")

	cfg.Session.AllowUnsigned = true
	c, err = newCodec(cfg)
	require.NoError(t, err)
	assert.False(t, c.Signed())

	cfg = config.Config{Env: "production"}
	_, err = newCodec(cfg)
	require.ErrorIs(t, err, session.ErrConfiguration)

	cfg.Session.Secret = "s"
	c, err = newCodec(cfg)
	require.NoError(t, err)
	assert.True(t, c.Signed())
}
