package session

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_AddContext(t *testing.T) {
	s := New()
	require.Empty(t, s.Contexts())

	require.NoError(t, s.AddContext(Context{Type: "UserPass", UserID: "alice", UserPass: "pw"}))
	require.NoError(t, s.AddContext(Context{Type: "ssh", UserID: "alice"}))
	assert.ErrorIs(t, s.AddContext(Context{Type: "  "}), ErrInvalidContext)

	all := s.Contexts()
	require.Len(t, all, 2)
	assert.Equal(t, "UserPass", all[0].Type)

	all[0].UserID = "mallory"
	assert.Equal(t, "alice", s.Contexts()[0].UserID, "Contexts must return a copy")

	assert.Len(t, s.ContextsOfType("SSH"), 1)
	assert.Empty(t, s.ContextsOfType("x509"))
}

func TestSession_LogValueRedactsSecrets(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	c := Context{Type: "UserPass", UserID: "alice", UserPass: "hunter2"}

	logger.Info("context", "ctx", c)

	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "ctx.has_pass=true")
}
