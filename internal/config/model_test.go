package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultModel(t *testing.T) {
	m := DefaultModel()
	assert.True(t, m.Registry.CollisionCheck)
	assert.True(t, m.Registry.ReflectFallback)
	assert.Equal(t, ".", m.Registry.PopSeparator)
	assert.Empty(t, m.Registry.Owner)
	assert.Equal(t, LoggingConfig{Level: "info", Format: "text"}, m.Logging)

	m.Components = append(m.Components, &Component{Kind: "cache", Name: "sessions"})
	c, ok := m.Component("sessions")
	require.True(t, ok)
	assert.Equal(t, "cache", c.Kind)
	_, ok = m.Component("missing")
	assert.False(t, ok)
}

func TestCommand_String(t *testing.T) {
	testCases := []struct {
		cmd      Command
		expected string
	}{
		{Command{Kind: CommandGet, Target: "temp"}, "get temp"},
		{Command{Kind: CommandInvoke, Target: "cache.put", Signature: "(string,string)"}, "invoke cache.put(string,string)"},
		{Command{Kind: CommandPopAll}, "pop_all"},
		{Command{Kind: CommandUnpop, Target: "stats"}, "unpop stats"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.cmd.String())
	}
}
