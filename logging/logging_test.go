package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewAppliesDefaults(t *testing.T) {
	f, err := New(map[string]string{Decision: "debug"})
	require.NoError(t, err)
	assert.True(t, f.atoms[Decision].Enabled(zapcore.DebugLevel))
	assert.False(t, f.atoms[Circuit].Enabled(zapcore.DebugLevel))
}

func TestSetLevelIsIndependentPerCategory(t *testing.T) {
	f, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, f.SetLevel(Update, "error"))
	assert.False(t, f.atoms[Update].Enabled(zapcore.WarnLevel))
	assert.True(t, f.atoms[Forward].Enabled(zapcore.InfoLevel))
}

func TestForUnknownCategoryReturnsNop(t *testing.T) {
	f, err := New(nil)
	require.NoError(t, err)
	l := f.For("nonexistent")
	require.NotNil(t, l)
}
