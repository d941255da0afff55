package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewConfigLevels(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, NewConfig(false).Level.Level())
	assert.Equal(t, zapcore.DebugLevel, NewConfig(true).Level.Level())
	assert.True(t, NewConfig(false).DisableStacktrace)
}

func TestNamedUsesGlobal(t *testing.T) {
	defer ReplaceGlobal(Global())

	core, logs := observer.New(zapcore.InfoLevel)
	ReplaceGlobal(zap.New(core).Sugar())

	Named("lidar").Infow("LIDAR started", "device", "/dev/ttyUSB0")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "lidar", entry.LoggerName)
	assert.Equal(t, "/dev/ttyUSB0", entry.ContextMap()["device"])
}

func TestInitInstallsGlobal(t *testing.T) {
	defer ReplaceGlobal(Global())

	l, err := Init(true)
	require.NoError(t, err)
	assert.Same(t, l, Global())
}
