package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestReplace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	Info("hello", zap.String("k", "v"))
	Debug("hidden")
	restore()
	Info("after restore")

	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "v", logs.All()[0].ContextMap()["k"])
}

func TestSetLevel(t *testing.T) {
	defer level.SetLevel(zapcore.InfoLevel)
	SetLevel("debug")
	assert.Equal(t, zapcore.DebugLevel, level.Level())
	SetLevel("nonsense")
	assert.Equal(t, zapcore.DebugLevel, level.Level())
}
