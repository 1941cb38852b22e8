package messages

import (
	"fmt"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMultisigMessage_Log(t *testing.T) {
	tests := []struct {
		name      string
		level     MultisigLogLevel
		err       error
		wantLevel zapcore.Level
	}{
		{name: "info", level: LOG_LEVEL_INFO, wantLevel: zapcore.InfoLevel},
		{name: "success", level: LOG_LEVEL_SUCCESS, wantLevel: zapcore.InfoLevel},
		{name: "warning", level: LOG_LEVEL_WARNING, wantLevel: zapcore.WarnLevel},
		{name: "error", level: LOG_LEVEL_ERROR, err: fmt.Errorf("boom"), wantLevel: zapcore.ErrorLevel},
		{name: "debug", level: LOG_LEVEL_DEBUG, wantLevel: zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			NewMultisigMessage(tt.level, "state", tt.err, "read block %d", 7).Log(zap.New(core))

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			assert.Equal(t, "read block 7", entries[0].Message)
			assert.Equal(t, "state", entries[0].ContextMap()["component"])
		})
	}
}

func TestMultisigMessage_Err(t *testing.T) {
	cause := fmt.Errorf("refused")
	err := NewMultisigMessage(LOG_LEVEL_ERROR, "connection", cause, "dial %s", "ws://node").Err()
	require.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "dial ws://node")

	plain := NewMultisigMessage(LOG_LEVEL_ERROR, "", nil, "threshold %d too high", 4).Err()
	assert.Equal(t, "threshold 4 too high", plain.Error())
}

func TestMultisigMessage_LogNilLogger(t *testing.T) {
	require.NotPanics(t, func() {
		NewMultisigMessage(LOG_LEVEL_ERROR, "", fmt.Errorf("x"), "y").Log(nil)
	})
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger("loud")
	require.Error(t, err)
}

func TestGetComponent(t *testing.T) {
	assert.Equal(t, "messages", GetComponent(NewLogger))
}
