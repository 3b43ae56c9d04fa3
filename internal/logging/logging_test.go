package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "retrowall.log")
	logger, err := New(Config{Level: "info", Journal: "off", Path: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("quote moderated", slog.String("to", "approved"))
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "quote moderated")
	assert.Contains(t, string(data), "to=approved")
	assert.NotContains(t, string(data), "hidden")
}

func TestNilClose(t *testing.T) {
	var nilLogger *Logger
	assert.NoError(t, nilLogger.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestSlogToCharmLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, slogToCharmLevel(slog.Level(-12)))
	assert.Equal(t, log.DebugLevel, slogToCharmLevel(slog.LevelDebug))
	assert.Equal(t, log.InfoLevel, slogToCharmLevel(slog.LevelInfo))
	assert.Equal(t, log.WarnLevel, slogToCharmLevel(slog.LevelWarn))
	assert.Equal(t, log.ErrorLevel, slogToCharmLevel(slog.LevelError))
	assert.Equal(t, log.ErrorLevel, slogToCharmLevel(slog.Level(12)))
}

func TestCgroupIsService(t *testing.T) {
	assert.True(t, cgroupIsService("0::/system.slice/retrowall.service\n"))
	assert.True(t, cgroupIsService("0::/system.slice/retrowall.service/init\n"))
	assert.False(t, cgroupIsService("0::/user.slice/user-1000.slice/session-2.scope\n"))
	assert.False(t, cgroupIsService(""))
}

func TestWantJournal(t *testing.T) {
	assert.True(t, wantJournal("on"))
	assert.False(t, wantJournal("OFF"))
}

func TestToJournalKey(t *testing.T) {
	assert.Equal(t, "PENDING_COUNT", toJournalKey("pending.count"))
	assert.Equal(t, "TO", toJournalKey("to"))
}
