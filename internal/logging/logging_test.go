package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewTo_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewTo(&buf, slog.LevelWarn)

	l.Info("hidden")
	l.Warn("shown", "component", "store")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "component=store")
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "shoplist.log")

	l, closeFn, err := New("debug", path)
	require.NoError(t, err)
	l.Debug("item added", "id", 3)
	require.NoError(t, closeFn())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "msg=\"item added\"")
	assert.Contains(t, string(b), "id=3")
}

func TestNew_EmptyPathDiscards(t *testing.T) {
	l, closeFn, err := New("info", "")
	require.NoError(t, err)
	l.Error("nowhere")
	assert.NoError(t, closeFn())
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New("loud", "")
	assert.Error(t, err)
}
