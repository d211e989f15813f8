package commands

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gsit/internal/config"
	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
)

func quietLogger() *slog.Logger {
	return NewLogger(config.LoggingConfig{Level: "error", Format: "text"}, false, &bytes.Buffer{})
}

func TestNewLogger_FormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"}, false, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)

	buf.Reset()
	NewLogger(config.LoggingConfig{Level: "warn", Format: "text"}, true, &buf).Debug("verbose wins")
	assert.Contains(t, buf.String(), "verbose wins")
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gsit.yaml")
	var out bytes.Buffer

	require.NoError(t, RunInit(path, false, &out))
	assert.Contains(t, out.String(), "initialized successfully")
	_, err := config.Load(path)
	require.NoError(t, err, "generated file must load")

	err = RunInit(path, false, &out)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	require.NoError(t, RunInit(path, true, &out))
}

func TestRunDemo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunDemo(context.Background(), config.Defaults(), 2*time.Second, &out, quietLogger()))

	text := out.String()
	assert.Contains(t, text, "Steve is sitting at world(0,64,0)")
	assert.Contains(t, text, "world(0,64,0) [OAK_STAIRS]: Steve (sitting), Alex (lying)")
	assert.Contains(t, text, "kick at world(0,64,0) failed")
	assert.Contains(t, text, "crawl for Alex rejected: already active")
	assert.Contains(t, text, "stopping crawl for Alex was vetoed")
	assert.Contains(t, text, "Alex stopped crawling")
	assert.Contains(t, text, "world(3,64,3) is now AIR")
	assert.NotContains(t, text, "error:")
}

func TestRunServe_ConsoleUntilEOF(t *testing.T) {
	cfg := config.Defaults()
	cfg.Journal.Enabled = true
	in := strings.NewReader(strings.Join([]string{
		"join Steve 1 65 1",
		"crawl Steve",
		"bogus",
		"uncrawl Steve",
		"history Steve",
	}, "\n") + "\n")
	var out syncWriter

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := RunServe(ctx, ServeOptions{
		Config:    cfg,
		ExitOnEOF: true,
		In:        in,
		Out:       &out,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, ctx.Err(), "serve must stop when input ends")

	text := out.String()
	assert.Contains(t, text, "Steve is crawling")
	assert.Contains(t, text, "error: unknown command")
	assert.Contains(t, text, "Steve stopped crawling")
}

type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}
