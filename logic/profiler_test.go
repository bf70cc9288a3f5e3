package logic_test

import (
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
	"timeline_station/logic"
)

func TestProfilerSavesDumpWithLoad(t *testing.T) {
	ctrl, h, dl := setupDownloaderTest(t, true)
	defer ctrl.Finish()

	h.cfg.ProfileDir = filepath.Join(t.TempDir(), "profiles")
	prof := logic.NewProfiler(h.cfg, log.New(io.Discard), dl, h.activity)

	path, err := prof.SaveProfile()
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Goroutine count: ")
	assert.Contains(t, string(data), "Requests in flight: 0\n")
	assert.Contains(t, string(data), "goroutine ")
}

func TestProfilerDisabledWithoutDir(t *testing.T) {
	ctrl, h, dl := setupDownloaderTest(t, true)
	defer ctrl.Finish()

	prof := logic.NewProfiler(h.cfg, log.New(io.Discard), dl, h.activity)
	prof.Start()
	prof.Stop()

	h.cfg.ProfileDir = t.TempDir()
	prof = logic.NewProfiler(h.cfg, log.New(io.Discard), dl, h.activity)
	prof.Start()
	time.Sleep(10 * time.Millisecond)
	prof.Stop()
	// Start delay has not passed, nothing written
	entries, err := os.ReadDir(h.cfg.ProfileDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
