//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package asynclog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMmapLoggerAppendsSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.MmapSizeKB = 64
	logger, err := NewMmapLogger(cfg, WithClock(fixedClock()))
	require.NoError(t, err)

	loc := &SourceLocation{File: "server.go", Line: 88, Function: "serve"}
	require.NoError(t, logger.Log(LevelInfo, "explicit", loc))
	logger.Warn("captured")
	require.NoError(t, logger.Flush())
	require.NoError(t, logger.Shutdown())
	assert.True(t, logger.Closed())

	lines := readLines(t, cfg.LogPath())
	require.Len(t, lines, 2)
	assert.Equal(t, "["+testStamp+"][INFO][main] explicit [server.go:88:serve]", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "["+testStamp+"][WARN][main] captured ["), lines[1])
	assert.Contains(t, lines[1], "mmap_test.go:")
	assert.True(t, strings.HasSuffix(lines[1], ":TestMmapLoggerAppendsSource]"), lines[1])
}

func TestMmapLoggerRotates(t *testing.T) {
	cfg := testConfig(t)
	cfg.MmapSizeKB = 4
	cfg.MaxFiles = 2
	logger, err := NewMmapLogger(cfg)
	require.NoError(t, err)
	defer logger.Shutdown()

	payload := strings.Repeat("m", 200)
	for i := 0; i < 100; i++ {
		logger.Info(payload)
	}
	require.NoError(t, logger.Rotate())

	_, err = os.Stat(filepath.Join(cfg.Directory, "log.1.log"))
	assert.NoError(t, err)
	files, err := logFiles(logger.Path())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(files), 3)
	assert.Equal(t, uint64(100), logger.Statistics().MessagesProcessed)
}

func TestMmapLoggerMappingFailure(t *testing.T) {
	cfg := testConfig(t)
	// The backing path is a directory and cannot be mapped
	require.NoError(t, os.Mkdir(cfg.LogPath(), 0o755))

	_, err := NewMmapLogger(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMappingFailure))
}

func TestMmapLoggerRejectsAfterShutdown(t *testing.T) {
	cfg := testConfig(t)
	logger, err := NewMmapLogger(cfg)
	require.NoError(t, err)
	require.NoError(t, logger.Shutdown())
	require.NoError(t, logger.Shutdown())

	assert.ErrorIs(t, logger.Log(LevelError, "late", nil), ErrShuttingDown)
	assert.NoError(t, logger.Flush())
}
