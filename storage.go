package asynclog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lixenwraith/asynclog/sink"
)

// openFileBackend opens the rotating file described by cfg
func openFileBackend(cfg *Config, diag *diagnostics) (*sink.RotatingFileSink, error) {
	backend, err := sink.NewRotatingFileSink(cfg.LogPath(), sink.RotatingOptions{
		MaxSize:         cfg.MaxSizeKB * sizeMultiplier,
		MaxFiles:        int(cfg.MaxFiles),
		FlushEveryWrite: cfg.FlushEveryWrite,
		SyncOnFlush:     cfg.SyncOnFlush,
		OnError:         diag.reporter(cfg.Name),
	})
	if err != nil {
		return nil, fmtErrorf("failed to open file backend: %w", err)
	}
	return backend, nil
}

// openMmapBackend maps the ring region described by cfg
func openMmapBackend(cfg *Config, diag *diagnostics) (*sink.MmapRingSink, error) {
	backend, err := sink.NewMmapRingSink(cfg.LogPath(), sink.MmapOptions{
		Size:     cfg.MmapSizeKB * sizeMultiplier,
		MaxFiles: int(cfg.MaxFiles),
		OnError:  diag.reporter(cfg.Name),
	})
	if err != nil {
		return nil, fmtErrorf("failed to open mmap backend: %w", err)
	}
	return backend, nil
}

// logFiles lists the live file and numbered history of path that exist on disk
func logFiles(path string) ([]string, error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmtErrorf("failed to read log directory '%s': %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == stem+ext || isArchiveName(name, stem, ext) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files, nil
}

// isArchiveName matches <stem>.<digits><ext>
func isArchiveName(name, stem, ext string) bool {
	if !strings.HasPrefix(name, stem+".") || !strings.HasSuffix(name, ext) {
		return false
	}
	index := strings.TrimSuffix(strings.TrimPrefix(name, stem+"."), ext)
	if index == "" {
		return false
	}
	for _, r := range index {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// logDirUsage sums the size of the live file and its history
func logDirUsage(path string) (count int, size int64, err error) {
	files, err := logFiles(path)
	if err != nil {
		return -1, -1, err
	}
	for _, f := range files {
		info, errInfo := os.Stat(f)
		if errInfo != nil {
			continue
		}
		size += info.Size()
	}
	return len(files), size, nil
}
