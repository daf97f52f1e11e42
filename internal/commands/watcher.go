package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FileWatcher watches files for changes based on patterns.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	patterns []string
	exclude  []string
	onChange func(path string, op fsnotify.Op)
	logger   zerolog.Logger
}

// NewFileWatcher creates a new file watcher.
func NewFileWatcher(patterns []string, exclude []string, logger zerolog.Logger, onChange func(path string, op fsnotify.Op)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		patterns: patterns,
		exclude:  exclude,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// AddDirectory recursively adds a directory to the watcher.
func (fw *FileWatcher) AddDirectory(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		for _, pattern := range fw.exclude {
			matched, _ := filepath.Match(pattern, filepath.Base(path))
			if matched {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if info.IsDir() {
			if err := fw.watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch directory %s: %w", path, err)
			}
		}

		return nil
	})
}

// Start begins watching for file changes.
func (fw *FileWatcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}

			if fw.shouldWatch(event.Name) {
				fw.onChange(event.Name, event.Op)
			}

			// New directories join the watch set as they appear.
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					fw.AddDirectory(event.Name)
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if err != nil {
				fw.logger.Warn().Err(err).Msg("watcher error")
			}
		}
	}
}

// shouldWatch checks if a file should trigger a change event based on patterns.
func (fw *FileWatcher) shouldWatch(path string) bool {
	base := filepath.Base(path)

	for _, pattern := range fw.exclude {
		if matched, _ := filepath.Match(pattern, base); matched {
			return false
		}
	}

	for _, pattern := range fw.patterns {
		if strings.Contains(pattern, "**") {
			if strings.HasPrefix(pattern, "**/*.") {
				ext := strings.TrimPrefix(pattern, "**/*")
				if strings.HasSuffix(path, ext) {
					return true
				}
			}
		} else if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}

// Close stops the watcher.
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
