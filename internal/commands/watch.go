package commands

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch regenerates all selected targets whenever the schema document
// changes. An initial pass runs before watching begins.
func (c *Controller) Watch(ctx context.Context) error {
	logger := log.With().Str("component", "watch").Logger()

	docPath := c.Flags.Config
	if docPath == "" {
		docPath = DefaultDocument
	}

	gen := NewGenerateCommand(c.Flags)
	if err := gen.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("initial generation failed")
	}

	watcher, err := NewFileWatcher(
		[]string{filepath.Base(docPath)},
		[]string{".git"},
		logger,
		func(path string, op fsnotify.Op) {
			if op&(fsnotify.Write|fsnotify.Create) == 0 {
				return
			}
			logger.Info().Str("path", path).Msg("schema changed, regenerating")
			if err := gen.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("generation failed")
			}
		},
	)
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(docPath)
	if dir == "" {
		dir = "."
	}
	if err := watcher.AddDirectory(dir); err != nil {
		return err
	}

	logger.Info().Str("document", docPath).Msg("watching for changes")
	return watcher.Start(ctx)
}
