package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/crosspacket/crosspacket/internal/codegen"
	"github.com/crosspacket/crosspacket/internal/config"
	"github.com/crosspacket/crosspacket/internal/schema"
)

// DefaultDocument is the schema document looked up when --config is not set.
const DefaultDocument = "./packets.yaml"

// Generate runs code generation for the selected targets.
func (c *Controller) Generate(ctx context.Context) error {
	return NewGenerateCommand(c.Flags).Run(ctx)
}

// GenerateCommand loads the schema document, runs each selected emitter, and
// writes the resulting filesets to the per-target output directories.
type GenerateCommand struct {
	flags    *Flags
	registry *codegen.Registry
	logger   zerolog.Logger
}

// NewGenerateCommand creates a generate command over the default registry.
func NewGenerateCommand(flags *Flags) *GenerateCommand {
	return &GenerateCommand{
		flags:    flags,
		registry: codegen.DefaultRegistry,
		logger:   log.With().Str("component", "generate").Logger(),
	}
}

// Run executes one full generation pass. A failing target is logged and does
// not stop the remaining targets.
func (gc *GenerateCommand) Run(ctx context.Context) error {
	docPath := gc.flags.Config
	if docPath == "" {
		docPath = DefaultDocument
	}

	data, err := os.ReadFile(docPath)
	if err != nil {
		return fmt.Errorf("failed to read schema document: %w", err)
	}

	s, err := schema.ParseDocument(data)
	if err != nil {
		return err
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return err
	}

	jsonOn := s.Global.JSON && !gc.flags.NoJSON
	msgpackOn := s.Global.MsgPack && !gc.flags.NoMsgPack
	if !jsonOn && !msgpackOn {
		return schema.ErrNoFormats
	}

	for _, issue := range s.Issues {
		gc.logger.Warn().
			Str("packet", issue.Packet).
			Str("field", issue.Field).
			Msg(issue.Reason)
	}

	targets := gc.flags.Targets
	if gc.flags.All || len(targets) == 0 {
		targets = gc.registry.Targets()
	}

	var errs []error
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := gc.generateTarget(s, cfg, target, jsonOn, msgpackOn); err != nil {
			gc.logger.Error().Err(err).Str("target", target).Msg("generation failed")
			errs = append(errs, fmt.Errorf("%s: %w", target, err))
		}
	}
	return errors.Join(errs...)
}

func (gc *GenerateCommand) generateTarget(s *schema.Schema, cfg *config.Config, target string, jsonOn, msgpackOn bool) error {
	tcfg := cfg.Target(target)
	gen, err := gc.registry.Get(target, codegen.Options{
		TypeField: s.Global.TypeField,
		JSON:      jsonOn,
		MsgPack:   msgpackOn,
		Indent:    tcfg.Indent,
		Package:   tcfg.PackageName(),
	})
	if err != nil {
		return err
	}

	files, err := gen.Generate(s)
	if err != nil {
		return err
	}
	return gc.writeFiles(tcfg.OutputDir, files)
}

// writeFiles materializes a fileset. Clean removes previously generated
// files (matched by the extensions this run produces) before writing;
// existing files are skipped unless Override is set.
func (gc *GenerateCommand) writeFiles(dir string, files codegen.Fileset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if gc.flags.Clean {
		if err := gc.cleanDir(dir, files); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		if sub := filepath.Dir(path); sub != dir {
			if err := os.MkdirAll(sub, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if _, err := os.Stat(path); err == nil && !gc.flags.Override {
			gc.logger.Info().Str("path", path).Msg("skipped (exists)")
			continue
		}
		if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		gc.logger.Info().Str("path", path).Msg("generated")
	}
	return nil
}

func (gc *GenerateCommand) cleanDir(dir string, files codegen.Fileset) error {
	exts := make(map[string]bool, 2)
	for name := range files {
		if ext := filepath.Ext(name); ext != "" {
			exts[ext] = true
		}
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if exts[filepath.Ext(path)] {
			return os.Remove(path)
		}
		return nil
	})
}
