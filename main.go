package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/crosspacket/crosspacket/internal/commands"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

// targetNames are the selectable target flags, in registration order.
var targetNames = []string{"dart", "python", "java", "typescript", "rust", "go", "cpp", "csharp", "php"}

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	ctrl := &commands.Controller{
		Flags: &commands.Flags{},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	generateFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to the packet schema document",
			Value: commands.DefaultDocument,
		},
		&cli.BoolFlag{Name: "all", Usage: "generate all targets"},
		&cli.BoolFlag{Name: "override", Usage: "overwrite existing files"},
		&cli.BoolFlag{Name: "clean", Usage: "remove old generated files first"},
		&cli.BoolFlag{Name: "no-json", Usage: "disable JSON serialization"},
		&cli.BoolFlag{Name: "no-msgpack", Usage: "disable MessagePack serialization"},
	}
	for _, name := range targetNames {
		generateFlags = append(generateFlags, &cli.BoolFlag{
			Name:  name,
			Usage: fmt.Sprintf("generate %s code", name),
		})
	}

	readFlags := func(c *cli.Command) {
		ctrl.Flags.Config = c.String("config")
		ctrl.Flags.All = c.Bool("all")
		ctrl.Flags.Override = c.Bool("override")
		ctrl.Flags.Clean = c.Bool("clean")
		ctrl.Flags.NoJSON = c.Bool("no-json")
		ctrl.Flags.NoMsgPack = c.Bool("no-msgpack")
		ctrl.Flags.Targets = nil
		for _, name := range targetNames {
			if c.Bool(name) {
				ctrl.Flags.Targets = append(ctrl.Flags.Targets, name)
			}
		}
	}

	app := &cli.Command{
		Name:    "crosspacket",
		Usage:   "Cross-platform data packet generator: one schema, nine targets, JSON + MessagePack.",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create a starter packet schema document",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx)
				},
			},
			{
				Name:  "generate",
				Usage: "Generate packet code for the selected targets",
				Flags: generateFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					readFlags(c)
					return ctrl.Generate(ctx)
				},
			},
			{
				Name:  "watch",
				Usage: "Regenerate whenever the schema document changes",
				Flags: generateFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					readFlags(c)
					return ctrl.Watch(ctx)
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run crosspacket")
	}
}
