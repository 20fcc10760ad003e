package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reallyoldfogie/fortnite-replay-go/replay/batch"
)

func main() {
	var verbose, quiet bool
	var jobs int

	cmd := &cobra.Command{
		Use:          "replay-validate <file.replay> [file2.replay ...]",
		Short:        "Validate Fortnite replay files",
		Long:         "Decodes every replay and reports whether it is usable for analysis.",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return run(ctx, args, jobs, newLogger(verbose, quiet), quiet)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Files decoded in parallel (default: number of CPUs)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose, quiet bool) zerolog.Logger {
	if quiet {
		return zerolog.Nop()
	}
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func run(ctx context.Context, files []string, jobs int, logger zerolog.Logger, quiet bool) error {
	results := batch.DecodeFiles(ctx, files, batch.Options{
		Jobs:     jobs,
		Logger:   &logger,
		Validate: true,
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "❌ %s: %v\n", filepath.Base(r.Path), r.Err)
			failed++
			continue
		}
		if !quiet {
			fmt.Printf("✅ %s: valid (%d eliminations)\n", filepath.Base(r.Path), len(r.Replay.Eliminations))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d replay files are invalid", failed, len(files))
	}
	if !quiet && len(files) > 1 {
		fmt.Printf("\nAll %d replay files are valid!\n", len(files))
	}
	return nil
}
