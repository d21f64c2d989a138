package preflight

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"tunely/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

type check struct {
	applies func(*config.Config) bool
	run     func(context.Context, *config.Config) Result
}

func always(*config.Config) bool { return true }

func directory(name string, path func(*config.Config) string) check {
	return check{
		applies: always,
		run: func(_ context.Context, cfg *config.Config) Result {
			return CheckDirectoryAccess(name, path(cfg))
		},
	}
}

// checks lists every preflight in report order. Optional features are only
// checked when configured.
var checks = []check{
	directory("Upload directory", func(c *config.Config) string { return c.Paths.UploadDir }),
	directory("Output directory", func(c *config.Config) string { return c.Paths.OutputDir }),
	directory("State directory", func(c *config.Config) string { return c.Paths.StateDir }),
	directory("Log directory", func(c *config.Config) string { return c.Paths.LogDir }),
	{
		applies: func(c *config.Config) bool { return strings.TrimSpace(c.Paths.BackgroundVideo) != "" },
		run: func(_ context.Context, c *config.Config) Result {
			return CheckBackgroundFile(c.Paths.BackgroundVideo)
		},
	},
	{
		applies: func(c *config.Config) bool { return c.Diarizer.Enabled },
		run: func(_ context.Context, c *config.Config) Result {
			return CheckDiarizationFromConfig(c)
		},
	},
	{
		applies: func(c *config.Config) bool { return c.Storage.Enabled },
		run:     CheckStorageFromConfig,
	},
}

// RunAll executes the applicable checks concurrently and returns their
// results in a stable order.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var selected []check
	for _, c := range checks {
		if c.applies(cfg) {
			selected = append(selected, c)
		}
	}

	results := make([]Result, len(selected))
	var g errgroup.Group
	for i, c := range selected {
		g.Go(func() error {
			results[i] = c.run(ctx, cfg)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
