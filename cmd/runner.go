package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"lidarrify/internal/shared"
	"lidarrify/internal/tasks"
)

var bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{runCommand(r)}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBanner(title string) {
	r.writePlain("%s\n", bannerStyle.Render("═══════════════════════════════════════"))
	r.writePlain("%s\n", bannerStyle.Render(title))
	r.writePlain("%s\n", bannerStyle.Render("═══════════════════════════════════════"))
}

func (r *Runner) writeSummary(result *tasks.RunResult) {
	r.writePlain("\n")
	r.writeBanner("Lookup Complete")
	r.writePlain("Mode: %s\n", result.Mode)
	r.writePlain("Processed: %d items\n", result.Total)
	r.writePlain("Found: %d (cache hits: %d)\n", result.Found, result.CacheHits)
	r.writePlain("Not found: %d\n", result.NotFound)

	if len(result.Unmatched) > 0 {
		r.writePlain("\nUnmatched this run:\n")
		for _, item := range result.Unmatched {
			r.writePlain("  - %s\n", item.String())
		}
	}
}
