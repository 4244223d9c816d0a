package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"lidarrify/internal/library"
	"lidarrify/internal/musicbrainz"
	"lidarrify/internal/repositories"
	"lidarrify/internal/resolver"
	"lidarrify/internal/shared"
	"lidarrify/internal/store"
	"lidarrify/internal/tasks"
)

// RunTracks performs an initial or recheck pass in track mode.
func (r *Runner) RunTracks(ctx context.Context, cmd *cli.Command) error {
	return r.runLookup(ctx, cmd, library.ModeTracks)
}

// RunAlbums performs an initial or recheck pass in album mode.
func (r *Runner) RunAlbums(ctx context.Context, cmd *cli.Command) error {
	return r.runLookup(ctx, cmd, library.ModeAlbums)
}

// runLookup wires the store, cache, client, and engine for one run and
// dispatches on --recheck.
//
// Initial mode expects <libraryXml> <foundJson> <notFoundJson>; recheck mode
// expects <foundJson> <notFoundJson>. Completing with unmatched items is still
// a successful run; only the fatal taxonomy (unreadable export, corrupt store,
// unwritable output) surfaces as an error and a non-zero exit.
func (r *Runner) runLookup(ctx context.Context, cmd *cli.Command, mode library.Mode) error {
	config := r.config
	if path := cmd.String("config"); path != "" {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		config = loaded
	}

	recheck := cmd.Bool("recheck")
	args := cmd.Args().Slice()

	var libraryPath, foundPath, notFoundPath string
	switch {
	case recheck && len(args) == 2:
		foundPath, notFoundPath = args[0], args[1]
	case !recheck && len(args) == 3:
		libraryPath, foundPath, notFoundPath = args[0], args[1], args[2]
	case recheck:
		return fmt.Errorf("%w: recheck needs <foundJson> <notFoundJson>", shared.ErrMissingArgument)
	default:
		return fmt.Errorf("%w: need <libraryXml> <foundJson> <notFoundJson>", shared.ErrMissingArgument)
	}

	st, err := store.Open(mode, foundPath, notFoundPath)
	if err != nil {
		return err
	}

	var cache resolver.Cache
	if config.Cache.Enabled && !cmd.Bool("no-cache") {
		lc, err := repositories.OpenLookupCache(config.Cache.Path)
		if err != nil {
			r.logger.Warn("continuing without lookup cache", "err", err)
		} else {
			defer lc.Close()
			cache = lc
		}
	}

	requestRate := cmd.Float("rate")
	if requestRate <= 0 {
		requestRate = config.MusicBrainz.RateLimit
	}
	if requestRate <= 0 {
		requestRate = 1
	}
	limiter := rate.NewLimiter(rate.Limit(requestRate), 1)

	client := musicbrainz.NewClient(
		config.MusicBrainz.BaseURL,
		config.MusicBrainz.UserAgent,
		time.Duration(config.MusicBrainz.TimeoutSeconds)*time.Second,
	)
	res := resolver.New(client, cache, limiter, r.logger)
	engine := tasks.NewEngine(res, r.logger, true)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("%s\n", update.Message)
		}
	}()

	var result *tasks.RunResult
	if recheck {
		result, err = engine.RunRecheck(ctx, progressCh, st)
	} else {
		result, err = engine.RunInitial(ctx, progressCh, libraryPath, st)
	}
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writeSummary(result)
	return nil
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "recheck",
			Usage: "Re-query only the not-found set and merge new matches",
		},
		&cli.FloatFlag{
			Name:  "rate",
			Usage: "Override the request rate limit (requests per second)",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Skip the local lookup cache for this run",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
		},
	}
}

// runCommand handles the lookup runs: tracks at the top level, albums as a subcommand.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Resolve library tracks to MusicBrainz recording IDs",
		ArgsUsage: "<libraryXml> <foundJson> <notFoundJson> (with --recheck: <foundJson> <notFoundJson>)",
		Flags:     runFlags(),
		Action:    r.RunTracks,
		Commands: []*cli.Command{
			{
				Name:      "albums",
				Usage:     "Resolve library albums to MusicBrainz release-group IDs",
				ArgsUsage: "<libraryXml> <albumsJson> <albumsNotFoundJson> (with --recheck: <albumsJson> <albumsNotFoundJson>)",
				Flags:     runFlags(),
				Action:    r.RunAlbums,
			},
		},
	}
}
