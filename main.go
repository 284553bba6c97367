package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/xeptore/soundbridge/config"
	"github.com/xeptore/soundbridge/constant"
	"github.com/xeptore/soundbridge/log"
	"github.com/xeptore/soundbridge/soundcloud"
	"github.com/xeptore/soundbridge/soundcloud/types"
)

func main() {
	logger := log.NewDefault()

	//nolint:exhaustruct
	app := &cli.Command{
		Name:    "soundbridge",
		Version: constant.Version,
		Metadata: map[string]any{
			"compiled_at": constant.CompileTime,
		},
		Suggest:                    true,
		Usage:                      "SoundCloud catalog bridge for media-playback hosts",
		EnableShellCompletion:      true,
		ShellCompletionCommandName: "shell-completion",
		AllowExtFlags:              false,
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:     "config",
				Usage:    "Config file path",
				Required: false,
			},
		},
		Commands: []*cli.Command{
			//nolint:exhaustruct
			{
				Name:   "browse",
				Usage:  "Fetch one menu page of the catalog",
				Action: browseRun,
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.StringFlag{Name: "type", Usage: "Browse type (tracks, playlists, favorites, tags, friends, friend, activities)"},
					//nolint:exhaustruct
					&cli.UintFlag{Name: "offset", Usage: "Page offset"},
					//nolint:exhaustruct
					&cli.UintFlag{Name: "limit", Usage: "Page limit", Value: 50},
					//nolint:exhaustruct
					&cli.StringFlag{Name: "search", Usage: "Search text"},
					//nolint:exhaustruct
					&cli.StringFlag{Name: "user", Usage: "Scope to a user id"},
					//nolint:exhaustruct
					&cli.StringFlag{Name: "playlist", Usage: "Expand a playlist id"},
				},
			},
			//nolint:exhaustruct
			{
				Name:      "play",
				Usage:     "Resolve a play URI into a streamable CDN URL",
				Action:    playRun,
				ArgsUsage: "<track-uri>",
			},
			//nolint:exhaustruct
			{
				Name:      "resolve",
				Usage:     "Resolve a pasted catalog web link into menu entries",
				Action:    resolveRun,
				ArgsUsage: "<url>",
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			os.Exit(1)
		}

		logger.Error().Err(err).Msg("Application exited with error")
		os.Exit(10)
	}
}

func setup(cmd *cli.Command) (zerolog.Logger, *soundcloud.Client, error) {
	logger := log.NewDefault()

	if err := godotenv.Load(); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return logger, nil, fmt.Errorf("load .env file: %v", err)
		}
		logger.Debug().Msg(".env file was not found")
	} else {
		logger.Debug().Msg(".env file was loaded")
	}

	conf, err := config.Load(cmd.String("config"))
	if nil != err {
		return logger, nil, fmt.Errorf("load config: %v", err)
	}

	logger = log.FromConfig(conf.Log)

	logger.Debug().Dict("config", conf.ToDict()).Msg("Config loaded")

	return logger, soundcloud.NewClient(logger, *conf), nil
}

func browseRun(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, client, err := setup(cmd)
	if nil != err {
		return err
	}

	kind, ok := types.BrowseKindFromString(cmd.String("type"))
	if !ok {
		return fmt.Errorf("unknown browse type: %s", cmd.String("type"))
	}

	//nolint:exhaustruct
	req := types.BrowseRequest{
		Kind:       kind,
		Offset:     uint(cmd.Uint("offset")),
		Limit:      uint(cmd.Uint("limit")),
		Search:     cmd.String("search"),
		UserID:     cmd.String("user"),
		PlaylistID: cmd.String("playlist"),
	}

	page, err := client.Browse(ctx, req)
	if nil != err {
		logger.Error().Err(err).Msg("Browse failed")
	}
	renderPage(page)

	return nil
}

func playRun(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, client, err := setup(cmd)
	if nil != err {
		return err
	}

	uri := cmd.Args().First()
	if uri == "" {
		return errors.New("a track uri argument is required")
	}

	resolved, err := client.ResolvePlayback(ctx, uri)
	if nil != err {
		return fmt.Errorf("resolve playback: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendRows([]table.Row{
		{"Stream URL", resolved.StreamURL},
		{"Title", resolved.Meta.Title},
		{"Artist", resolved.Meta.Artist},
		{"Duration", strconv.FormatInt(resolved.Meta.DurationSeconds, 10) + "s"},
		{"Bitrate", resolved.Meta.Bitrate},
		{"Format", resolved.Meta.Format},
	})
	t.Render()

	return nil
}

func resolveRun(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, client, err := setup(cmd)
	if nil != err {
		return err
	}

	input := cmd.Args().First()
	if input == "" {
		return errors.New("a catalog url argument is required")
	}

	page, err := client.ResolveCatalogURL(ctx, input)
	if nil != err {
		logger.Error().Err(err).Msg("Resolve failed")
	}
	renderPage(page)

	return nil
}

func renderPage(page *types.Page) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Name", "Kind", "Play URI"})
	for i, e := range page.Items {
		t.AppendRow(table.Row{page.Offset + uint(i), e.Name, e.Kind.String(), e.PlayURI})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("total ~%d", page.Total), "", ""})
	t.Render()
}
