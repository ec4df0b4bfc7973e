// Command definitions for the spotwidget CLI.

package main

import (
	"github.com/desertthunder/spotwidget/internal/formatter"
	"github.com/urfave/cli/v3"
)

// rootFlags are read by [Runner.Configure] before any subcommand runs.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("SPOTWIDGET_CONFIG"),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:    "access-token",
			Usage:   "Use this access token instead of logging in",
			Sources: cli.EnvVars("SPOTWIDGET_ACCESS_TOKEN"),
		},
	}
}

// jsonFlag returns a new --json flag for each command.
func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output playback as JSON"}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the verifier database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "status",
						Usage: "List migrations and whether each is applied",
					},
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Roll back and reapply every migration, discarding stored values",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Log in with Spotify",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Run the PKCE login in the browser and check the token",
				Action: r.AuthLogin,
			},
			{
				Name:  "whoami",
				Usage: "Show the profile of the logged-in user",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthWhoami,
			},
		},
	}
}

// playerCommand handles playback control
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"p"},
		Usage:   "Show and control playback",
		Commands: []*cli.Command{
			{
				Name:   "now",
				Usage:  "Show the current track",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PlayerNow,
			},
			{
				Name:  "play",
				Usage: "Resume playback, or play a track by URI, link or ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PlayerPlay,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PlayerAction,
			},
			{
				Name:   "toggle",
				Usage:  "Play or pause depending on the current state",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PlayerAction,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PlayerAction,
			},
			{
				Name:    "previous",
				Aliases: []string{"prev"},
				Usage:   "Go back to the previous track",
				Flags:   []cli.Flag{jsonFlag()},
				Action:  r.PlayerAction,
			},
			{
				Name:  "repeat",
				Usage: "Set the repeat mode (off, context, track)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "mode"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PlayerRepeat,
			},
			{
				Name:  "shuffle",
				Usage: "Turn shuffle on or off",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "state"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PlayerShuffle,
			},
		},
	}
}

// searchCommand searches the catalog for tracks
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of tracks to return (1-50)",
				Value: 20,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, csv, markdown, json)",
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write results to this file instead of stdout",
			},
		},
		Action: r.Search,
	}
}

// apiCommand handles direct Web API calls
func apiCommand(r *Runner) *cli.Command {
	endpointArg := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "endpoint"}}
	}
	queryFlags := func(extra ...cli.Flag) []cli.Flag {
		return append([]cli.Flag{
			&cli.StringFlag{
				Name:  "jq",
				Usage: "Filter the JSON response with a jq expression",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		}, extra...)
	}
	dataFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "JSON body to send",
		}
	}

	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the Spotify Web API, relative to the API base URL",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET an endpoint, e.g. me/player",
				Arguments: endpointArg(),
				Flags:     queryFlags(),
				Action:    r.APIRequest,
			},
			{
				Name:      "put",
				Usage:     "PUT with an optional JSON body",
				Arguments: endpointArg(),
				Flags:     queryFlags(dataFlag()),
				Action:    r.APIRequest,
			},
			{
				Name:      "post",
				Usage:     "POST with an optional JSON body",
				Arguments: endpointArg(),
				Flags:     queryFlags(dataFlag()),
				Action:    r.APIRequest,
			},
			{
				Name:      "delete",
				Usage:     "DELETE an endpoint",
				Arguments: endpointArg(),
				Flags:     queryFlags(dataFlag()),
				Action:    r.APIRequest,
			},
		},
	}
}

// serveCommand runs the web widget
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web widget on the configured host and port",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the widget in the browser once listening",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the terminal widget.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the terminal now-playing widget",
		Action:  r.TUI,
	}
}
