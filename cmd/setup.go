package main

import (
	"context"

	"github.com/desertthunder/spotwidget/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writeSuccess("Config written to %s", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Register an app at https://developer.spotify.com/dashboard with redirect URI %s\n", r.config.Credentials.Spotify.RedirectURI)
	r.writePlain("2. Set credentials.spotify.client_id (or SPOTWIDGET_SPOTIFY_CLIENT_ID)\n")
	r.writePlain("3. Run 'spotwidget auth login'\n")
	return nil
}

// SetupDatabase initializes the database used by the sqlite verifier store and runs migrations.
//
// --reset rolls every migration back and applies it again, dropping a verifier left by an abandoned login.
// --status lists each migration and whether it is applied.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("reset") {
		if err := shared.ResetDatabase(ctx, db); err != nil {
			return err
		}
		r.logger.Info("database reset", "path", r.config.Database.Path)
		r.writeWarning("Stored values discarded")
	}

	if cmd.Bool("status") {
		statuses, err := shared.MigrationStatuses(ctx, db)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			mark := "pending"
			if s.Applied {
				mark = "applied"
			}
			r.writePlain("%04d  %-20s %s\n", s.Version, s.Name, mark)
		}
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writeSuccess("Database ready at %s", r.config.Database.Path)
}
