package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotwidget/internal/services"
	"github.com/desertthunder/spotwidget/internal/shared"
	"github.com/desertthunder/spotwidget/internal/store"
	"github.com/desertthunder/spotwidget/internal/tasks"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	store      store.Store
	db         *sql.DB
	session    *services.Session
	auth       *services.Authenticator
	spotify    *services.SpotifyService
	service    services.Service
	ctl        *tasks.Controller
	navigator  services.Navigator
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	// injected marks dependencies supplied through [RunnerOpts] that [Runner.Configure] must keep.
	injectedStore   bool
	injectedService bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	// Store keeps the PKCE verifier. Defaults to an in-memory store until [Runner.Configure] opens the configured backend.
	Store store.Store
	// Service overrides the Spotify service player commands run against.
	Service    services.Service
	Navigator  services.Navigator
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:          opts.Config,
		configPath:      opts.ConfigPath,
		store:           opts.Store,
		service:         opts.Service,
		navigator:       opts.Navigator,
		httpClient:      opts.HTTPClient,
		logger:          opts.Logger,
		output:          opts.Output,
		injectedStore:   opts.Store != nil,
		injectedService: opts.Service != nil,
	}
	if r.store == nil {
		r.store = store.NewMemoryStore()
	}
	if r.navigator == nil {
		r.navigator = services.BrowserNavigator{Out: r.output, Logger: r.logger}
	}
	r.wire()
	return r
}

// wire builds the session, authenticator and services from the current config and store.
func (r *Runner) wire() {
	sp := r.config.Credentials.Spotify
	r.session = services.NewSession(sp.APIBaseURL, r.httpClient)
	r.auth = services.NewAuthenticator(services.AuthenticatorOpts{
		Config:      sp,
		Store:       r.store,
		VerifierKey: r.config.Store.Key,
		Session:     r.session,
		HTTPClient:  r.httpClient,
		Logger:      r.logger,
	})
	r.spotify = services.NewSpotifyService(r.session, r.logger)
	if !r.injectedService {
		r.service = r.spotify
	}
	r.ctl = tasks.NewController(r.service)
}

// Configure resolves the config file and environment, opens the configured verifier store and rewires the runner.
//
// Registered as the root command's Before hook.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	config, err := shared.ResolveConfig(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = config

	level := config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	if !r.injectedStore {
		st, err := r.openStore(ctx)
		if err != nil {
			return ctx, err
		}
		r.store = st
	}
	r.wire()

	if token := cmd.String("access-token"); token != "" {
		r.session.SetToken(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		r.logger.Debug("using access token from flag or environment")
	}

	return ctx, nil
}

// openStore opens the verifier store named in the config. The sqlite backend opens and migrates the database first.
func (r *Runner) openStore(ctx context.Context) (store.Store, error) {
	if r.config.Store.Backend == store.BackendSQLite {
		db, err := r.openDatabase(ctx)
		if err != nil {
			return nil, err
		}
		r.db = db
	}

	st, err := store.Open(r.config.Store, r.db)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("verifier store ready", "backend", r.config.Store.Backend)
	return st, nil
}

func (r *Runner) openDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	applied, err := shared.MigrateUp(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, m := range applied {
		r.logger.Debug("applied migration", "version", m.Version, "name", m.Name)
	}
	return db, nil
}

// Close releases the database and store connections opened by [Runner.Configure].
func (r *Runner) Close() error {
	if c, ok := r.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			r.logger.Warn("failed to close store", "error", err)
		}
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SetLogger replaces the logger used by the runner and the services it wires.
func (r *Runner) SetLogger(logger *log.Logger) {
	token := r.session.Token()
	r.logger = logger
	r.wire()
	if token != nil {
		r.session.SetToken(token)
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playerCommand, searchCommand, apiCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

func (r *Runner) writeSuccess(format string, args ...any) error {
	return r.writePlain("%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

func (r *Runner) writeWarning(format string, args ...any) error {
	return r.writePlain("%s %s\n", color.YellowString("⚠"), fmt.Sprintf(format, args...))
}
