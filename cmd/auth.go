package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/desertthunder/spotwidget/internal/server"
	"github.com/desertthunder/spotwidget/internal/services"
	"github.com/desertthunder/spotwidget/internal/shared"
	"github.com/urfave/cli/v3"
)

// LoginTimeout bounds how long the CLI waits for the browser to come back to the redirect URI.
const LoginTimeout = 2 * time.Minute

// AuthLogin runs the PKCE login and confirms the token by fetching the user's profile.
//
// The token only lives in this process. Use serve or tui to keep a session open.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.doOAuth(ctx); err != nil {
		return err
	}

	user, err := r.spotify.UserProfile(ctx)
	if err != nil {
		return err
	}

	r.writeSuccess("Logged in as %s (%s)", user.DisplayName, user.ID)
	r.writePlain("The access token is held in memory and is discarded when this command exits.\n")
	return nil
}

// AuthWhoami prints the profile of the user the token belongs to.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuth(ctx); err != nil {
		return err
	}

	user, err := r.spotify.UserProfile(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlainHeader(user.DisplayName)
	r.writePlain("ID:       %s\n", user.ID)
	if user.Email != "" {
		r.writePlain("Email:    %s\n", user.Email)
	}
	if user.Country != "" {
		r.writePlain("Country:  %s\n", user.Country)
	}
	if user.Product != "" {
		r.writePlain("Product:  %s\n", user.Product)
	}
	return nil
}

// ensureAuth logs in unless the session already holds a token (from --access-token or an earlier login).
func (r *Runner) ensureAuth(ctx context.Context) error {
	if r.session.Authenticated() {
		return nil
	}
	return r.doOAuth(ctx)
}

// doOAuth runs the authorization code flow with a local HTTP server listening on the redirect URI.
func (r *Runner) doOAuth(ctx context.Context) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	redirect, err := url.Parse(r.config.Credentials.Spotify.RedirectURI)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: redirect_uri %q is not an absolute URL", shared.ErrInvalidConfig, r.config.Credentials.Spotify.RedirectURI)
	}

	addr := redirect.Host
	if redirect.Port() == "" {
		addr = net.JoinHostPort(redirect.Hostname(), "80")
	}

	path := services.RedirectPath(redirect)
	logger := shared.WithLogger(r.logger, "component", "callback")
	callback := server.NewCallbackHandler(r.auth, path, logger)
	router := server.NewBasicRouter()
	router.Use(server.RequestID(), server.RequestLogger(logger), server.Recoverer(logger))
	router.Handler(callback)

	srv, bound, err := server.Listen(addr, router, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := server.Shutdown(srv); err != nil {
			r.logger.Warn("error shutting down callback server", "error", err)
		}
	}()
	r.logger.Info("waiting for login callback", "addr", bound.String(), "path", path)

	r.writePlain("→ Opening browser for Spotify login...\n")
	if err := r.auth.BeginLogin(ctx, r.navigator); err != nil {
		return err
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", LoginTimeout)

	timeout := time.NewTimer(LoginTimeout)
	defer timeout.Stop()

	select {
	case result := <-callback.Result():
		if err := result.Error(); err != nil {
			return err
		}
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, LoginTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	r.writeSuccess("Authorization successful")
	return nil
}
