package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/desertthunder/spotwidget/internal/services"
	"github.com/desertthunder/spotwidget/internal/shared"
	"github.com/desertthunder/spotwidget/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web widget until interrupted.
//
// The redirect URI should point at this server so the browser returns to the widget after login.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := r.config.Server.Host
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	port := r.config.Server.Port
	if cmd.IsSet("port") {
		port = int(cmd.Int("port"))
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	if err := r.config.Validate(); err != nil && !r.session.Authenticated() {
		return err
	}

	srv, err := r.newWidget(addr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	widgetURL := fmt.Sprintf("http://%s/", addr)
	r.writeSuccess("Widget running at %s", widgetURL)
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(widgetURL); err != nil {
			r.writeWarning("Could not open browser: %v", err)
		}
	}

	return srv.Run(ctx, addr)
}

// newWidget builds the web widget for addr, finishing logins on the path of the configured redirect URI.
func (r *Runner) newWidget(addr string) (*web.Server, error) {
	redirectPath := "/callback"
	if u, err := url.Parse(r.config.Credentials.Spotify.RedirectURI); err == nil && u.Host != "" {
		redirectPath = services.RedirectPath(u)
		if u.Host != addr {
			r.logger.Warn("redirect_uri does not point at this server; logins will not come back here",
				"redirect_uri", r.config.Credentials.Spotify.RedirectURI, "addr", addr)
		}
	}

	return web.New(web.Opts{
		Auth:         r.auth,
		Service:      r.service,
		RedirectPath: redirectPath,
		Logger:       shared.WithLogger(r.logger, "component", "web"),
	})
}
