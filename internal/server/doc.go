// Package server provides HTTP routing, middleware, and the login callback handler for the CLI and web widget.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering. Several methods may
// share a path, and path wildcards such as /api/player/{action} are available through [http.Request.PathValue].
//
// # Middleware
//
//   - [RequestID] : assigns each request a uuid, echoed in the X-Request-ID header
//   - [RequestLogger] : logs method, path, status, and duration with charmbracelet/log
//   - [Recoverer] : turns a handler panic into a 500
//
// # Login Callback Handler
//
// [CallbackHandler] serves the redirect URI while a CLI login is in progress. It hands the request URL to a
// [Redirector] (the services.Authenticator), answers the browser with a small HTML page, and delivers one
// [OAuthResult] on a channel. Only the first callback is processed; a code is single-use.
//
// # Listening
//
// [Listen] binds the address before returning so port conflicts surface immediately, then serves in the
// background. [Shutdown] stops it with a bounded grace period.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
