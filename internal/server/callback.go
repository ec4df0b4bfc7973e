package server

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotwidget/internal/shared"
)

// Redirector handles the URL the identity provider redirected the browser to.
type Redirector interface {
	HandleRedirect(ctx context.Context, u *url.URL) (bool, error)
}

// OAuthResult contains the result of a login callback.
type OAuthResult struct {
	err error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// CallbackHandler serves the redirect URI for the CLI login.
// Implements the Handler interface for registration with a Router.
type CallbackHandler struct {
	auth        Redirector
	path        string
	logger      *log.Logger
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler for path, usually the path of the configured redirect URI.
// An empty path is the root, as for a redirect URI like http://127.0.0.1:3000.
func NewCallbackHandler(auth Redirector, path string, logger *log.Logger) *CallbackHandler {
	if path == "" {
		path = "/"
	}
	return &CallbackHandler{
		auth:       auth,
		path:       path,
		logger:     logger,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
//
// The root path matches only "/" itself so stray requests (favicon.ico) don't consume the callback.
func (h *CallbackHandler) Routes() []string {
	if h.path == "/" {
		return []string{"/{$}"}
	}
	return []string{h.path}
}

// ServeHTTP handles the callback request.
//
// The first request is handed to the [Redirector]; later ones are rejected.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	attempted, err := h.auth.HandleRedirect(r.Context(), r.URL)
	if err == nil && !attempted {
		err = fmt.Errorf("%w: callback carried no authorization code", shared.ErrAuthFailed)
	}

	if err != nil {
		h.logger.Error("login callback failed", "error", err)
		h.Send(OAuthResult{err: err})
		writeCallbackPage(w, http.StatusBadRequest, "Authorization Failed", err.Error())
		return
	}

	h.Send(OAuthResult{})
	writeCallbackPage(w, http.StatusOK, "✓ Authorization Successful", "You can close this window and return to the terminal.")
}

// Send sends the result through the channel (only once).
func (h *CallbackHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving login completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

func writeCallbackPage(w http.ResponseWriter, status int, title, message string) {
	color := "#1DB954"
	if status >= 400 {
		color = "#E22134"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>%[1]s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .container { text-align: center; background: #181818; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.4); }
        h1 { color: %[3]s; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
    </div>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(message), color)
}
