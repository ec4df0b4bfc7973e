// Package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spotwidget/internal/models"
)

// MockService is a test double for services.Service. It records every call by name.
type MockService struct {
	mu sync.Mutex

	Playback *models.Playback
	Tracks   []models.Track
	Err      error

	Calls []string
	// LastURI, LastRepeat and LastShuffle hold the arguments of the most recent calls.
	LastURI     string
	LastRepeat  string
	LastShuffle bool
	LastQuery   string
}

func (m *MockService) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

// Called returns a copy of the recorded call names.
func (m *MockService) Called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

func (m *MockService) CurrentPlayback(ctx context.Context) (*models.Playback, error) {
	m.record("CurrentPlayback")
	return m.Playback, m.Err
}

func (m *MockService) Play(ctx context.Context, uri string) error {
	m.record("Play")
	m.mu.Lock()
	m.LastURI = uri
	m.mu.Unlock()
	return m.Err
}

func (m *MockService) Pause(ctx context.Context) error {
	m.record("Pause")
	return m.Err
}

func (m *MockService) Next(ctx context.Context) error {
	m.record("Next")
	return m.Err
}

func (m *MockService) Previous(ctx context.Context) error {
	m.record("Previous")
	return m.Err
}

func (m *MockService) Repeat(ctx context.Context, mode string) error {
	m.record("Repeat")
	m.mu.Lock()
	m.LastRepeat = mode
	m.mu.Unlock()
	return m.Err
}

func (m *MockService) Shuffle(ctx context.Context, on bool) error {
	m.record("Shuffle")
	m.mu.Lock()
	m.LastShuffle = on
	m.mu.Unlock()
	return m.Err
}

func (m *MockService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	m.record("SearchTracks")
	m.mu.Lock()
	m.LastQuery = query
	m.mu.Unlock()
	return m.Tracks, m.Err
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing and keeps every request it sees.
type MockRoundTripper struct {
	mu       sync.Mutex
	response *http.Response
	err      error
	Requests []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	return m.response, m.err
}

// Count returns how many requests were made.
func (m *MockRoundTripper) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
