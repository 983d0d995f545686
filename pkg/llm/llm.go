// Package llm talks to chat-completion backends. Every call is a single
// attempt; callers decide what a failure means.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/garnizeh/bidwright/internal/config"
)

// ErrMissingAPIKey is returned before any network call when the provider
// needs a credential and none is configured.
var ErrMissingAPIKey = errors.New("llm: API key not configured")

// ChatRequest is one system + user exchange.
type ChatRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Completer returns the assistant text for a ChatRequest.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	Close() error
}

// package-level logger for pkg/llm; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/llm. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// New builds the Completer selected by cfg.Provider.
func New(cfg config.CompletionConfig) (Completer, error) {
	httpClient := newHTTPClient(cfg.Timeout)

	switch cfg.Provider {
	case "", config.ProviderOpenAI:
		return NewOpenAIClient(cfg, httpClient)
	case config.ProviderOllama:
		return NewOllamaClient(cfg, httpClient)
	}

	return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// closer releases idle connections of an http.Client once.
type closer struct {
	client *http.Client
	closed int32
}

func (c *closer) close(name string) error {
	if c == nil || !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if c.client != nil && c.client.Transport != nil {
		if tr, ok := c.client.Transport.(interface{ CloseIdleConnections() }); ok {
			tr.CloseIdleConnections()
			logger.Debug("llm: idle connections closed", slog.String("provider", name))
		}
	}
	return nil
}
