package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/garnizeh/bidwright/internal/config"
)

// OllamaClient runs completions against a local Ollama instance.
type OllamaClient struct {
	api *api.Client
	closer
}

func NewOllamaClient(cfg config.CompletionConfig, httpClient *http.Client) (*OllamaClient, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	base := cfg.BaseURL
	if base == "" {
		base = "http://localhost:11434"
	}
	u, err := url.ParseRequestURI(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	logger.Info("llm: ollama client created", slog.String("base_url", base), slog.Duration("timeout", cfg.Timeout))
	return &OllamaClient{
		api:    api.NewClient(u, httpClient),
		closer: closer{client: httpClient},
	}, nil
}

func (c *OllamaClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	var messages []api.Message
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, api.Message{Role: "user", Content: req.Prompt})

	stream := false
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	start := time.Now()
	var sb strings.Builder
	err := c.api.Chat(ctx, chatReq, func(r api.ChatResponse) error {
		sb.WriteString(r.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat failed: %w", err)
	}

	logger.Info("llm: ollama completion",
		slog.String("model", req.Model),
		slog.Duration("latency", time.Since(start)),
		slog.Int("response_len", sb.Len()))

	return sb.String(), nil
}

func (c *OllamaClient) Close() error {
	return c.close(config.ProviderOllama)
}
