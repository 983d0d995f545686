// Package bidgen drafts bids and edit suggestions with a chat-completion model.
package bidgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/garnizeh/bidwright/internal/extract"
	"github.com/garnizeh/bidwright/internal/models"
	"github.com/garnizeh/bidwright/internal/prompt"
	"github.com/garnizeh/bidwright/pkg/llm"
)

var (
	// ErrUpstream wraps transport and API failures of the completion backend.
	ErrUpstream = errors.New("completion request failed")
	// ErrDocument wraps uploads that could not be turned into text.
	ErrDocument = errors.New("unreadable document")
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Config holds the completion parameters applied to every request.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	MaxExcerpt  int
}

// Request is a validated generate_bid submission.
type Request struct {
	UserID      int64
	CompanyName string
	Fields      prompt.Fields
	Documents   []extract.Document
}

type Engine struct {
	client llm.Completer
	cfg    Config
	read   extract.ReaderFunc
	now    func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithReader replaces the PDF text reader.
func WithReader(r extract.ReaderFunc) Option {
	return func(e *Engine) { e.read = r }
}

// WithClock replaces time.Now for created-at stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(client llm.Completer, cfg Config, opts ...Option) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.MaxExcerpt <= 0 {
		cfg.MaxExcerpt = 2000
	}

	e := &Engine{client: client, cfg: cfg, read: extract.PDFText, now: time.Now}
	for _, o := range opts {
		o(e)
	}

	return e, nil
}

// Generate drafts a bid for req. The result is not persisted.
func (e *Engine) Generate(ctx context.Context, req Request) (*models.Bid, error) {
	excerpts, err := extract.ExtractAll(ctx, req.Documents, e.cfg.MaxExcerpt, e.read)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocument, err)
	}

	p, err := prompt.Build(req.Fields, excerpts)
	if err != nil {
		return nil, err
	}

	out, err := e.complete(ctx, p)
	if err != nil {
		return nil, err
	}

	gb, err := ParseBid(out)
	if err != nil {
		logger.Warn("bidgen: parse failed", "user_id", req.UserID, "err", err, "raw", out)
		return nil, err
	}

	bid := &models.Bid{
		UserID:            req.UserID,
		CompanyName:       req.CompanyName,
		ProjectName:       gb.ProjectName,
		Location:          gb.Location,
		Timeframe:         gb.Timeframe,
		Description:       gb.Description,
		ProjectType:       req.Fields.ProjectType,
		ConstructionField: req.Fields.ConstructionField,
		LineItems:         gb.LineItems,
		Status:            models.StatusPending,
		CreatedAt:         e.now().UTC(),
	}
	if bid.CompanyName == "" {
		bid.CompanyName = req.Fields.CompanyLocation
	}
	if bid.Location == "" {
		bid.Location = req.Fields.ProjectAddress
	}

	logger.Info("bidgen: bid drafted", "user_id", req.UserID, "line_items", len(bid.LineItems), "documents", len(req.Documents))
	return bid, nil
}

// SuggestEdit asks the model how bid could be changed to satisfy message.
// The suggestion is plain text and is never applied to the bid.
func (e *Engine) SuggestEdit(ctx context.Context, bid models.Bid, message string) (string, error) {
	p, err := prompt.EditSuggestion(bid, message)
	if err != nil {
		return "", err
	}

	out, err := e.complete(ctx, p)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

func (e *Engine) complete(ctx context.Context, p string) (string, error) {
	out, err := e.client.Complete(ctx, llm.ChatRequest{
		Model:       e.cfg.Model,
		System:      prompt.SystemPrompt,
		Prompt:      p,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err != nil {
		logger.Error("bidgen: completion failed", "model", e.cfg.Model, "err", err)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return out, nil
}
