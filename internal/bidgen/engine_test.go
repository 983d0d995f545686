package bidgen_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/garnizeh/bidwright/internal/bidgen"
	"github.com/garnizeh/bidwright/internal/extract"
	"github.com/garnizeh/bidwright/internal/models"
	"github.com/garnizeh/bidwright/internal/prompt"
	"github.com/garnizeh/bidwright/pkg/llm"
)

// fakeCompleter records requests and replies with a canned answer.
type fakeCompleter struct {
	out  string
	err  error
	reqs []llm.ChatRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.out, f.err
}

func (f *fakeCompleter) Close() error { return nil }

var _ llm.Completer = (*fakeCompleter)(nil)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, fc *fakeCompleter, opts ...bidgen.Option) *bidgen.Engine {
	t.Helper()
	opts = append([]bidgen.Option{bidgen.WithClock(func() time.Time { return fixedNow })}, opts...)
	e, err := bidgen.NewEngine(fc, bidgen.Config{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 1000}, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestNewEngine_Validates(t *testing.T) {
	if _, err := bidgen.NewEngine(nil, bidgen.Config{Model: "m"}); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := bidgen.NewEngine(&fakeCompleter{}, bidgen.Config{}); err == nil {
		t.Fatalf("expected error for empty model")
	}
}

func TestGenerate_MergesRequestMetadata(t *testing.T) {
	fc := &fakeCompleter{out: "```json\n" + `{"projectName":"X","timeframe":"2 weeks","description":"slab","lineItems":[{"name":"Concrete","price":"$500.00","quantity":10,"unit":"yd3"}]}` + "\n```"}
	read := func(r io.ReaderAt, size int64) (string, error) {
		return "Budget: $40,000\n\nFloor plan shows 2 bays", nil
	}
	e := newEngine(t, fc, bidgen.WithReader(read))

	req := bidgen.Request{
		UserID: 7,
		Fields: prompt.Fields{
			ConstructionField: "Concrete",
			ProjectType:       "Commercial",
			ProjectAddress:    "1 Harbor Way",
			CompanyLocation:   "Oakland, CA",
		},
		Documents: []extract.Document{{Type: extract.PlanSet, Name: "plans.pdf", Reader: strings.NewReader("x"), Size: 1}},
	}

	got, err := e.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := &models.Bid{
		UserID:            7,
		CompanyName:       "Oakland, CA",
		ProjectName:       "X",
		Location:          "1 Harbor Way",
		Timeframe:         "2 weeks",
		Description:       "slab",
		ProjectType:       "Commercial",
		ConstructionField: "Concrete",
		LineItems:         []models.LineItem{{Name: "Concrete", Price: 500, Quantity: 10, Unit: "yd3"}},
		Status:            models.StatusPending,
		CreatedAt:         fixedNow,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bid mismatch (-want +got):\n%s", diff)
	}

	if len(fc.reqs) != 1 {
		t.Fatalf("expected one completion call, got %d", len(fc.reqs))
	}
	r := fc.reqs[0]
	if r.Model != "gpt-4o" || r.Temperature != 0.7 || r.MaxTokens != 1000 || r.System != prompt.SystemPrompt {
		t.Fatalf("unexpected request parameters: %+v", r)
	}
	if !strings.Contains(r.Prompt, "Budget: $40,000") || !strings.Contains(r.Prompt, "Floor plan shows 2 bays") {
		t.Fatalf("prompt should contain the extracted excerpt:\n%s", r.Prompt)
	}
}

func TestGenerate_ExplicitCompanyName(t *testing.T) {
	fc := &fakeCompleter{out: bidJSON}
	e := newEngine(t, fc)

	got, err := e.Generate(context.Background(), bidgen.Request{CompanyName: "Acme Builders", Fields: prompt.Fields{CompanyLocation: "Reno"}})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got.CompanyName != "Acme Builders" || got.Location != "5 Elm" {
		t.Fatalf("unexpected merge: %+v", got)
	}
}

func TestGenerate_UpstreamError(t *testing.T) {
	fc := &fakeCompleter{err: llm.ErrMissingAPIKey}
	e := newEngine(t, fc)

	_, err := e.Generate(context.Background(), bidgen.Request{})
	if !errors.Is(err, bidgen.ErrUpstream) || !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
}

func TestGenerate_ParseError(t *testing.T) {
	fc := &fakeCompleter{out: "I cannot help with that."}
	e := newEngine(t, fc)

	_, err := e.Generate(context.Background(), bidgen.Request{})
	if !errors.Is(err, bidgen.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestGenerate_DocumentError(t *testing.T) {
	fc := &fakeCompleter{out: bidJSON}
	read := func(io.ReaderAt, int64) (string, error) { return "", errors.New("not a pdf") }
	e := newEngine(t, fc, bidgen.WithReader(read))

	docs := []extract.Document{{Type: extract.SupportingDocs, Name: "specs.pdf", Reader: strings.NewReader(""), Size: 0}}
	_, err := e.Generate(context.Background(), bidgen.Request{Documents: docs})
	if !errors.Is(err, bidgen.ErrDocument) {
		t.Fatalf("expected ErrDocument, got %v", err)
	}
	if len(fc.reqs) != 0 {
		t.Fatalf("completion must not be called when a document fails")
	}
}

func TestSuggestEdit(t *testing.T) {
	fc := &fakeCompleter{out: "\n  Reduce concrete to 8 yd3.  \n"}
	e := newEngine(t, fc)

	bid := models.Bid{ProjectName: "Elm St Duplex", LineItems: []models.LineItem{{Name: "Concrete", Price: 500, Quantity: 10, Unit: "yd3"}}}
	got, err := e.SuggestEdit(context.Background(), bid, "make it cheaper")
	if err != nil {
		t.Fatalf("SuggestEdit failed: %v", err)
	}
	if got != "Reduce concrete to 8 yd3." {
		t.Fatalf("unexpected suggestion %q", got)
	}
	if !strings.Contains(fc.reqs[0].Prompt, "make it cheaper") {
		t.Fatalf("prompt should carry the user message:\n%s", fc.reqs[0].Prompt)
	}
}
