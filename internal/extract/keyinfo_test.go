package extract_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/garnizeh/bidwright/internal/extract"
)

const planText = `Sheet A-101
Project: Elm Street Duplex
two units, slab on grade

Floor plan shows 4 bedrooms
North elevation with brick veneer
Unrelated line`

func TestKeyInfo_PlanSet(t *testing.T) {
	got := extract.KeyInfo(planText, extract.PlanSet, 2000)
	want := strings.Join([]string{
		"Project: Elm Street Duplex\ntwo units, slab on grade",
		"Floor plan shows 4 bedrooms",
		"North elevation with brick veneer",
	}, "\n")

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("KeyInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyInfo_PriceSheetCapsPairs(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Classification ID  Service  Price\n")
	sb.WriteString("D101 Site survey $1,200.00\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&sb, "Item %d: $%d.00\n", i, (i+1)*10)
	}

	got := extract.KeyInfo(sb.String(), extract.PriceReferenceSheet, 5000)
	lines := strings.Split(got, "\n")
	if len(lines) != extract.MaxPricePairs {
		t.Fatalf("expected %d pairs, got %d: %q", extract.MaxPricePairs, len(lines), got)
	}
	if lines[0] != "D101: Site survey - $1,200.00" {
		t.Fatalf("unexpected classification row: %q", lines[0])
	}
	if lines[1] != "Item 0: $10.00" {
		t.Fatalf("unexpected first pair: %q", lines[1])
	}
}

func TestKeyInfo_PriceSheetSkipsKeywordLines(t *testing.T) {
	text := "Total: $1,000.00\n\nConcrete: $500.00\nRebar: $200"

	got := extract.KeyInfo(text, extract.PriceReferenceSheet, 2000)
	want := "Total: $1,000.00\nConcrete: $500.00\nRebar: $200"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("KeyInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyInfo_SupportingDocs(t *testing.T) {
	text := "General notes\nAll framing per specifications in section 06\nFire rating requirements: 1 hr\nnothing here"
	got := extract.KeyInfo(text, extract.SupportingDocs, 2000)
	want := "All framing per specifications in section 06\nFire rating requirements: 1 hr"
	if got != want {
		t.Fatalf("unexpected excerpt:\n got %q\nwant %q", got, want)
	}
}

func TestKeyInfo_NothingMatches(t *testing.T) {
	for _, dt := range extract.DocTypes() {
		if got := extract.KeyInfo("lorem ipsum dolor sit amet", dt, 2000); got != "" {
			t.Fatalf("%s: expected empty output, got %q", dt, got)
		}
	}
	if got := extract.KeyInfo("", extract.PlanSet, 10); got != "" {
		t.Fatalf("expected empty output for empty text, got %q", got)
	}
}

func TestKeyInfo_NeverExceedsMaxLen(t *testing.T) {
	text := strings.Repeat("Budget: ¥ 1 200 000 für Beton ✓\n\n", 50) + planText
	for _, maxLen := range []int{-1, 0, 1, 2, 3, 7, 64, 100, 1999} {
		for _, dt := range extract.DocTypes() {
			got := extract.KeyInfo(text, dt, maxLen)
			if len(got) > max(maxLen, 0) {
				t.Fatalf("maxLen=%d %s: got %d bytes", maxLen, dt, len(got))
			}
			if !utf8.ValidString(got) {
				t.Fatalf("maxLen=%d %s: truncation split a rune: %q", maxLen, dt, got)
			}
		}
	}
}

func TestKeyInfo_Deterministic(t *testing.T) {
	a := extract.KeyInfo(planText, extract.PlanSet, 50)
	b := extract.KeyInfo(planText, extract.PlanSet, 50)
	if a != b {
		t.Fatalf("KeyInfo is not deterministic: %q vs %q", a, b)
	}
}

func TestParseDocType(t *testing.T) {
	if dt, err := extract.ParseDocType("planSet"); err != nil || dt != extract.PlanSet {
		t.Fatalf("ParseDocType(planSet) = %q, %v", dt, err)
	}
	if _, err := extract.ParseDocType("photos"); err == nil {
		t.Fatalf("expected error for unknown doc type")
	}
}

func TestExtractAll(t *testing.T) {
	texts := map[string]string{
		"plans.pdf":  planText,
		"prices.pdf": "Framing: $12,000\nRoofing: $8,500.50",
	}
	read := func(r io.ReaderAt, size int64) (string, error) {
		buf := make([]byte, size)
		if _, err := r.ReadAt(buf, 0); err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return texts[string(buf)], nil
	}

	docs := []extract.Document{
		{Type: extract.PlanSet, Name: "plans.pdf", Reader: strings.NewReader("plans.pdf"), Size: 9},
		{Type: extract.PriceReferenceSheet, Name: "prices.pdf", Reader: strings.NewReader("prices.pdf"), Size: 10},
	}

	got, err := extract.ExtractAll(context.Background(), docs, 2000, read)
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}

	want := map[extract.DocType]string{
		extract.PlanSet:             extract.KeyInfo(planText, extract.PlanSet, 2000),
		extract.PriceReferenceSheet: "Framing: $12,000\nRoofing: $8,500.50",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExtractAll mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractAll_FirstErrorWins(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	read := func(io.ReaderAt, int64) (string, error) {
		calls.Add(1)
		return "", boom
	}

	docs := []extract.Document{{Type: extract.SupportingDocs, Name: "specs.pdf", Reader: strings.NewReader(""), Size: 0}}
	_, err := extract.ExtractAll(context.Background(), docs, 100, read)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "specs.pdf") {
		t.Fatalf("error should name the file, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one read, got %d", calls.Load())
	}
}

func TestPDFText_RejectsGarbage(t *testing.T) {
	data := "definitely not a pdf"
	if _, err := extract.PDFText(strings.NewReader(data), int64(len(data))); err == nil {
		t.Fatalf("expected error for non-pdf input")
	}
}
