package extract

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

// ReaderFunc turns a document into plain text.
type ReaderFunc func(r io.ReaderAt, size int64) (string, error)

// Document is one uploaded file waiting to be parsed.
type Document struct {
	Type   DocType
	Name   string
	Reader io.ReaderAt
	Size   int64
}

// PDFText extracts the plain text of a PDF document.
func PDFText(r io.ReaderAt, size int64) (text string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return sb.String(), nil
}

// ExtractAll parses every document concurrently and returns the KeyInfo
// excerpt of each, keyed by document type. The first failure cancels the
// remaining work and is returned. A nil read defaults to PDFText.
func ExtractAll(ctx context.Context, docs []Document, maxLen int, read ReaderFunc) (map[DocType]string, error) {
	if read == nil {
		read = PDFText
	}

	var (
		mu  sync.Mutex
		out = make(map[DocType]string, len(docs))
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, d := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			text, err := read(d.Reader, d.Size)
			if err != nil {
				return fmt.Errorf("%s (%s): %w", d.Type, d.Name, err)
			}

			excerpt := KeyInfo(text, d.Type, maxLen)
			mu.Lock()
			out[d.Type] = excerpt
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
