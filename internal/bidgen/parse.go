package bidgen

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/garnizeh/bidwright/internal/models"
)

// ErrParse marks model output that is not a usable bid.
var ErrParse = errors.New("unparseable completion")

// GeneratedBid is the JSON object the model is asked to return.
type GeneratedBid struct {
	ProjectName string            `json:"projectName"`
	Location    string            `json:"location"`
	Timeframe   string            `json:"timeframe"`
	Description string            `json:"description"`
	LineItems   []models.LineItem `json:"lineItems"`
}

// wireBid mirrors GeneratedBid with amounts left raw, so that a price such
// as "TBD" or "$50/hr" degrades to a number instead of failing the reply.
type wireBid struct {
	ProjectName string         `json:"projectName"`
	Location    string         `json:"location"`
	Timeframe   string         `json:"timeframe"`
	Description string         `json:"description"`
	LineItems   []wireLineItem `json:"lineItems"`
}

type wireLineItem struct {
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Quantity json.RawMessage `json:"quantity"`
	Unit     string          `json:"unit"`
}

// amount reads a JSON number or a free-form string; anything else is 0.
func amount(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return models.LenientAmount(s)
	}
	return 0
}

//go:embed bid.schema.json
var bidSchemaJSON []byte

var bidSchema = mustSchema(bidSchemaJSON)

func mustSchema(b []byte) *jsonschema.Schema {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(b, rs); err != nil {
		panic(fmt.Sprintf("compile bid schema: %v", err))
	}
	return rs
}

// StripFence removes a surrounding ```json (or bare ```) markdown fence and
// the whitespace around it. Unfenced input is only trimmed.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "JSON")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	return strings.TrimSpace(s)
}

// ParseBid decodes model output into a GeneratedBid. Fenced and unfenced
// output parse identically. Only output that is not a JSON object of the bid
// shape is rejected: unreadable amounts become 0 and a missing lineItems
// list becomes empty. All failures wrap ErrParse.
func ParseBid(s string) (*GeneratedBid, error) {
	j := StripFence(s)
	if j == "" {
		return nil, fmt.Errorf("%w: empty response", ErrParse)
	}

	var w wireBid
	if err := json.Unmarshal([]byte(j), &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	verrs, err := bidSchema.ValidateBytes(context.Background(), []byte(j))
	if err != nil {
		return nil, fmt.Errorf("%w: schema validate: %v", ErrParse, err)
	}
	if len(verrs) > 0 {
		var sb strings.Builder
		for _, v := range verrs {
			sb.WriteString(v.PropertyPath)
			sb.WriteString(" ")
			sb.WriteString(v.Message)
			sb.WriteString("; ")
		}
		return nil, fmt.Errorf("%w: response does not match schema: %s", ErrParse, strings.TrimSuffix(sb.String(), "; "))
	}

	b := GeneratedBid{
		ProjectName: w.ProjectName,
		Location:    w.Location,
		Timeframe:   w.Timeframe,
		Description: w.Description,
		LineItems:   make([]models.LineItem, 0, len(w.LineItems)),
	}
	for _, li := range w.LineItems {
		b.LineItems = append(b.LineItems, models.LineItem{
			Name:     li.Name,
			Price:    models.Price(amount(li.Price)),
			Quantity: models.Quantity(amount(li.Quantity)),
			Unit:     li.Unit,
		})
	}

	return &b, nil
}
