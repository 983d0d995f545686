package extract

import "fmt"

// DocType tags an uploaded document with the form field it came from.
type DocType string

const (
	PlanSet             DocType = "planSet"
	PriceReferenceSheet DocType = "priceReferenceSheet"
	SupportingDocs      DocType = "supportingDocs"
)

// DocTypes returns every document type in canonical order.
func DocTypes() []DocType {
	return []DocType{PlanSet, PriceReferenceSheet, SupportingDocs}
}

func ParseDocType(s string) (DocType, error) {
	for _, t := range DocTypes() {
		if string(t) == s {
			return t, nil
		}
	}

	return "", fmt.Errorf("unknown document type %q", s)
}

// Label is the human readable name used when an excerpt is shown to the model.
func (t DocType) Label() string {
	switch t {
	case PlanSet:
		return "Plan Set"
	case PriceReferenceSheet:
		return "Price Reference Sheet"
	case SupportingDocs:
		return "Supporting Documents"
	}

	return string(t)
}
