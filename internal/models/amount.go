package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Price is a currency amount. It always encodes with two fractional digits
// and decodes from JSON numbers or from strings like "$1,200.50".
type Price float64

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(p), 'f', 2, 64)), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	v, err := decodeAmount(b)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = Price(v)
	return nil
}

func (p Price) String() string {
	return strconv.FormatFloat(float64(p), 'f', 2, 64)
}

// Quantity is a line item count; fractional quantities such as 2.5 yd3 are allowed.
type Quantity float64

func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(q), 'f', -1, 64)), nil
}

func (q *Quantity) UnmarshalJSON(b []byte) error {
	v, err := decodeAmount(b)
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	*q = Quantity(v)
	return nil
}

var (
	amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "")
	amountPrefixRe = regexp.MustCompile(`^[-+]?(?:\d+(?:\.\d*)?|\.\d+)`)
)

// LenientAmount reads the leading number of s once currency signs, thousands
// separators and spaces are dropped: "$50/hr" is 50, "10 yd3" is 10 and
// "TBD" is 0.
func LenientAmount(s string) float64 {
	m := amountPrefixRe.FindString(amountReplacer.Replace(strings.TrimSpace(s)))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

func decodeAmount(b []byte) (float64, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0, nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		s = amountReplacer.Replace(strings.TrimSpace(s))
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return 0, err
	}
	return f, nil
}
