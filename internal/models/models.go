package models

import (
	"fmt"
	"strings"
	"time"
)

type BidStatus string

const (
	StatusPending  BidStatus = "Pending"
	StatusApproved BidStatus = "Approved"
	StatusRejected BidStatus = "Rejected"
)

// ParseBidStatus maps user input onto one of the three known statuses.
func ParseBidStatus(s string) (BidStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "approved":
		return StatusApproved, nil
	case "rejected":
		return StatusRejected, nil
	}

	return "", fmt.Errorf("invalid status %q: want Pending, Approved or Rejected", s)
}

type User struct {
	ID           int64  `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Updated      int64  `json:"updated" db:"updated"`
}

type LineItem struct {
	Name     string   `json:"name"`
	Price    Price    `json:"price"`
	Quantity Quantity `json:"quantity"`
	Unit     string   `json:"unit"`
}

type Bid struct {
	ID                int64      `json:"id" db:"id"`
	UserID            int64      `json:"userId" db:"user_id"`
	CompanyName       string     `json:"companyName" db:"company_name"`
	ProjectName       string     `json:"projectName" db:"project_name"`
	Location          string     `json:"location" db:"location"`
	Timeframe         string     `json:"timeframe" db:"timeframe"`
	Description       string     `json:"description" db:"description"`
	ProjectType       string     `json:"projectType" db:"project_type"`
	ConstructionField string     `json:"constructionField" db:"construction_field"`
	LineItems         []LineItem `json:"lineItems" db:"line_items"`
	Status            BidStatus  `json:"status" db:"status"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
}

// Matches reports whether query occurs, case-insensitively, in the project
// name or the description. An empty query matches every bid.
func (b *Bid) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}

	return strings.Contains(strings.ToLower(b.ProjectName), q) ||
		strings.Contains(strings.ToLower(b.Description), q)
}

// FilterBids keeps the bids matching query, preserving their order.
func FilterBids(bids []Bid, query string) []Bid {
	out := make([]Bid, 0, len(bids))
	for i := range bids {
		if bids[i].Matches(query) {
			out = append(out, bids[i])
		}
	}

	return out
}
