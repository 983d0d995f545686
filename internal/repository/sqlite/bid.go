package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garnizeh/bidwright/internal/models"
	"github.com/garnizeh/bidwright/pkg/repository"
)

const bidColumns = `id, user_id, company_name, project_name, location, timeframe, description, line_items, project_type, construction_field, status, created_at`

func (r *SQLiteRepo) CreateBid(ctx context.Context, b *models.Bid) (int64, error) {
	if b == nil {
		return 0, fmt.Errorf("bid is nil")
	}

	items, err := encodeLineItems(b.LineItems)
	if err != nil {
		return 0, err
	}
	if b.Status == "" {
		b.Status = models.StatusPending
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	// stored with millisecond precision
	b.CreatedAt = b.CreatedAt.UTC().Truncate(time.Millisecond)

	res, err := r.conn.Exec(ctx, `INSERT INTO bids (user_id, company_name, project_name, location, timeframe, description, line_items, project_type, construction_field, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CompanyName, b.ProjectName, b.Location, b.Timeframe, b.Description, items, b.ProjectType, b.ConstructionField, string(b.Status), b.CreatedAt.UnixMilli())
	if err != nil {
		r.logger.Error("insert bid", "user_id", b.UserID, "err", err)
		return 0, fmt.Errorf("insert bid: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert bid: %w", err)
	}
	b.ID = id

	return id, nil
}

// ListBidsByUser returns the user's bids newest first.
func (r *SQLiteRepo) ListBidsByUser(ctx context.Context, userID int64) ([]models.Bid, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+bidColumns+` FROM bids WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	out := []models.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}

	return out, nil
}

func (r *SQLiteRepo) GetBid(ctx context.Context, id, userID int64) (*models.Bid, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+bidColumns+` FROM bids WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBid(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}

		return nil, err
	}

	return b, nil
}

func (r *SQLiteRepo) UpdateBid(ctx context.Context, b *models.Bid) error {
	if b == nil {
		return fmt.Errorf("bid is nil")
	}

	items, err := encodeLineItems(b.LineItems)
	if err != nil {
		return err
	}

	res, err := r.conn.Exec(ctx, `UPDATE bids SET project_name = ?, location = ?, timeframe = ?, description = ?, line_items = ?, project_type = ?, construction_field = ? WHERE id = ? AND user_id = ?`,
		b.ProjectName, b.Location, b.Timeframe, b.Description, items, b.ProjectType, b.ConstructionField, b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update bid: %w", err)
	}

	return expectOneRow(res)
}

func (r *SQLiteRepo) UpdateBidStatus(ctx context.Context, id, userID int64, status models.BidStatus) error {
	res, err := r.conn.Exec(ctx, `UPDATE bids SET status = ? WHERE id = ? AND user_id = ?`, string(status), id, userID)
	if err != nil {
		return fmt.Errorf("update bid status: %w", err)
	}

	return expectOneRow(res)
}

func (r *SQLiteRepo) DeleteBid(ctx context.Context, id, userID int64) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM bids WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete bid: %w", err)
	}

	return expectOneRow(res)
}

// expectOneRow maps "nothing matched (id, user_id)" onto ErrNotFound.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBid(s scanner) (*models.Bid, error) {
	var (
		b       models.Bid
		items   string
		status  string
		created int64
	)
	if err := s.Scan(&b.ID, &b.UserID, &b.CompanyName, &b.ProjectName, &b.Location, &b.Timeframe, &b.Description, &items, &b.ProjectType, &b.ConstructionField, &status, &created); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &b.LineItems); err != nil {
		return nil, fmt.Errorf("decode line items of bid %d: %w", b.ID, err)
	}
	if b.LineItems == nil {
		b.LineItems = []models.LineItem{}
	}
	b.Status = models.BidStatus(status)
	b.CreatedAt = time.UnixMilli(created).UTC()

	return &b, nil
}

func encodeLineItems(items []models.LineItem) (string, error) {
	if items == nil {
		items = []models.LineItem{}
	}

	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode line items: %w", err)
	}

	return string(b), nil
}
