package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/garnizeh/bidwright/internal/models"
	"github.com/garnizeh/bidwright/pkg/repository"
)

const bidColumns = `id, user_id, company_name, project_name, location, timeframe, description, line_items, project_type, construction_field, status, created_at`

func (r *PostgresRepo) CreateBid(ctx context.Context, b *models.Bid) (int64, error) {
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

	insertQuery := `INSERT INTO bids (user_id, company_name, project_name, location, timeframe, description, line_items, project_type, construction_field, status, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	err = r.pool.QueryRow(ctx, insertQuery,
		b.UserID,
		b.CompanyName,
		b.ProjectName,
		b.Location,
		b.Timeframe,
		b.Description,
		items,
		b.ProjectType,
		b.ConstructionField,
		string(b.Status),
		b.CreatedAt).Scan(&b.ID)
	if err != nil {
		r.logger.Error("insert bid", "user_id", b.UserID, "err", err)
		return 0, fmt.Errorf("insert bid: %w", err)
	}

	return b.ID, nil
}

func (r *PostgresRepo) ListBidsByUser(ctx context.Context, userID int64) ([]models.Bid, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bidColumns+` FROM bids WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
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

func (r *PostgresRepo) GetBid(ctx context.Context, id, userID int64) (*models.Bid, error) {
	b, err := scanBid(r.pool.QueryRow(ctx, `SELECT `+bidColumns+` FROM bids WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}

		return nil, err
	}

	return b, nil
}

func (r *PostgresRepo) UpdateBid(ctx context.Context, b *models.Bid) error {
	if b == nil {
		return fmt.Errorf("bid is nil")
	}

	items, err := encodeLineItems(b.LineItems)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `UPDATE bids SET project_name = $1, location = $2, timeframe = $3, description = $4, line_items = $5, project_type = $6, construction_field = $7 WHERE id = $8 AND user_id = $9`,
		b.ProjectName, b.Location, b.Timeframe, b.Description, items, b.ProjectType, b.ConstructionField, b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update bid: %w", err)
	}

	return expectOneRow(tag)
}

func (r *PostgresRepo) UpdateBidStatus(ctx context.Context, id, userID int64, status models.BidStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE bids SET status = $1 WHERE id = $2 AND user_id = $3`, string(status), id, userID)
	if err != nil {
		return fmt.Errorf("update bid status: %w", err)
	}

	return expectOneRow(tag)
}

func (r *PostgresRepo) DeleteBid(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bids WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete bid: %w", err)
	}

	return expectOneRow(tag)
}

func expectOneRow(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanBid(row pgx.Row) (*models.Bid, error) {
	var (
		b      models.Bid
		items  []byte
		status string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.CompanyName, &b.ProjectName, &b.Location, &b.Timeframe, &b.Description, &items, &b.ProjectType, &b.ConstructionField, &status, &b.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &b.LineItems); err != nil {
		return nil, fmt.Errorf("decode line items of bid %d: %w", b.ID, err)
	}
	if b.LineItems == nil {
		b.LineItems = []models.LineItem{}
	}
	b.Status = models.BidStatus(status)
	b.CreatedAt = b.CreatedAt.UTC()

	return &b, nil
}

func encodeLineItems(items []models.LineItem) ([]byte, error) {
	if items == nil {
		items = []models.LineItem{}
	}

	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode line items: %w", err)
	}

	return b, nil
}
