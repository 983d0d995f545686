package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/garnizeh/bidwright/internal/models"
)

func (r *PostgresRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO users (email, password_hash, updated) VALUES ($1, $2, $3) RETURNING id`,
		u.Email, u.PasswordHash, time.Now().UTC().UnixMilli()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return id, nil
}

func (r *PostgresRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, `SELECT id, email, password_hash, updated FROM users WHERE id = $1`, id)
}

func (r *PostgresRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `SELECT id, email, password_hash, updated FROM users WHERE email = $1`, email)
}

func (r *PostgresRepo) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &u, nil
}
