package repository

import (
	"context"
	"errors"

	"github.com/garnizeh/bidwright/internal/models"
)

// ErrNotFound is returned when no row matches the requested id, or when the
// row exists but belongs to another user. The two cases are not distinguished.
var ErrNotFound = errors.New("not found")

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// BidRepo persists bids. Every read and mutation is scoped by the owning
// user id, so a caller can never reach another user's rows by id alone.
type BidRepo interface {
	CreateBid(ctx context.Context, b *models.Bid) (int64, error)
	ListBidsByUser(ctx context.Context, userID int64) ([]models.Bid, error)
	GetBid(ctx context.Context, id, userID int64) (*models.Bid, error)
	UpdateBid(ctx context.Context, b *models.Bid) error
	UpdateBidStatus(ctx context.Context, id, userID int64, status models.BidStatus) error
	DeleteBid(ctx context.Context, id, userID int64) error
}

type Store interface {
	UserRepo
	BidRepo
}
