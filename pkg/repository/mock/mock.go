// Package mock provides an in-memory repository.Store for handler tests.
package mock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/garnizeh/bidwright/internal/models"
	"github.com/garnizeh/bidwright/pkg/repository"
)

// Store keeps users and bids in maps. The *Err fields force the matching
// operation to fail.
type Store struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User
	bids   map[int64]models.Bid

	CreateUserErr error
	CreateBidErr  error
	ListErr       error
	UpdateErr     error
	DeleteErr     error
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{users: map[int64]models.User{}, bids: map[int64]models.Bid{}}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateUserErr != nil {
		return 0, s.CreateUserErr
	}

	stored := *u
	stored.ID = s.id()
	stored.Updated = time.Now().UnixMilli()
	s.users[stored.ID] = stored
	return stored.ID, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateBid(ctx context.Context, b *models.Bid) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateBidErr != nil {
		return 0, s.CreateBidErr
	}

	b.ID = s.id()
	if b.Status == "" {
		b.Status = models.StatusPending
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	// stored with millisecond precision
	b.CreatedAt = b.CreatedAt.UTC().Truncate(time.Millisecond)
	s.bids[b.ID] = clone(*b)
	return b.ID, nil
}

func (s *Store) ListBidsByUser(ctx context.Context, userID int64) ([]models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	out := []models.Bid{}
	for _, b := range s.bids {
		if b.UserID == userID {
			out = append(out, clone(b))
		}
	}
	slices.SortFunc(out, func(a, b models.Bid) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out, nil
}

func (s *Store) GetBid(ctx context.Context, id, userID int64) (*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[id]
	if !ok || b.UserID != userID {
		return nil, repository.ErrNotFound
	}
	out := clone(b)
	return &out, nil
}

func (s *Store) UpdateBid(ctx context.Context, b *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}

	cur, ok := s.bids[b.ID]
	if !ok || cur.UserID != b.UserID {
		return repository.ErrNotFound
	}
	cur.ProjectName = b.ProjectName
	cur.Location = b.Location
	cur.Timeframe = b.Timeframe
	cur.Description = b.Description
	cur.LineItems = slices.Clone(b.LineItems)
	cur.ProjectType = b.ProjectType
	cur.ConstructionField = b.ConstructionField
	s.bids[b.ID] = cur
	return nil
}

func (s *Store) UpdateBidStatus(ctx context.Context, id, userID int64, status models.BidStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}

	cur, ok := s.bids[id]
	if !ok || cur.UserID != userID {
		return repository.ErrNotFound
	}
	cur.Status = status
	s.bids[id] = cur
	return nil
}

func (s *Store) DeleteBid(ctx context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}

	cur, ok := s.bids[id]
	if !ok || cur.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.bids, id)
	return nil
}

func clone(b models.Bid) models.Bid {
	b.LineItems = slices.Clone(b.LineItems)
	if b.LineItems == nil {
		b.LineItems = []models.LineItem{}
	}
	return b
}
