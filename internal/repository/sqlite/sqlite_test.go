package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	dbfs "github.com/garnizeh/bidwright/db"
	dbpkg "github.com/garnizeh/bidwright/internal/db"
	"github.com/garnizeh/bidwright/internal/models"
	sqlite "github.com/garnizeh/bidwright/internal/repository/sqlite"
	"github.com/garnizeh/bidwright/pkg/repository"
	"github.com/google/go-cmp/cmp"
)

func setupRepo(t *testing.T) *sqlite.SQLiteRepo {
	t.Helper()
	ctx := context.Background()
	d, err := dbpkg.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := dbpkg.Migrate(ctx, d, dbfs.Migrations, dbfs.SQLiteDir); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	return sqlite.New(d, nil)
}

func createUser(t *testing.T, repo *sqlite.SQLiteRepo, email string) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), &models.User{Email: email, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return id
}

func TestUserCRUD(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, nil); err == nil {
		t.Fatalf("expected error when creating nil user")
	}

	got, err := repo.GetUserByID(ctx, 9999)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for missing user, got %#v, %v", got, err)
	}

	id := createUser(t, repo, "ann@example.com")

	byID, err := repo.GetUserByID(ctx, id)
	if err != nil || byID == nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != "ann@example.com" || byID.PasswordHash != "hash" || byID.Updated == 0 {
		t.Fatalf("unexpected user: %#v", byID)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "ann@example.com")
	if err != nil || byEmail == nil || byEmail.ID != id {
		t.Fatalf("GetUserByEmail failed: %#v, %v", byEmail, err)
	}

	if _, err := repo.CreateUser(ctx, &models.User{Email: "ann@example.com", PasswordHash: "x"}); err == nil {
		t.Fatalf("expected unique violation for duplicate email")
	}
}

func TestBidRoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	uid := createUser(t, repo, "bob@example.com")

	bid := &models.Bid{
		UserID:            uid,
		CompanyName:       "Austin, TX",
		ProjectName:       "Elm St Duplex",
		Location:          "12 Elm St",
		Timeframe:         "6 weeks",
		Description:       "Foundation and framing",
		ProjectType:       "Residential",
		ConstructionField: "General",
		LineItems: []models.LineItem{
			{Name: "Concrete", Price: 500, Quantity: 10, Unit: "yd3"},
			{Name: "Lumber", Price: 1200.5, Quantity: 2.5, Unit: "mbf"},
		},
		CreatedAt: time.UnixMilli(1700000000123).UTC(),
	}

	id, err := repo.CreateBid(ctx, bid)
	if err != nil {
		t.Fatalf("CreateBid failed: %v", err)
	}
	if id <= 0 || bid.ID != id {
		t.Fatalf("expected id to be set, got %d / %d", id, bid.ID)
	}
	if bid.Status != models.StatusPending {
		t.Fatalf("expected default status Pending, got %q", bid.Status)
	}

	got, err := repo.GetBid(ctx, id, uid)
	if err != nil {
		t.Fatalf("GetBid failed: %v", err)
	}
	if diff := cmp.Diff(bid, got); diff != "" {
		t.Fatalf("bid mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateBid_CreatedAtMatchesStored(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	uid := createUser(t, repo, "nano@example.com")

	bid := &models.Bid{
		UserID:      uid,
		ProjectName: "Nanos",
		CreatedAt:   time.Date(2025, 3, 4, 5, 6, 7, 123456789, time.UTC),
	}
	if _, err := repo.CreateBid(ctx, bid); err != nil {
		t.Fatalf("CreateBid failed: %v", err)
	}
	if want := time.Date(2025, 3, 4, 5, 6, 7, 123000000, time.UTC); !bid.CreatedAt.Equal(want) {
		t.Fatalf("expected created_at truncated to %v, got %v", want, bid.CreatedAt)
	}

	bids, err := repo.ListBidsByUser(ctx, uid)
	if err != nil || len(bids) != 1 {
		t.Fatalf("ListBidsByUser: %v (%d bids)", err, len(bids))
	}
	if !bids[0].CreatedAt.Equal(bid.CreatedAt) {
		t.Fatalf("listed created_at %v differs from returned %v", bids[0].CreatedAt, bid.CreatedAt)
	}
}

func TestListBidsByUser_NewestFirst(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	uid := createUser(t, repo, "c@example.com")

	base := time.Now().UTC()
	for i, name := range []string{"first", "second", "third"} {
		b := &models.Bid{UserID: uid, ProjectName: name, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if _, err := repo.CreateBid(ctx, b); err != nil {
			t.Fatalf("CreateBid failed: %v", err)
		}
	}

	bids, err := repo.ListBidsByUser(ctx, uid)
	if err != nil {
		t.Fatalf("ListBidsByUser failed: %v", err)
	}

	var names []string
	for _, b := range bids {
		names = append(names, b.ProjectName)
	}
	if diff := cmp.Diff([]string{"third", "second", "first"}, names); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	empty, err := repo.ListBidsByUser(ctx, 4242)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v, %v", empty, err)
	}
}

func TestBidMutationsAreScopedByUser(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	owner := createUser(t, repo, "owner@example.com")
	other := createUser(t, repo, "other@example.com")

	bid := &models.Bid{UserID: owner, ProjectName: "Harbor Warehouse"}
	id, err := repo.CreateBid(ctx, bid)
	if err != nil {
		t.Fatalf("CreateBid failed: %v", err)
	}

	if _, err := repo.GetBid(ctx, id, other); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound reading another user's bid, got %v", err)
	}
	if err := repo.UpdateBidStatus(ctx, id, other, models.StatusApproved); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating another user's status, got %v", err)
	}
	if err := repo.DeleteBid(ctx, id, other); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting another user's bid, got %v", err)
	}
	stolen := *bid
	stolen.UserID = other
	stolen.ProjectName = "Hijacked"
	if err := repo.UpdateBid(ctx, &stolen); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating another user's bid, got %v", err)
	}

	got, err := repo.GetBid(ctx, id, owner)
	if err != nil {
		t.Fatalf("GetBid failed: %v", err)
	}
	if got.ProjectName != "Harbor Warehouse" || got.Status != models.StatusPending {
		t.Fatalf("bid changed by another user: %#v", got)
	}
}

func TestUpdateAndDeleteBid(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	uid := createUser(t, repo, "d@example.com")

	bid := &models.Bid{UserID: uid, CompanyName: "Denver", ProjectName: "Parking Deck"}
	id, err := repo.CreateBid(ctx, bid)
	if err != nil {
		t.Fatalf("CreateBid failed: %v", err)
	}

	bid.ProjectName = "Parking Deck B"
	bid.LineItems = []models.LineItem{{Name: "Rebar", Price: 3.2, Quantity: 900, Unit: "lb"}}
	if err := repo.UpdateBid(ctx, bid); err != nil {
		t.Fatalf("UpdateBid failed: %v", err)
	}
	if err := repo.UpdateBidStatus(ctx, id, uid, models.StatusRejected); err != nil {
		t.Fatalf("UpdateBidStatus failed: %v", err)
	}

	got, err := repo.GetBid(ctx, id, uid)
	if err != nil {
		t.Fatalf("GetBid failed: %v", err)
	}
	if got.ProjectName != "Parking Deck B" || got.Status != models.StatusRejected || len(got.LineItems) != 1 {
		t.Fatalf("unexpected bid after update: %#v", got)
	}
	if got.CompanyName != "Denver" {
		t.Fatalf("company name should not change on update, got %q", got.CompanyName)
	}

	if err := repo.DeleteBid(ctx, id, uid); err != nil {
		t.Fatalf("DeleteBid failed: %v", err)
	}
	if err := repo.DeleteBid(ctx, id, uid); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
