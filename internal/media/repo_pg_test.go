package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

var assetColumns = []string{"id", "url", "public_id", "resource_type", "format", "bytes", "created_by", "created_at", "updated_at"}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO media_assets").
		WithArgs(
			sqlmock.AnyArg(), // id
			"https://cdn.example.com/a.png",
			"media/a",
			"image",
			"png",
			int64(1024),
			"user-1",
		).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	asset, err := repo.Create(context.Background(), Asset{
		URL:          "https://cdn.example.com/a.png",
		StorageKey:   "media/a",
		ResourceKind: KindImage,
		Format:       "png",
		ByteSize:     1024,
		OwnerID:      "user-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if asset.ID == "" || !asset.CreatedAt.Equal(now) {
		t.Fatalf("unexpected asset: %+v", asset)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("INSERT INTO media_assets").WillReturnError(errors.New("connection reset"))

	if _, err := repo.Create(context.Background(), Asset{URL: "u", StorageKey: "k", OwnerID: "o"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPGRepoGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := "3f0e8a52-1c1d-4b5e-9a55-0d6f0f7b8a10"
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM media_assets").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(assetColumns).
			AddRow(id, "https://cdn/x", "media/x", "video", nil, int64(10), "user-1", now, now))

	asset, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if asset.ResourceKind != KindVideo || asset.Format != "" || asset.ByteSize != 10 {
		t.Fatalf("unexpected asset: %+v", asset)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	if _, err := repo.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}

	id := "3f0e8a52-1c1d-4b5e-9a55-0d6f0f7b8a10"
	mock.ExpectQuery("SELECT (.+) FROM media_assets").WithArgs(id).WillReturnRows(sqlmock.NewRows(assetColumns))
	if _, err := repo.GetByID(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListOrdersNewestFirst(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(assetColumns).
			AddRow("b", "u2", "k2", "image", "png", int64(2), "o", now, now).
			AddRow("a", "u1", "k1", "raw", nil, int64(1), "o", now.Add(-time.Minute), now))

	items, err := repo.List(context.Background(), 50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || items[0].ID != "b" || items[1].ResourceKind != KindRaw {
		t.Fatalf("unexpected items: %+v", items)
	}

	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(nil, 0).
		WillReturnRows(sqlmock.NewRows(assetColumns))
	items, err = repo.List(context.Background(), 0, -3)
	if err != nil {
		t.Fatalf("List without limit: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDelete(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := "3f0e8a52-1c1d-4b5e-9a55-0d6f0f7b8a10"

	mock.ExpectExec("DELETE FROM media_assets").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	mock.ExpectExec("DELETE FROM media_assets").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
