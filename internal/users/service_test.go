package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"media-backend/internal/shared/auth"
)

func newService(t *testing.T) *Service {
	t.Helper()
	tokens, err := auth.NewManager("svc-secret", time.Hour, false)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return NewService(NewMemoryRepo(), tokens)
}

func TestEnsureAccountResetsPassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.EnsureAccount(ctx, "tester", "tester01@example.com", "Secret123!")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	second, err := svc.EnsureAccount(ctx, "tester", "tester01@example.com", "Another123!")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if first.User.ID != second.User.ID {
		t.Fatalf("expected the same account, got %s and %s", first.User.ID, second.User.ID)
	}
	if _, err := svc.Login(ctx, "tester01@example.com", "Secret123!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := svc.Login(ctx, "tester01@example.com", "Another123!"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestSignupStoresHash(t *testing.T) {
	svc := newService(t)
	session, err := svc.Signup(context.Background(), " tester ", "a@example.com", "secret1")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if session.User.PasswordHash == "secret1" || !auth.CheckPassword(session.User.PasswordHash, "secret1") {
		t.Fatalf("password must be stored as a bcrypt hash")
	}
	if session.User.Username != "tester" {
		t.Fatalf("username not trimmed: %q", session.User.Username)
	}
}

func TestUnconfiguredService(t *testing.T) {
	var svc *Service
	if _, err := svc.Login(context.Background(), "a", "b"); err == nil {
		t.Fatalf("expected error from nil service")
	}
}

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "tester", "a@example.com", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	if _, err := repo.Create(context.Background(), User{Username: "tester", Email: "a@example.com", PasswordHash: "hash"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectQuery("FROM users").
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
			AddRow("3f0e8a52-1c1d-4b5e-9a55-0d6f0f7b8a10", "tester", "a@example.com", "hash", now, now))
	mock.ExpectQuery("FROM users").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}))

	user, err := repo.GetByEmail(context.Background(), "a@example.com")
	if err != nil || user.Username != "tester" || user.PasswordHash != "hash" {
		t.Fatalf("unexpected user %+v, err %v", user, err)
	}
	if _, err := repo.GetByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
