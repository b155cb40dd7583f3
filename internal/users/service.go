package users

import (
	"context"
	"errors"
	"strings"

	"media-backend/internal/shared/auth"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Sign(userID, email string) (string, error)
}

type Service struct {
	Repo   Repo
	Tokens TokenIssuer
}

func NewService(repo Repo, tokens TokenIssuer) *Service {
	return &Service{Repo: repo, Tokens: tokens}
}

// Session is an authenticated account with its bearer token.
type Session struct {
	User  User
	Token string
}

// NormalizeEmail trims and lowercases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an account and issues a token.
func (s *Service) Signup(ctx context.Context, username, email, password string) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	if len(password) > auth.MaxPasswordBytes {
		return Session{}, ErrPasswordTooLong
	}
	email = NormalizeEmail(email)
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return Session{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	user, err := s.Repo.Create(ctx, User{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// Login checks credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	user, err := s.Repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(user)
}

// EnsureAccount creates the account or resets its password. Used for seeding.
func (s *Service) EnsureAccount(ctx context.Context, username, email, password string) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	email = NormalizeEmail(email)
	user, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return s.Signup(ctx, username, email, password)
	}
	if err != nil {
		return Session{}, err
	}

	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return Session{}, ErrPasswordTooLong
	}
	if err != nil {
		return Session{}, err
	}
	if err := s.Repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return Session{}, err
	}
	user.PasswordHash = hash
	return s.session(user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) session(user User) (Session, error) {
	token, err := s.Tokens.Sign(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}

func (s *Service) ready() error {
	if s == nil || s.Repo == nil || s.Tokens == nil {
		return errors.New("users service not configured")
	}
	return nil
}
