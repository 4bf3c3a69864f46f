package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/baharkarakas/wallet-ledger/internal/auth"
	"github.com/baharkarakas/wallet-ledger/internal/lifecycle"
	"github.com/baharkarakas/wallet-ledger/internal/models"
	repo "github.com/baharkarakas/wallet-ledger/internal/repository"
	"github.com/baharkarakas/wallet-ledger/internal/validate"
)

const minPasswordLen = 8

type UserService struct {
	r  repo.Users
	tm *auth.TokenManager
}

func NewUserService(r repo.Users, tm *auth.TokenManager) *UserService {
	return &UserService{r: r, tm: tm}
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type Session struct {
	User models.User `json:"user"`
	auth.TokenPair
}

func (s *UserService) create(ctx context.Context, in RegisterInput) (models.User, error) {
	u := models.User{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Role:     in.Role,
	}
	if err := u.Validate(); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if len(in.Password) < minPasswordLen {
		return models.User{}, fmt.Errorf("%w: %w", models.ErrValidation,
			validate.Errs{{Field: "password", Msg: fmt.Sprintf("must be at least %d characters", minPasswordLen)}})
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash
	u, err = s.r.Create(ctx, u)
	if errors.Is(err, models.ErrConflict) {
		return models.User{}, fmt.Errorf("%w: email already registered", models.ErrConflict)
	}
	return u, err
}

// Register signs up a customer. Self-registration always yields the user role.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Role = models.RoleUser
	return s.create(ctx, in)
}

// Create adds an account with any role. Admin only.
func (s *UserService) Create(ctx context.Context, actor lifecycle.Actor, in RegisterInput) (models.User, error) {
	if actor.Role != models.RoleAdmin {
		return models.User{}, fmt.Errorf("%w: only admins create accounts", models.ErrForbidden)
	}
	return s.create(ctx, in)
}

// EnsureAdmin seeds the first admin account. Existing accounts are left alone.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.r.GetByEmail(ctx, strings.ToLower(email)); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	u, err := s.create(ctx, RegisterInput{Username: "admin", Email: email, Password: password, Role: models.RoleAdmin})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "admin account seeded", "user_id", u.ID)
	return nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.r.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return Session{}, fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
		}
		return Session{}, err
	}
	if auth.VerifyPassword(password, u.PasswordHash) != nil {
		return Session{}, fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
	}
	pair, err := s.tm.GeneratePair(u.ID, u.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, TokenPair: pair}, nil
}

// Refresh issues a new pair. The role is re-read so demotions take effect
// at the next refresh.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.tm.ParseRefresh(refreshToken)
	if err != nil {
		return Session{}, fmt.Errorf("%w: invalid refresh token", models.ErrUnauthorized)
	}
	u, err := s.r.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return Session{}, fmt.Errorf("%w: account no longer exists", models.ErrUnauthorized)
		}
		return Session{}, err
	}
	pair, err := s.tm.GeneratePair(u.ID, u.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, TokenPair: pair}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	return s.r.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.r.List(ctx)
}
