package services

import (
	"context"
	"errors"
	"strings"

	"github.com/mshami/kwikship-backend/internal/auth"
	"github.com/mshami/kwikship-backend/internal/models"
	repo "github.com/mshami/kwikship-backend/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserService struct {
	r  repo.Users
	tm *auth.TokenManager
}

func NewUserService(r repo.Users, tm *auth.TokenManager) *UserService {
	return &UserService{r: r, tm: tm}
}

func (s *UserService) Register(ctx context.Context, name, email, phone, password string) (models.User, error) {
	u := models.User{
		Name:  strings.TrimSpace(name),
		Email: strings.ToLower(strings.TrimSpace(email)),
		Phone: strings.TrimSpace(phone),
		Role:  models.RoleUser,
	}
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	if len(password) < 6 {
		return models.User{}, errors.New("password too short")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash
	return s.r.Create(ctx, u)
}

// Login verifies the password and returns an access/refresh token pair.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, auth.TokenPair, error) {
	u, err := s.r.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, auth.TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, auth.TokenPair{}, err
	}
	if !u.IsActive {
		return models.User{}, auth.TokenPair{}, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return models.User{}, auth.TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.tm.GeneratePair(u.ID, u.Role)
	if err != nil {
		return models.User{}, auth.TokenPair{}, err
	}
	return u, pair, nil
}

func (s *UserService) Refresh(refreshToken string) (auth.TokenPair, error) {
	claims, isRefresh, err := s.tm.ParseAny(refreshToken)
	if err != nil || !isRefresh {
		return auth.TokenPair{}, ErrInvalidCredentials
	}
	return s.tm.GeneratePair(claims.UserID, claims.Role)
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	u, err := s.r.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.r.List(ctx, limit, offset)
}
