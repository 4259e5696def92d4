package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"library-backend/internal/domains/user/model"
	"library-backend/internal/domains/user/repository"
	"library-backend/pkg/cache"
	"library-backend/pkg/jwt"
)

type UserService struct {
	repo          repository.RepositoryInterface
	jwtManager    *jwt.Manager
	cache         cache.Cache
	refreshExpiry time.Duration
}

// NewService creates a new user service
func NewService(repo repository.RepositoryInterface, jwtManager *jwt.Manager, c cache.Cache, refreshExpiry time.Duration) ServiceInterface {
	return &UserService{
		repo:          repo,
		jwtManager:    jwtManager,
		cache:         c,
		refreshExpiry: refreshExpiry,
	}
}

func refreshTokenKey(userID uuid.UUID) string {
	return "auth:refresh:" + userID.String()
}

// Register implements ServiceInterface.Register
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, err
	}

	response := user.ToResponse()
	return &response, nil
}

// Login implements ServiceInterface.Login
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if model.IsNotFoundError(err) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Refresh implements ServiceInterface.Refresh. Tokens are rotated: the
// stored refresh token must match the presented one, and a successful
// refresh replaces it.
func (s *UserService) Refresh(ctx context.Context, req model.RefreshRequest) (*model.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil || claims.Type != "refresh" {
		return nil, model.ErrInvalidRefreshToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, model.ErrInvalidRefreshToken
	}

	var stored string
	found, err := s.cache.Get(ctx, refreshTokenKey(userID), &stored)
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if !found || stored != req.RefreshToken {
		return nil, model.ErrInvalidRefreshToken
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// GetProfile implements ServiceInterface.GetProfile
func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := user.ToResponse()
	return &response, nil
}

func (s *UserService) issueTokens(ctx context.Context, user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwtManager.GenerateAccessToken(user.ID.String(), user.Email, user.IsStaff)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := s.jwtManager.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.cache.Set(ctx, refreshTokenKey(user.ID), refresh, s.refreshExpiry); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
