package service

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/user/model"
)

// ServiceInterface defines user account operations.
type ServiceInterface interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.UserResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error)
	Refresh(ctx context.Context, req model.RefreshRequest) (*model.TokenResponse, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
}
