package service

import (
	"context"

	"ledgerdesk/internal/domain"
)

const (
	loginPath          = "/login"
	mePath             = "/me"
	changePasswordPath = "/change-password"
	refreshPath        = "/refresh"
)

// AuthService covers credential exchange and the caller's own profile.
type AuthService interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.Token, error)
	Me(ctx context.Context) (*domain.User, error)
	ChangePassword(ctx context.Context, change domain.PasswordChange) error
	RefreshToken(ctx context.Context, refreshToken string) (*domain.Token, error)
}

type authService struct {
	api API
}

func NewAuthService(api API) AuthService {
	return &authService{api: api}
}

func (s *authService) Login(ctx context.Context, creds domain.Credentials) (*domain.Token, error) {
	var out domain.Token
	if err := s.api.Post(ctx, loginPath, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *authService) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := s.api.Get(ctx, mePath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *authService) ChangePassword(ctx context.Context, change domain.PasswordChange) error {
	return s.api.Post(ctx, changePasswordPath, change, nil)
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*domain.Token, error) {
	var out domain.Token
	body := map[string]string{"refresh_token": refreshToken}
	if err := s.api.Post(ctx, refreshPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
