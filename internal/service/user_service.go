package service

import (
	"context"

	"ledgerdesk/internal/domain"
)

const usersPath = "/users"

// UserService manages user records. Access is restricted by the backend;
// front ends only hide it from non-superusers.
type UserService interface {
	ListUsers(ctx context.Context, params Params) ([]domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	CreateUser(ctx context.Context, in domain.UserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, in domain.UserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type userService struct {
	api API
}

func NewUserService(api API) UserService {
	return &userService{api: api}
}

func (s *userService) ListUsers(ctx context.Context, params Params) ([]domain.User, error) {
	var out []domain.User
	if err := s.api.Get(ctx, usersPath, params.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *userService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var out domain.User
	if err := s.api.Get(ctx, itemPath(usersPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *userService) CreateUser(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	var out domain.User
	if err := s.api.Post(ctx, usersPath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *userService) UpdateUser(ctx context.Context, id int64, in domain.UserInput) (*domain.User, error) {
	var out domain.User
	if err := s.api.Put(ctx, itemPath(usersPath, id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, itemPath(usersPath, id))
}
