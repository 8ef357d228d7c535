package service

import (
	"context"
	"fmt"
	"strings"

	repository "freshkeeper/internal/database/postgres"
	"freshkeeper/internal/entity"
)

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) RegisterUser(ctx context.Context, req *RegisterUserRequest) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		return nil, entity.ErrInvalidEmail
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, entity.ErrUserAlreadyExists
	} else if err != nil && err != entity.ErrUserNotFound {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := &entity.User{
		Email: email,
		Name:  strings.TrimSpace(req.Name),

		// All alerts on by default; users opt out per channel.
		ExpiryAlerts:       true,
		EmailNotifications: true,
		InAppNotifications: true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *userService) UpdatePreferences(ctx context.Context, id int64, req *UpdatePreferencesRequest) error {
	return s.userRepo.UpdatePreferences(ctx, id, req.ExpiryAlerts, req.EmailNotifications, req.InAppNotifications)
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	return s.userRepo.Delete(ctx, id)
}

func (s *userService) GetAllUsers(ctx context.Context) ([]*entity.User, error) {
	return s.userRepo.GetAll(ctx)
}
