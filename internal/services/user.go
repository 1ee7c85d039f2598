package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/store"
	"github.com/jameskabbes/gallery-api/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrUsernameTaken      = errors.New("username already in use")
)

type UserService struct {
	store *store.Store
	cfg   *config.Config
}

func NewUserService(s *store.Store, cfg *config.Config) *UserService {
	return &UserService{store: s, cfg: cfg}
}

// Authenticate resolves the identifier against email and username, then
// checks the password. Users created through magic links or Google sign-in
// have no password hash and cannot log in with a password.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmailOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if !util.CheckPassword(password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Create adds a user with the default role. Password is optional.
func (s *UserService) Create(ctx context.Context, email string, password *string) (*models.User, error) {
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	user := &models.User{
		ID:     uuid.New().String(),
		Email:  email,
		RoleID: s.cfg.DefaultRoleID(),
	}
	if password != nil {
		hash, err := util.HashPassword(*password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = &hash
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the user-editable fields. A set username must stay
// unique; clearing it makes the user private again.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, username, phoneNumber *string, password *string) (*models.User, error) {
	if username != nil && *username != "" {
		existing, err := s.store.GetUserByUsername(ctx, *username)
		if err == nil && existing.ID != user.ID {
			return nil, ErrUsernameTaken
		} else if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
			return nil, err
		}
		user.Username = username
	}
	if phoneNumber != nil {
		user.PhoneNumber = phoneNumber
	}
	if password != nil {
		hash, err := util.HashPassword(*password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = &hash
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user and, through cascading deletes, their credentials
// and galleries.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteUser(ctx, id)
}
