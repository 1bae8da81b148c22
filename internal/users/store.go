package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go_gone/internal/auth"
	"go_gone/internal/model"

	"gorm.io/gorm"
)

var (
	// ErrNotFound means no user has the given username
	ErrNotFound = errors.New("user not found")
	// ErrExists means the username is taken
	ErrExists = errors.New("user already exists")
)

// Store reads and creates admin API operators
type Store struct {
	db *gorm.DB
}

// NewStore creates a user store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindByUsername returns the user or ErrNotFound
func (s *Store) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create hashes the password and inserts an active user
func (s *Store) Create(ctx context.Context, username, password, role string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if role != model.RoleAdmin && role != model.RoleViewer {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Status:       model.UserStatusActive,
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrExists, username)
		}
		return nil, err
	}
	return u, nil
}
