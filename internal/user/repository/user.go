package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coderelay/internal/common/db"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
	ErrDuplicate    = errors.New("record already exists")
)

// User is a registered account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// MySQLUserRepository stores users in the users table.
type MySQLUserRepository struct {
	dbProvider db.Provider
}

func NewUserRepository(provider db.Provider) *MySQLUserRepository {
	return &MySQLUserRepository{dbProvider: provider}
}

const userColumns = "id, name, email, password_hash, created_at, updated_at"

func (r *MySQLUserRepository) Create(ctx context.Context, user *User) (int64, error) {
	if user == nil {
		return 0, errors.New("user is nil")
	}

	database, err := db.CurrentDatabase(r.dbProvider)
	if err != nil {
		return 0, err
	}
	query := "INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)"
	result, err := database.Exec(ctx, query, user.Name, user.Email, user.PasswordHash)
	if err != nil {
		if key, ok := db.UniqueViolation(err); ok {
			if strings.Contains(strings.ToLower(key), "email") {
				return 0, ErrEmailExists
			}
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert user failed: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read user id failed: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	database, err := db.CurrentDatabase(r.dbProvider)
	if err != nil {
		return nil, err
	}
	var user User
	err = database.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user failed: %w", err)
	}
	return &user, nil
}

var _ UserRepository = (*MySQLUserRepository)(nil)
