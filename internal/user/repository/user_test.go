package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"coderelay/internal/common/db"

	"github.com/go-sql-driver/mysql"
)

type fakeResult struct{ id int64 }

func (r fakeResult) LastInsertId() (int64, error) { return r.id, nil }
func (r fakeResult) RowsAffected() (int64, error) { return 1, nil }

type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		switch d := dest[i].(type) {
		case *int64:
			*d = r.values[i].(int64)
		case *string:
			*d = r.values[i].(string)
		case *time.Time:
			*d = r.values[i].(time.Time)
		default:
			return fmt.Errorf("unsupported dest %T", d)
		}
	}
	return nil
}

type fakeDB struct {
	lastQuery string
	lastArgs  []interface{}
	execErr   error
	row       fakeRow
}

func (f *fakeDB) QueryRow(ctx context.Context, query string, args ...interface{}) db.Row {
	f.lastQuery, f.lastArgs = query, args
	return f.row
}

func (f *fakeDB) Exec(ctx context.Context, query string, args ...interface{}) (db.Result, error) {
	f.lastQuery, f.lastArgs = query, args
	if f.execErr != nil {
		return nil, f.execErr
	}
	return fakeResult{id: 42}, nil
}

func (f *fakeDB) Ping(ctx context.Context) error { return nil }
func (f *fakeDB) Close() error                   { return nil }

func TestCreateUser(t *testing.T) {
	database := &fakeDB{}
	repo := NewUserRepository(db.NewStaticProvider(database))

	user := &User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"}
	id, err := repo.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id != 42 || user.ID != 42 {
		t.Fatalf("unexpected id: %d", id)
	}
	if len(database.lastArgs) != 3 || database.lastArgs[1] != "ada@example.com" {
		t.Fatalf("unexpected args: %v", database.lastArgs)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database := &fakeDB{execErr: fmt.Errorf("exec failed: %w", &mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry 'ada@example.com' for key 'users.uk_users_email'",
	})}
	repo := NewUserRepository(db.NewStaticProvider(database))

	_, err := repo.Create(context.Background(), &User{Email: "ada@example.com"})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	database.execErr = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'PRIMARY'"}
	_, err = repo.Create(context.Background(), &User{Email: "ada@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetByEmail(t *testing.T) {
	now := time.Now()
	database := &fakeDB{row: fakeRow{values: []interface{}{int64(7), "Ada", "ada@example.com", "hash", now, now}}}
	repo := NewUserRepository(db.NewStaticProvider(database))

	user, err := repo.GetByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if user.ID != 7 || user.Name != "Ada" || user.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if database.lastArgs[0] != "ada@example.com" {
		t.Fatalf("unexpected args: %v", database.lastArgs)
	}
}

func TestGetByEmailNotFound(t *testing.T) {
	database := &fakeDB{row: fakeRow{err: fmt.Errorf("scan failed: %w", sql.ErrNoRows)}}
	repo := NewUserRepository(db.NewStaticProvider(database))

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRepositoryWithoutDatabase(t *testing.T) {
	repo := NewUserRepository(nil)
	if _, err := repo.GetByEmail(context.Background(), "x@y.z"); err == nil {
		t.Fatalf("expected error without database")
	}
}
