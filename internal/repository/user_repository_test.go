package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"blogapi/internal/models"
)

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("u1", "alice", "a@b.com", "hash", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	repo := NewUserRepository(db)
	err = repo.Create(context.Background(), &models.User{
		ID: "u1", Username: "alice", Email: "a@b.com", PasswordHash: "hash", CreatedAt: time.Now().UTC(),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cols := []string{"id", "username", "email", "password_hash", "created_at"}
	mock.ExpectQuery(`SELECT id, username, email, password_hash, created_at\s+FROM users\s+WHERE email = \$1`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "alice", "a@b.com", "hash", time.Now().UTC()))
	mock.ExpectQuery(`FROM users\s+WHERE email = \$1`).
		WithArgs("missing@b.com").
		WillReturnRows(sqlmock.NewRows(cols))

	repo := NewUserRepository(db)
	u, err := repo.GetByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.ID != "u1" || u.Username != "alice" {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := repo.GetByEmail(context.Background(), "missing@b.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserUpdatePasswordHashMissingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE users SET password_hash = \$1 WHERE id = \$2`).
		WithArgs("newhash", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewUserRepository(db).UpdatePasswordHash(context.Background(), "u1", "newhash")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestPasswordResetConsume(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	cols := []string{"id", "email", "token_hash", "expires_at", "created_at"}
	mock.ExpectQuery(`DELETE FROM password_reset_tokens\s+WHERE id = \(\s*SELECT id FROM password_reset_tokens`).
		WithArgs("a@b.com", "h1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("t1", "a@b.com", "h1", now.Add(time.Hour), now))
	mock.ExpectQuery(`DELETE FROM password_reset_tokens`).
		WithArgs("a@b.com", "h1").
		WillReturnRows(sqlmock.NewRows(cols))

	repo := NewPasswordResetRepository(db)
	tok, err := repo.Consume(context.Background(), "a@b.com", "h1")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if tok.ID != "t1" || tok.Expired(now) {
		t.Fatalf("unexpected token %+v", tok)
	}

	if _, err := repo.Consume(context.Background(), "a@b.com", "h1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second consume: expected ErrNotFound got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPasswordResetDeleteByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM password_reset_tokens WHERE email = \$1`).
		WithArgs("a@b.com").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := NewPasswordResetRepository(db).DeleteByEmail(context.Background(), "a@b.com")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted got %d (%v)", n, err)
	}
}
