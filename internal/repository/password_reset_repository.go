package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blogapi/internal/models"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	// Consume atomically deletes and returns the newest token matching
	// (email, tokenHash). Expired rows are returned too; the caller decides.
	Consume(ctx context.Context, email string, tokenHash string) (*models.PasswordResetToken, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}

type passwordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (id, email, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, token.ID, token.Email, token.TokenHash, token.ExpiresAt, token.CreatedAt).Scan(&token.CreatedAt)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

func (r *passwordResetRepository) Consume(ctx context.Context, email string, tokenHash string) (*models.PasswordResetToken, error) {
	query := `
		DELETE FROM password_reset_tokens
		WHERE id = (
			SELECT id FROM password_reset_tokens
			WHERE email = $1 AND token_hash = $2
			ORDER BY created_at DESC
			LIMIT 1
		)
		RETURNING id, email, token_hash, expires_at, created_at
	`

	var t models.PasswordResetToken
	err := r.db.QueryRowContext(ctx, query, email, tokenHash).Scan(&t.ID, &t.Email, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reset token: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return &t, nil
}

func (r *passwordResetRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE email = $1`, email)
	if err != nil {
		return 0, fmt.Errorf("delete reset tokens: %w", err)
	}
	return res.RowsAffected()
}
