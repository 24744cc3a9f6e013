package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"blogapi/internal/models"
	"blogapi/internal/repository"
)

const (
	resetCodeMin   = 10_000_000
	resetCodeRange = 90_000_000 // codes fall in [10,000,000, 99,999,999]
)

type AuthOptions struct {
	JWTSecret string
	// ResetTokenTTL defaults to one hour.
	ResetTokenTTL time.Duration
	// SupersedePriorTokens deletes outstanding codes for an email before a
	// new one is issued. When false several codes may be valid at once.
	SupersedePriorTokens bool
}

type AuthService struct {
	users     repository.UserRepository
	resets    repository.PasswordResetRepository
	mailer    EmailSender
	secret    []byte
	resetTTL  time.Duration
	supersede bool
	now       func() time.Time
	newCode   func() (string, error)
}

func NewAuthService(users repository.UserRepository, resets repository.PasswordResetRepository, mailer EmailSender, opts AuthOptions) *AuthService {
	ttl := opts.ResetTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{
		users:     users,
		resets:    resets,
		mailer:    mailer,
		secret:    []byte(opts.JWTSecret),
		resetTTL:  ttl,
		supersede: opts.SupersedePriorTokens,
		now:       func() time.Time { return time.Now().UTC() },
		newCode:   generateResetCode,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and returns it with a session token.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: username, email and password are required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.IssueSessionToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials. An unknown email yields repository.ErrNotFound,
// a wrong password ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueSessionToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// IssueSessionToken signs a token whose only claim is the user id. It has no
// expiry; rotating JWT_SECRET revokes every token.
func (s *AuthService) IssueSessionToken(userID string) (string, error) {
	claims := jwt.RegisteredClaims{Subject: userID}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ForgotPassword issues and emails a reset code when email belongs to a user.
// Unknown emails are a silent no-op so callers cannot probe registrations.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if s.supersede {
		if _, err := s.resets.DeleteByEmail(ctx, u.Email); err != nil {
			return err
		}
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	now := s.now()
	token := &models.PasswordResetToken{
		ID:        uuid.NewString(),
		Email:     u.Email,
		TokenHash: hashResetCode(code),
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return err
	}

	msg, err := PasswordResetMessage(u.Email, code, s.resetTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Printf("forgot-password: failed to send reset email for user %s: %v", u.ID, err)
	}
	return nil
}

// ResetPassword redeems code for email and stores newPassword. The matching
// token is removed whether or not it had expired, so each code redeems once.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: newPassword is required", ErrValidation)
	}
	email = normalizeEmail(email)

	token, err := s.resets.Consume(ctx, email, hashResetCode(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}
	if token.Expired(s.now()) {
		return ErrInvalidOrExpiredToken
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePasswordHash(ctx, u.ID, string(hash))
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+resetCodeMin), nil
}

func hashResetCode(code string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(h[:])
}
