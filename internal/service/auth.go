// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes storage
//
// Services depend on repository interfaces, never on a concrete store, and
// know nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/madison-marketplace/internal/apperror"
	"github.com/sakif/madison-marketplace/internal/auth"
	"github.com/sakif/madison-marketplace/internal/model"
	"github.com/sakif/madison-marketplace/internal/repository"
)

// InvalidCredentials is the only message a failed login ever produces, so
// callers cannot tell an unknown email from a wrong password.
const InvalidCredentials = "Invalid credentials"

// AuthService registers accounts and checks credentials.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → credential records
//   - policy     *auth.Policy              → email domain and password rules
//   - passwords  *auth.PasswordService     → bcrypt
//   - tokens     *auth.TokenService        → session JWTs; nil disables sessions
type AuthService struct {
	users     repository.UserRepository
	policy    *auth.Policy
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	policy *auth.Policy,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		policy:    policy,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// AuthResult is returned by Login. Token is empty when sessions are disabled.
type AuthResult struct {
	Email string
	Token string
}

// CreateAccount validates and stores a new account. password is wiped
// before returning, whatever the outcome.
func (s *AuthService) CreateAccount(ctx context.Context, email string, password []byte) error {
	defer auth.Wipe(password)

	email = auth.NormalizeEmail(email)
	if err := s.policy.ValidateEmail(email); err != nil {
		return err
	}
	if err := s.policy.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("service/auth: hashing password: %w", err)
	}

	// The store's insert is atomic per email: of two concurrent registrations
	// exactly one gets through and the other sees a conflict.
	if err := s.users.Create(ctx, &model.User{Email: email, PasswordHash: hash}); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return &apperror.AppError{Err: apperror.ErrConflict, Message: "Account already exists", Field: "email"}
		}
		return fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("account created", slog.String("email", email))
	return nil
}

// Login checks credentials and returns the normalized email plus a session
// token. password is wiped before returning.
func (s *AuthService) Login(ctx context.Context, email string, password []byte) (*AuthResult, error) {
	defer auth.Wipe(password)

	email = auth.NormalizeEmail(email)
	invalid := apperror.Unauthorized(InvalidCredentials)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			_ = s.passwords.VerifyUnknown(password)
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash unusable",
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
		}
		return nil, invalid
	}

	result := &AuthResult{Email: user.Email}
	if s.tokens != nil {
		token, err := s.tokens.Generate(user.Email)
		if err != nil {
			return nil, fmt.Errorf("service/auth: generating token: %w", err)
		}
		result.Token = token
	}

	s.logger.Info("login succeeded", slog.String("email", user.Email))
	return result, nil
}
