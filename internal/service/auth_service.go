package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"coursemarket/internal/config"
	"coursemarket/internal/models"
	"coursemarket/internal/repository"
	"coursemarket/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("name, email and password required")
)

// TokenRevoker is satisfied by repository.RevocationRepository.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type AuthService struct {
	users   *repository.UserRepository
	tokens  *security.TokenIssuer
	revoker TokenRevoker
	log     zerolog.Logger
}

func NewAuthService(
	users *repository.UserRepository,
	tokens *security.TokenIssuer,
	revoker TokenRevoker,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		revoker: revoker,
		log:     log,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthResult struct {
	Token string
	User  models.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return AuthResult{}, ErrMissingFields
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.Create(ctx, models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: passwordHash,
		Role:     models.UserRoleUser,
	})
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info().Int("user_id", user.ID).Str("email", user.Email).Msg("user registered")
	return s.issue(user)
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	ok, err := security.CheckPassword(input.Password, user.Password)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	if !security.IsHashed(user.Password) {
		s.upgradeLegacyPassword(ctx, user.ID, input.Password)
	}

	return s.issue(user)
}

// upgradeLegacyPassword replaces a plaintext password with its hash. A
// failure here does not fail the login.
func (s *AuthService) upgradeLegacyPassword(ctx context.Context, userID int, password string) {
	hash, err := security.HashPassword(password)
	if err == nil {
		err = s.users.SetPassword(ctx, userID, hash)
	}
	if err != nil {
		s.log.Warn().Err(err).Int("user_id", userID).Msg("password rehash failed")
		return
	}
	s.log.Info().Int("user_id", userID).Msg("legacy password rehashed")
}

func (s *AuthService) Logout(ctx context.Context, claims security.AccessClaims) error {
	if s.revoker == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *AuthService) Profile(ctx context.Context, userID int) (models.User, error) {
	return s.users.GetByID(ctx, userID)
}

type UpdateProfileInput struct {
	Name  string
	Email string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (models.User, error) {
	return s.users.UpdateProfile(ctx, userID, strings.TrimSpace(input.Name), normalizeEmail(input.Email))
}

// EnsureAdmin creates the configured administrator when no admin exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	count, err := s.users.CountByRole(ctx, models.UserRoleAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := security.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	admin, err := s.users.Create(ctx, models.User{
		Name:     cfg.Name,
		Email:    normalizeEmail(cfg.Email),
		Password: hash,
		Role:     models.UserRoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	s.log.Info().Int("user_id", admin.ID).Str("email", admin.Email).Msg("default admin created")
	return nil
}

func (s *AuthService) issue(user models.User) (AuthResult, error) {
	token, _, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
