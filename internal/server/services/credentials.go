package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/auth"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

// LoginResult is returned on successful credential login.
type LoginResult struct {
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        *models.User `json:"user"`
}

// NewAccount is the input of Register.
type NewAccount struct {
	Name     string
	Email    string
	Password string
	Image    *string
	Role     string
}

// CredentialService handles credential login, registration and resolving the
// current user from an access token.
type CredentialService struct {
	store                       AuthStore
	hasher                      auth.PasswordHasher
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	logger                      logging.Logger
}

func NewCredentialService(store AuthStore, hasher auth.PasswordHasher, cfg *config.Config, logger logging.Logger) *CredentialService {
	return &CredentialService{
		store:                       store,
		hasher:                      hasher,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		logger:                      logger.With("module", "credentials"),
	}
}

// Login verifies the credentials and issues an access token carrying the
// user's id and role.
func (s *CredentialService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.Authorize(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Info(ctx, "login rejected")
		}
		return nil, err
	}

	expiresAt := time.Now().Add(s.accessTokenValidityDuration)
	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		s.logger.Error(ctx, "token signing failed", "error", err)
		return nil, common.Failure("token issue")
	}

	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// Register hashes the password and creates the user.
func (s *CredentialService) Register(ctx context.Context, acc NewAccount) (*models.User, error) {
	if acc.Email == "" {
		return nil, invalid("email is required")
	}
	if acc.Password == "" {
		return nil, invalid("password is required")
	}

	hash, err := s.hasher.Hash(acc.Password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.Failure("password hash")
	}

	return s.store.CreateUser(ctx, models.NewUser{
		Name:           acc.Name,
		Email:          acc.Email,
		Image:          acc.Image,
		Role:           acc.Role,
		HashedPassword: hash,
	})
}

// CurrentUser resolves the user behind an access token. Invalid or expired
// tokens, and tokens of deleted users, yield common.ErrorUnauthorized.
func (s *CredentialService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, common.ErrorUnauthorized
	}

	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	if user == nil {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}
