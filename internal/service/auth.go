package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalog-service/internal/apperror"
	"catalog-service/internal/metrics"
	"catalog-service/internal/model"
	"catalog-service/internal/revocation"
	"catalog-service/internal/store"
	"catalog-service/internal/validation"
	"catalog-service/pkg/jwtutil"
	"catalog-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput creates an account
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,oneof=master admin"`
}

// LoginInput exchanges credentials for a token
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is an issued token and the account it belongs to
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Role      model.Role `json:"role"`
	Username  string     `json:"username"`
}

// AuthService registers users, issues tokens and turns tokens back into identities.
type AuthService struct {
	users       store.UserStore
	jwt         *jwtutil.JWTUtil
	revocations revocation.List
	validate    *validation.Validator
	metrics     *metrics.Metrics
	bcryptCost  int
}

// NewAuthService creates an auth service. A nil revocation list disables logout revocation.
func NewAuthService(users store.UserStore, jwt *jwtutil.JWTUtil, revocations revocation.List, v *validation.Validator, m *metrics.Metrics) *AuthService {
	if revocations == nil {
		revocations = revocation.Noop{}
	}
	return &AuthService{
		users:       users,
		jwt:         jwt,
		revocations: revocations,
		validate:    v,
		metrics:     m,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Email and username must both be unused.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, apperror.Conflict("Email already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, internal(ctx, "Failed to register user", err)
	}
	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return nil, apperror.Conflict("Username already taken")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, internal(ctx, "Failed to register user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, internal(ctx, "Failed to register user", err)
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         model.Role(in.Role),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Conflict("Email or username already registered")
		}
		return nil, internal(ctx, "Failed to register user", err)
	}

	logger.FromCtx(ctx).Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))
	return user, nil
}

// Login checks the credentials and issues a token
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	s.metrics.RecordAuthAttempt()
	if err := s.validate.Validate(in); err != nil {
		s.metrics.RecordAuthError("invalid_request")
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.RecordAuthError("unknown_email")
		return nil, apperror.Validation("Invalid credentials")
	}
	if err != nil {
		return nil, internal(ctx, "Failed to log in", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		s.metrics.RecordAuthError("wrong_password")
		return nil, apperror.Validation("Invalid credentials")
	}

	token, claims, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, internal(ctx, "Failed to log in", err)
	}

	s.metrics.RecordAuthSuccess()
	logger.FromCtx(ctx).Info("User logged in", zap.String("user_id", user.ID))
	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Role:      user.Role,
		Username:  user.Username,
	}, nil
}

// Logout revokes token until it expires. Missing or invalid tokens have nothing to revoke.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return internal(ctx, "Failed to log out", err)
	}
	return nil
}

// Authenticate resolves a token into the caller identity
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		s.metrics.RecordAuthError("missing_token")
		return model.Identity{}, apperror.Unauthenticated("No token, authorization denied")
	}

	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		s.metrics.RecordAuthError("invalid_token")
		return model.Identity{}, apperror.Unauthenticated("Token is not valid")
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return model.Identity{}, internal(ctx, "Failed to verify token", err)
	}
	if revoked {
		s.metrics.RecordAuthError("revoked_token")
		return model.Identity{}, apperror.Unauthenticated("Token has been revoked")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.RecordAuthError("unknown_user")
		return model.Identity{}, apperror.Unauthenticated("User not found")
	}
	if err != nil {
		return model.Identity{}, internal(ctx, "Failed to verify token", err)
	}

	return model.Identity{UserID: user.ID, Role: user.Role}, nil
}
