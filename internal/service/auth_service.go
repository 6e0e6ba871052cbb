package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/crescendo-labs/music-school-api/internal/models"
	appErrors "github.com/crescendo-labs/music-school-api/pkg/errors"
)

// AuthConfig defines configuration for token issuance.
type AuthConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// AuthService issues and verifies signed session tokens. Sessions carry only
// the identity email; roles are resolved from the store on every request so
// role changes take effect without re-login.
type AuthService struct {
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiration <= 0 {
		config.Expiration = 3 * time.Hour
	}
	return &AuthService{validator: validate, logger: logger, config: config}
}

// IssueToken signs a session token for the requested email.
// There is no refresh flow; expired sessions re-issue via this endpoint.
func (s *AuthService) IssueToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid token payload")
	}

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiration)
	claims := &models.JWTClaims{
		Email: req.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   req.Email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	return &models.TokenResponse{
		Token:     signed,
		ExpiresIn: int64(s.config.Expiration.Seconds()),
		IssuedAt:  issuedAt,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
