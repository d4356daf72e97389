package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/user"
	"github.com/golang-jwt/jwt/v5"
)

// Service is the main auth service with dependencies
type Service struct {
	users          UserDirectory
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

// NewService creates a new auth service
func NewService(users UserDirectory, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Authenticate validates credentials and returns an access/refresh pair.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*Tokens, error) {
	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}

	a, err := s.users.Credentials(ctx, dto.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to load credentials", err)
	}
	if a == nil || !a.IsActive || !user.VerifyPassword(a, dto.Password) {
		s.logger.Info("login rejected", "username", dto.Username)
		return nil, internal.ErrInvalidCredentials
	}

	access, err := s.tokenGenerator.Generate(AccessToken, a.ID, a.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign access token", err)
	}
	refresh, err := s.tokenGenerator.Generate(RefreshToken, a.ID, a.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign refresh token", err)
	}

	s.logger.Info("login succeeded", "user_id", a.ID, "username", a.Username)
	return &Tokens{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token is not rotated.
func (s *Service) Refresh(ctx context.Context, dto RefreshDTO) (*Tokens, error) {
	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}

	claims, err := s.tokenGenerator.Validate(RefreshToken, dto.Refresh)
	if err != nil {
		return nil, err
	}

	// the account may have been deactivated since the refresh token was issued
	if _, err := s.users.Principal(ctx, claims.UserID); err != nil {
		return nil, err
	}

	access, err := s.tokenGenerator.Generate(AccessToken, claims.UserID, claims.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign access token", err)
	}
	return &Tokens{Access: access}, nil
}

// Verify accepts a valid token of either type.
func (s *Service) Verify(ctx context.Context, dto VerifyDTO) error {
	if verr := dto.Validate(); verr != nil {
		return verr
	}
	if _, err := s.tokenGenerator.Validate(AccessToken, dto.Token); err == nil {
		return nil
	}
	_, err := s.tokenGenerator.Validate(RefreshToken, dto.Token)
	return err
}

// Principal validates an access token and loads the caller it names.
func (s *Service) Principal(ctx context.Context, token string) (*internal.Principal, error) {
	claims, err := s.tokenGenerator.Validate(AccessToken, token)
	if err != nil {
		return nil, err
	}
	return s.users.Principal(ctx, claims.UserID)
}

func (j *JWTTokenGenerator) keyFor(tokenType TokenType) ([]byte, time.Duration, error) {
	switch tokenType {
	case AccessToken:
		return j.AccessTokenSecret, j.AccessTokenTTL, nil
	case RefreshToken:
		return j.RefreshTokenSecret, j.RefreshTokenTTL, nil
	}
	return nil, 0, fmt.Errorf("unknown token type %q", tokenType)
}

// Generate signs a token of the given type with HS256.
func (j *JWTTokenGenerator) Generate(tokenType TokenType, userID int64, username string) (string, error) {
	secret, ttl, err := j.keyFor(tokenType)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Validate checks the signature with the secret of tokenType and rejects tokens of the other type.
func (j *JWTTokenGenerator) Validate(tokenType TokenType, tokenString string) (*Claims, error) {
	secret, _, err := j.keyFor(tokenType)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
