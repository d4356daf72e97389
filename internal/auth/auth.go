package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/user"
	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Tokens is the /auth/token/ response.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenGenerator signs and validates tokens of both types.
type TokenGenerator interface {
	Generate(tokenType TokenType, userID int64, username string) (string, error)
	Validate(tokenType TokenType, tokenString string) (*Claims, error)
}

// UserDirectory is the slice of the user service authentication needs.
type UserDirectory interface {
	Credentials(ctx context.Context, username string) (*user.Account, error)
	Principal(ctx context.Context, id int64) (*internal.Principal, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}
