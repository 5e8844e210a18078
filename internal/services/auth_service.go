package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aquaserve-backend/internal/models"
	"aquaserve-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService authenticates users and issues JWTs.
type AuthService struct {
	directory   repository.DirectoryRepositoryInterface
	jwtSecret   []byte
	tokenExpiry time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(directory repository.DirectoryRepositoryInterface, jwtSecret string, tokenExpiryHours int) *AuthService {
	return &AuthService{
		directory:   directory,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: time.Duration(tokenExpiryHours) * time.Hour,
	}
}

// Claims carried in issued tokens.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult bundles the issued token with the authenticated user.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Login verifies credentials and issues a signed token. Inactive accounts
// cannot log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.directory.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, forbiddenf("Invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, forbiddenf("Invalid email or password")
	}
	if !user.IsActive() {
		return nil, forbiddenf("Account is inactive")
	}

	expiresAt := time.Now().Add(s.tokenExpiry)
	claims := Claims{
		UserID: user.ID.String(),
		Role:   user.RoleName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ParseToken validates a token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, forbiddenf("Invalid or expired token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, forbiddenf("Invalid or expired token")
	}
	return claims, nil
}

// UserID parses the claim subject as a UUID.
func (c *Claims) ParsedUserID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}
