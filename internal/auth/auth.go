package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ukydev/safe-route/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const defaultSecret = "default-secret-key-change-in-production"

// Service issues and validates access tokens for API clients.
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration
	clients   map[string]string // client id -> bcrypt hash of its secret
}

// NewService creates a token service. An empty secret falls back to a
// development default; a non-positive expiry means 24 hours.
func NewService(secret string, expiry time.Duration) *Service {
	if secret == "" {
		secret = defaultSecret
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Service{
		jwtSecret: []byte(secret),
		tokenExp:  expiry,
		clients:   make(map[string]string),
	}
}

// RegisterClient allows clientID to obtain tokens with the secret behind hash.
func (s *Service) RegisterClient(clientID, hash string) {
	s.clients[clientID] = hash
}

// Expiry returns the lifetime of issued tokens.
func (s *Service) Expiry() time.Duration {
	return s.tokenExp
}

// HashSecret hashes a client secret using bcrypt
func (s *Service) HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(bytes), nil
}

// CheckSecret checks if a secret matches a hash
func (s *Service) CheckSecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// Authenticate exchanges client credentials for a signed token.
func (s *Service) Authenticate(clientID, secret string) (string, error) {
	hash, ok := s.clients[clientID]
	if !ok || !s.CheckSecret(secret, hash) {
		return "", ErrInvalidCredentials
	}
	return s.GenerateToken(clientID)
}

// GenerateToken generates a JWT for a client
func (s *Service) GenerateToken(clientID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"client_id": clientID,
		"scope":     models.ScopeRisk,
		"exp":       now.Add(s.tokenExp).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT and returns its claims
func (s *Service) ValidateToken(tokenString string) (*models.ClientClaims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	clientID, ok := claims["client_id"].(string)
	if !ok || clientID == "" {
		return nil, ErrInvalidToken
	}
	scope, ok := claims["scope"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &models.ClientClaims{
		ClientID: clientID,
		Scope:    scope,
		Exp:      int64(exp),
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}
