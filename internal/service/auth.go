package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/lesson-loop/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	MinPasswordLength = 8
)

// TokenPair is a short-lived access token and the refresh token that can
// be exchanged for the next pair.
type TokenPair struct {
	Access  string
	Refresh string
}

// AuthService handles user registration, login, and JWT token operations.
type AuthService struct {
	users      domain.UserRepository
	revoked    domain.RevokedTokenRepository
	jwtSecret  []byte
	bcryptCost int
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, revoked domain.RevokedTokenRepository, jwtSecret string, bcryptCost int, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		revoked:    revoked,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates a new user account and signs them in.
func (s *AuthService) Register(ctx context.Context, email, firstName, lastName, password string) (*domain.User, TokenPair, error) {
	email = normalizeEmail(email)
	firstName = strings.TrimSpace(firstName)
	if email == "" || firstName == "" || password == "" {
		return nil, TokenPair{}, fmt.Errorf("%w: email, first name, and password are required", domain.ErrInvalidInput)
	}

	if len(password) < MinPasswordLength {
		return nil, TokenPair{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		FirstName:    firstName,
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.issue(user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Login verifies credentials and returns a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, TokenPair{}, domain.ErrUnauthorized
		}
		return nil, TokenPair{}, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, TokenPair{}, domain.ErrUnauthorized
	}

	pair, err := s.issue(user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked, so each refresh token works once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	if _, err := s.users.GetByID(ctx, claims.Subject); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenPair{}, domain.ErrUnauthorized
		}
		return TokenPair{}, fmt.Errorf("get user: %w", err)
	}

	// Only the caller whose insert lands gets a new pair.
	revoked, err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return TokenPair{}, fmt.Errorf("revoke refresh token: %w", err)
	}
	if !revoked {
		return TokenPair{}, domain.ErrUnauthorized
	}
	return s.issue(claims.Subject)
}

// Logout revokes a refresh token belonging to userID. A token that does
// not parse is invalid input; revoking an already revoked token succeeds.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return fmt.Errorf("%w: invalid refresh token", domain.ErrInvalidInput)
	}
	if claims.Subject != userID {
		return domain.ErrUnauthorized
	}
	if _, err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// ValidateAccessToken parses and validates an access token.
// Returns the user ID from the sub claim.
func (s *AuthService) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := s.parse(tokenString, tokenTypeAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// PurgeRevoked drops revocation entries for tokens that have expired anyway.
func (s *AuthService) PurgeRevoked(ctx context.Context, now time.Time) (int64, error) {
	return s.revoked.PurgeExpired(ctx, now)
}

type tokenClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func (s *AuthService) issue(userID string) (TokenPair, error) {
	access, err := s.sign(userID, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(userID, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *AuthService) sign(userID, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) parse(tokenString, typ string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.Type != typ || claims.Subject == "" || claims.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
