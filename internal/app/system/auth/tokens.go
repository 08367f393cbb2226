// Package auth issues and verifies the JWTs that authenticate API requests,
// and carries the authenticated user through the request context.
//
// Two token kinds are issued per login:
//   - access tokens: short-lived, sent on every request (Bearer header or
//     accessToken cookie)
//   - refresh tokens: long-lived, only accepted by the refresh endpoint and
//     bound to the user record by hash so logout can revoke them
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Token kinds, stored in the "typ" claim so an access token can never be
// replayed as a refresh token or vice versa.
const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Errors returned by token verification.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims are the JWT claims carried by both token kinds.
type Claims struct {
	Email string `json:"email,omitempty"`
	Kind  string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Subject)
}

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	// Secure enforces strong secrets; set in production.
	Secure bool
}

// ConfigError is returned when token configuration is invalid.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	parser        *jwt.Parser
}

// NewTokenManager validates cfg and returns a TokenManager.
//
// Empty secrets are always rejected. Weak secrets (shorter than 32 chars or
// obvious placeholders) are rejected when cfg.Secure is set and logged as a
// warning otherwise.
func NewTokenManager(cfg TokenConfig, logger *zap.Logger) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, &ConfigError{Message: "JWT secrets are empty; provide ≥32 random chars for both"}
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, &ConfigError{Message: "JWT access and refresh secrets must differ"}
	}

	for name, secret := range map[string]string{"access": cfg.AccessSecret, "refresh": cfg.RefreshSecret} {
		weak := len(secret) < 32 || isDefaultKey(secret)
		if !weak {
			continue
		}
		if cfg.Secure {
			return nil, &ConfigError{
				Message: fmt.Sprintf("JWT %s secret is too weak for production; provide ≥32 random chars", name),
			}
		}
		logger.Warn("JWT secret is weak; 32+ random chars required in production",
			zap.String("token", name),
			zap.Int("length", len(secret)),
			zap.Bool("is_default", isDefaultKey(secret)))
	}

	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 5 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "stratadaily"
	}

	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}, nil
}

// Pair is an access/refresh token pair with their expiry times.
type Pair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Issue signs a new token pair for the user.
func (m *TokenManager) Issue(userID primitive.ObjectID, email string) (Pair, error) {
	now := time.Now()

	access, accessExp, err := m.sign(kindAccess, userID, email, now, m.accessTTL, m.accessSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := m.sign(kindRefresh, userID, "", now, m.refreshTTL, m.refreshSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return Pair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *TokenManager) sign(kind string, userID primitive.ObjectID, email string, now time.Time, ttl time.Duration, secret []byte) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := Claims{
		Email: email,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        primitive.NewObjectID().Hex(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	return token, exp, err
}

// VerifyAccess parses and validates an access token.
func (m *TokenManager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, kindAccess, m.accessSecret)
}

// VerifyRefresh parses and validates a refresh token.
func (m *TokenManager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(token, kindRefresh, m.refreshSecret)
}

func (m *TokenManager) verify(token, kind string, secret []byte) (*Claims, error) {
	var claims Claims
	_, err := m.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: wrong token kind %q", ErrInvalidToken, claims.Kind)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}
	return &claims, nil
}

// RefreshTTL returns how long refresh tokens live.
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// isDefaultKey checks if a secret appears to be a default/placeholder value.
func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	patterns := []string{
		"dev-only",
		"change-me",
		"placeholder",
		"default",
		"example",
		"insecure",
		"test-key",
		"secret123",
		"password",
	}
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
