package auth

import (
	"errors"
	"fmt"
	"time"

	"speakai-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the access token payload. Subject is the user email; Role is
// informational only, since the middleware reloads the user on every request.
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
}

// Manager signs and verifies access tokens with one shared secret.
type Manager struct {
	secret    []byte
	method    jwt.SigningMethod
	issuer    string
	accessTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	alg := cfg.JWTAlgorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, err := signingMethod(alg)
	if err != nil {
		return nil, err
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &Manager{
		secret:    []byte(cfg.JWTSecret),
		method:    method,
		issuer:    cfg.JWTIssuer,
		accessTTL: ttl,
	}, nil
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case jwt.SigningMethodHS256.Alg():
		return jwt.SigningMethodHS256, nil
	case jwt.SigningMethodHS384.Alg():
		return jwt.SigningMethodHS384, nil
	case jwt.SigningMethodHS512.Alg():
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q", alg)
	}
}

/* ===================== ISSUE ===================== */

// Issue signs an access token for email with the configured algorithm.
func (m *Manager) Issue(now time.Time, email, role string) (string, error) {
	if email == "" {
		return "", errors.New("email is required")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			ID:        uuid.NewString(),
		},
		Role: role,
	}
	return jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
}

// Verify checks signature, algorithm, expiry and issuer at now.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second),
	)
	if _, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return Claims{}, err
	}

	if m.issuer != "" && claims.Issuer != m.issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.Subject == "" {
		return Claims{}, errors.New("subject missing")
	}
	return claims, nil
}
