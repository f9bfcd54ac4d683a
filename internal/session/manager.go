package session

import (
	"errors"
	"time"

	"casecall-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager issues and verifies session tokens for all three participant
// populations. One signing key serves all kinds; the kind claim keeps
// the populations apart.
type Manager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &Manager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      cfg.SessionTTL,
	}, nil
}

// Issue mints a session token. employerID is required for delegate
// sessions and must be empty otherwise.
func (m *Manager) Issue(now time.Time, kind Kind, principalID, employerID string) (string, error) {
	if principalID == "" {
		return "", errors.New("principal_id required")
	}
	switch kind {
	case KindClient, KindConsultant:
		if employerID != "" {
			return "", errors.New("employer_id only valid on delegate sessions")
		}
	case KindDelegate:
		if employerID == "" {
			return "", errors.New("employer_id required for delegate sessions")
		}
	default:
		return "", errors.New("unknown session kind")
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Audience:  audienceOrNil(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
		PrincipalID: principalID,
		SessionKind: kind,
		EmployerID:  employerID,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Verify parses and validates a session token of the expected kind.
// A structurally valid token of a different kind is not an error here;
// callers distinguish that case via ErrKindMismatch so a credential can
// be offered to each validator in turn.
var ErrKindMismatch = errors.New("session: kind mismatch")

func (m *Manager) Verify(tokenString string, expected Kind, now time.Time) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	parser := jwt.NewParser(opts...)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	if claims.PrincipalID == "" {
		return Claims{}, errors.New("principal_id missing")
	}
	if claims.SessionKind != expected {
		return Claims{}, ErrKindMismatch
	}
	if claims.SessionKind == KindDelegate && claims.EmployerID == "" {
		return Claims{}, errors.New("employer_id missing in delegate session")
	}

	return claims, nil
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
