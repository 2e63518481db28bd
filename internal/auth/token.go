package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/utilities"
)

// ErrMissingSecret is returned when the issuer is built without a key.
var ErrMissingSecret = errors.New("jwt secret is required")

// Claims carried by access tokens. The subject is the account id.
type Claims struct {
	Email     string `json:"email"`
	ProfileID int64  `json:"perfilId"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(cfg Config) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(cfg.Secret), ttl: ttl, now: time.Now}, nil
}

// Issue creates a signed token for acc. The returned claims carry the
// token id used to track the session.
func (t *TokenIssuer) Issue(acc scope.Account) (string, Claims, error) {
	now := t.now()
	claims := Claims{
		Email:     acc.Email,
		ProfileID: acc.ProfileID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utilities.NewKSUID(),
			Subject:   acc.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

// Verify checks signature and expiry. Every failure wraps scope.ErrUnauthorized.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tk *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", scope.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token without subject: %w", scope.ErrUnauthorized)
	}
	return &claims, nil
}
