package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("token signature mismatch")
	ErrTokenExpired   = errors.New("token expired")
	ErrNoSubject      = errors.New("token has no subject")
)

// Claims identify a user: the registered sub/iat/exp claims plus the
// profile fields shown by the CLI.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// NewClaims issues claims for sub at issued. A ttl of zero or less never expires.
func NewClaims(sub string, issued time.Time, ttl time.Duration) Claims {
	c := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:  sub,
		IssuedAt: jwt.NewNumericDate(issued),
	}}
	if ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(issued.Add(ttl))
	}
	return c
}

// Expiry is the exp claim, or nil when the token never expires.
func (c Claims) Expiry() *time.Time {
	if c.ExpiresAt == nil {
		return nil
	}
	t := c.ExpiresAt.Time
	return &t
}

// Issue signs c with secret as a compact HS256 JWT.
func Issue(secret []byte, c Claims) (string, error) {
	if c.Subject == "" {
		return "", ErrNoSubject
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// Verify checks the signature and expiry of token and returns its claims.
func Verify(secret []byte, token string, now time.Time) (Claims, error) {
	p := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	var c Claims
	_, err := p.ParseWithClaims(clean(token), &c, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}
	if c.Subject == "" {
		return Claims{}, ErrNoSubject
	}
	return c, nil
}

// Decode reads the claims without checking the signature. The CLI uses it to
// show who is logged in; servers must use Verify.
func Decode(token string) (Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(clean(token), &c); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	return c, nil
}

func clean(token string) string {
	return stripBearer(strings.TrimSpace(token))
}

// classify maps parser errors onto this package's sentinels, keeping the
// parser's error in the chain.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}
