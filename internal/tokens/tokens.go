package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EmailTokenTTL is the lifetime of email-action (verify/reset) tokens.
const EmailTokenTTL = 7 * 24 * time.Hour

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidEmailToken = errors.New("invalid email token")
)

// Token kinds. Each decoder accepts only its own kind, so a session token can
// never redeem an email action and an email link never authenticates.
const (
	KindSession = "session"
	KindEmail   = "email"
)

type SessionClaims struct {
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

type EmailClaims struct {
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

// Service signs and validates session and email-action tokens with one
// symmetric key. It keeps no state besides the key.
type Service struct {
	secret     []byte
	method     jwt.SigningMethod
	sessionTTL time.Duration
	now        func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(secret []byte, algorithm string, sessionTTL time.Duration, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("tokens: empty signing secret")
	}
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("tokens: unsupported signing algorithm %q", algorithm)
	}
	if sessionTTL <= 0 {
		return nil, errors.New("tokens: session ttl must be positive")
	}

	s := &Service{
		secret:     secret,
		method:     method,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

// IssueSessionToken signs {typ: session, sub: username, exp: now+ttl}. A non-positive ttl
// means the configured default.
func (s *Service) IssueSessionToken(username string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.sessionTTL
	}
	claims := SessionClaims{
		Kind: KindSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

// IssueEmailToken signs {typ: email, sub: email, iat: now, exp: now+7d}.
func (s *Service) IssueEmailToken(email string) (string, error) {
	now := s.now()
	claims := EmailClaims{
		Kind: KindEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(EmailTokenTTL)),
		},
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

func (s *Service) DecodeSessionToken(tokenStr string) (string, error) {
	var claims SessionClaims
	if err := s.parse(tokenStr, &claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Kind != KindSession {
		return "", fmt.Errorf("%w: unexpected token kind %q", ErrInvalidToken, claims.Kind)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func (s *Service) DecodeEmailToken(tokenStr string) (string, error) {
	var claims EmailClaims
	if err := s.parse(tokenStr, &claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEmailToken, err)
	}
	if claims.Kind != KindEmail {
		return "", fmt.Errorf("%w: unexpected token kind %q", ErrInvalidEmailToken, claims.Kind)
	}
	if claims.IssuedAt == nil {
		return "", fmt.Errorf("%w: missing issued-at", ErrInvalidEmailToken)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidEmailToken)
	}
	return claims.Subject, nil
}

func (s *Service) parse(tokenStr string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	return err
}
