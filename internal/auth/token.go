package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// MinSecretLength is the shortest accepted HMAC signing secret in bytes.
const MinSecretLength = 32

var (
	// ErrInvalidToken is returned for any token that must not be trusted:
	// bad signature, wrong algorithm, expired, malformed or missing claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWeakSecret indicates the signing secret is too short.
	ErrWeakSecret = errors.New("token secret too short")
)

// Claims are the JWT claims carried by access tokens. Subject is the user's email.
//
// iat and exp are encoded as decimal seconds with up to nine fractional
// digits, so a token expires exactly TTL after it was issued.
type Claims struct {
	jwt.RegisteredClaims
}

type wireClaims struct {
	Issuer    string      `json:"iss,omitempty"`
	Subject   string      `json:"sub,omitempty"`
	ID        string      `json:"jti,omitempty"`
	IssuedAt  json.Number `json:"iat,omitempty"`
	ExpiresAt json.Number `json:"exp,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c Claims) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireClaims{
		Issuer:    c.Issuer,
		Subject:   c.Subject,
		ID:        c.ID,
		IssuedAt:  formatNumericDate(c.IssuedAt),
		ExpiresAt: formatNumericDate(c.ExpiresAt),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Claims) UnmarshalJSON(b []byte) error {
	var w wireClaims
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	iat, err := parseNumericDate(w.IssuedAt)
	if err != nil {
		return fmt.Errorf("iat: %w", err)
	}
	exp, err := parseNumericDate(w.ExpiresAt)
	if err != nil {
		return fmt.Errorf("exp: %w", err)
	}
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    w.Issuer,
		Subject:   w.Subject,
		ID:        w.ID,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}
	return nil
}

func formatNumericDate(d *jwt.NumericDate) json.Number {
	if d == nil {
		return ""
	}
	sec, nsec := d.Unix(), d.Nanosecond()
	if nsec == 0 {
		return json.Number(strconv.FormatInt(sec, 10))
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", nsec), "0")
	return json.Number(strconv.FormatInt(sec, 10) + "." + frac)
}

// parseNumericDate reads the digits directly; going through float64 would
// lose sub-microsecond precision on current epoch values.
func parseNumericDate(n json.Number) (*jwt.NumericDate, error) {
	if n == "" {
		return nil, nil
	}
	raw := n.String()
	whole, frac, hasFrac := strings.Cut(raw, ".")
	if strings.ContainsAny(raw, "eE") || strings.HasPrefix(whole, "-") {
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		sec := int64(f)
		return &jwt.NumericDate{Time: time.Unix(sec, int64((f-float64(sec))*1e9))}, nil
	}
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return nil, err
	}
	var nsec int64
	if hasFrac {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		if nsec, err = strconv.ParseInt(frac, 10, 64); err != nil {
			return nil, err
		}
	}
	return &jwt.NumericDate{Time: time.Unix(sec, nsec)}, nil
}

// Token is a freshly issued access token.
type Token struct {
	Value     string
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// TokenService issues and validates HS256-signed access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenService creates a TokenService.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes", ErrWeakSecret, MinSecretLength)
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token TTL must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &TokenService{
		secret: cfg.Secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    now,
		parser: jwt.NewParser(opts...),
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject valid from now until now+TTL.
func (s *TokenService) Issue(subject string, now time.Time) (*Token, error) {
	if subject == "" {
		return nil, errors.New("token subject is empty")
	}

	issuedAt := now.Round(0)
	expiresAt := issuedAt.Add(s.ttl)
	id := ulid.Make().String()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  &jwt.NumericDate{Time: issuedAt},
			ExpiresAt: &jwt.NumericDate{Time: expiresAt},
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{
		Value:     signed,
		ID:        id,
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate verifies the signature and expiry of tokenString and returns its claims.
// Every failure is reported as ErrInvalidToken.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractSubject decodes the subject claim WITHOUT verifying the signature.
// Use it only for log lines; it returns "" for undecodable input.
func ExtractSubject(tokenString string) string {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return ""
	}
	return claims.Subject
}
