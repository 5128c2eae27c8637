// Package passtoken signs and verifies the short-lived credentials encoded in gate pass QR codes.
package passtoken

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultIssuer = "campus-gate"

var (
	// ErrMalformed is returned for tokens that cannot be parsed or trusted.
	ErrMalformed = errors.New("pass token malformed")
	// ErrSignatureInvalid is the same value as ErrMalformed, so a forged signature
	// cannot be told apart from garbage input.
	ErrSignatureInvalid = ErrMalformed
	// ErrExpired is returned for authentic tokens whose validity window has closed.
	ErrExpired = errors.New("pass token expired")
)

// Claims is the decoded content of a gate pass token.
type Claims struct {
	HolderID    uint
	Action      string
	Destination string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	TokenID     string
}

type passClaims struct {
	Action      string `json:"act"`
	Destination string `json:"dst"`
	jwt.RegisteredClaims
}

// Codec mints and verifies HS256 pass tokens with a secret injected at construction.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for minting and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIssuer overrides the issuer embedded in and required from tokens.
func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		if strings.TrimSpace(issuer) != "" {
			c.issuer = strings.TrimSpace(issuer)
		}
	}
}

// NewCodec constructs a codec. The secret must not be empty.
func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("pass token secret must be provided")
	}

	codec := &Codec{
		secret: []byte(secret),
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(codec)
	}

	return codec, nil
}

// Mint signs the claims with a validity window starting at claims.IssuedAt, or now
// when unset. Times are truncated to whole seconds, the resolution of the token, and
// the returned claims carry exactly the timestamps that were embedded.
func (c *Codec) Mint(claims Claims, validity time.Duration) (string, Claims, error) {
	if claims.HolderID == 0 {
		return "", Claims{}, fmt.Errorf("holder id is required")
	}
	if validity < time.Second {
		return "", Claims{}, fmt.Errorf("validity must be at least one second")
	}

	issuedAt := claims.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = c.now()
	}
	issuedAt = issuedAt.UTC().Truncate(time.Second)
	validity = validity.Truncate(time.Second)

	claims.IssuedAt = issuedAt
	claims.ExpiresAt = issuedAt.Add(validity)
	if claims.TokenID == "" {
		claims.TokenID = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, passClaims{
		Action:      claims.Action,
		Destination: claims.Destination,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   strconv.FormatUint(uint64(claims.HolderID), 10),
			ID:        claims.TokenID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign pass token: %w", err)
	}

	return signed, claims, nil
}

// Verify checks signature, issuer and expiry and returns the embedded claims.
// It has no side effects.
func (c *Codec) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrMalformed
	}

	parsed := &passClaims{}
	_, err := jwt.ParseWithClaims(token, parsed, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		// Signature is verified before claims, so an expiry error implies an authentic token.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrMalformed
	}

	holderID, err := strconv.ParseUint(parsed.Subject, 10, 64)
	if err != nil || holderID == 0 {
		return Claims{}, ErrMalformed
	}

	claims := Claims{
		HolderID:    uint(holderID),
		Action:      parsed.Action,
		Destination: parsed.Destination,
		TokenID:     parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.UTC()
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.UTC()
	}

	return claims, nil
}
