package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token decode errors. The verifier in internal/identity/service branches on
// these to decide whether a silent refresh may be attempted.
var (
	// ErrMalformedToken is returned when a token string cannot be parsed.
	ErrMalformedToken = errors.New("malformed token")
	// ErrSignatureInvalid is returned when a token's signature does not verify.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired is returned when a token's exp has passed. A token whose
	// exp equals the current instant is already expired.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongTokenType is returned when a token's token_type claim does not
	// match the verification context (access vs refresh).
	ErrWrongTokenType = errors.New("wrong token type")
)

// Token type values carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the token payload: {sub, token_type, iat, exp}.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}

// TokenProvider issues and decodes JWT access and refresh tokens signed with
// HS256 and a shared secret. Timestamps are whole-second UTC epoch values.
type TokenProvider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given shared secret.
// accessTTL may be zero (tokens expire immediately; useful in tests);
// refreshTTL should be positive.
func NewTokenProvider(secret []byte, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess issues a short-lived access token for the subject.
// Returns the token string and its expiration time.
func (p *TokenProvider) IssueAccess(subject string) (token string, expiresAt time.Time, err error) {
	return p.issue(subject, TokenTypeAccess, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh token for the subject.
// Returns the token string and its expiration time.
func (p *TokenProvider) IssueRefresh(subject string) (token string, expiresAt time.Time, err error) {
	return p.issue(subject, TokenTypeRefresh, p.refreshTTL)
}

func (p *TokenProvider) issue(subject, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: tokenType,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// DecodeAccess parses and validates an access token (signature, exp, token_type).
// Returns the claims, or ErrMalformedToken, ErrSignatureInvalid, ErrTokenExpired,
// or ErrWrongTokenType.
func (p *TokenProvider) DecodeAccess(tokenString string) (*Claims, error) {
	return p.decode(tokenString, TokenTypeAccess)
}

// DecodeRefresh parses and validates a refresh token (signature, exp, token_type).
// Returns the claims, or one of the decode errors.
func (p *TokenProvider) DecodeRefresh(tokenString string) (*Claims, error) {
	return p.decode(tokenString, TokenTypeRefresh)
}

func (p *TokenProvider) decode(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		default:
			return nil, ErrMalformedToken
		}
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformedToken
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, ErrMalformedToken
	}
	return claims, nil
}
