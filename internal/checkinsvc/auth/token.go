package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/lestrrat-go/jwx/jwt"
	log "github.com/sirupsen/logrus"
)

// ErrUnauthorized is returned for every token that fails verification.
// Expired and forged tokens are deliberately indistinguishable to callers.
var ErrUnauthorized = errors.New("unauthorized")

type Claims struct {
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and verifies HS256 bearer tokens. Sessions are
// stateless: nothing is stored server side and a token stays valid until exp.
type TokenService struct {
	tokenAuth *jwtauth.JWTAuth
	ttl       time.Duration
	now       func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		tokenAuth: jwtauth.New("HS256", []byte(secret), nil),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (ts *TokenService) TTL() time.Duration { return ts.ttl }

func (ts *TokenService) Issue(email string) (string, error) {
	now := ts.now()

	claims := map[string]interface{}{
		"email": email,
	}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, now.Add(ts.ttl))

	_, tokenString, err := ts.tokenAuth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

func (ts *TokenService) Verify(tokenString string) (Claims, error) {
	// compact form only: header.payload.signature
	if strings.Count(tokenString, ".") != 2 {
		return Claims{}, ErrUnauthorized
	}

	// signature check happens here, jwx compares HMACs with hmac.Equal
	token, err := ts.tokenAuth.Decode(tokenString)
	if err != nil || token == nil {
		log.Debugf("token rejected: %v", err)
		return Claims{}, ErrUnauthorized
	}

	if token.Expiration().IsZero() {
		log.Debug("token rejected: missing exp")
		return Claims{}, ErrUnauthorized
	}
	if err := jwt.Validate(token); err != nil {
		log.Debugf("token rejected: %v", err)
		return Claims{}, ErrUnauthorized
	}

	var email string
	if v, ok := token.Get("email"); ok {
		email, _ = v.(string)
	}

	return Claims{
		Email:     email,
		IssuedAt:  token.IssuedAt(),
		ExpiresAt: token.Expiration(),
	}, nil
}

type claimsCtxKey struct{}

func NewContext(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, c)
}

func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey{}).(Claims)
	return c, ok
}
