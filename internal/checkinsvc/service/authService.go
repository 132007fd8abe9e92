package service

import (
	"context"

	"github.com/avvvet/checkin-services/internal/checkinsvc/auth"
)

type AuthService struct {
	verifier *auth.CredentialVerifier
	tokens   *auth.TokenService
}

func NewAuthService(verifier *auth.CredentialVerifier, tokens *auth.TokenService) *AuthService {
	return &AuthService{verifier: verifier, tokens: tokens}
}

// Login checks the administrator credentials and mints a bearer token for
// the normalized email.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if err := s.verifier.Verify(ctx, email, password); err != nil {
		return "", err
	}
	return s.tokens.Issue(auth.NormalizeEmail(email))
}

func (s *AuthService) Authenticate(token string) (auth.Claims, error) {
	return s.tokens.Verify(token)
}
