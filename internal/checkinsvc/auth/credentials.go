package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials covers every mismatch, wrong email and wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrBackendUnavailable means the credentials matched but the record
	// store could not be reached.
	ErrBackendUnavailable = errors.New("backend not configured")
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// CredentialVerifier checks a login against the single administrator
// identity. When a Pinger is set, a successful match also probes the store so
// that a misconfigured backend shows up at login instead of at first use.
type CredentialVerifier struct {
	email    string
	password string
	probe    Pinger
}

func NewCredentialVerifier(email, password string, probe Pinger) *CredentialVerifier {
	return &CredentialVerifier{
		email:    NormalizeEmail(email),
		password: strings.TrimSpace(password),
		probe:    probe,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) error {
	email = NormalizeEmail(email)
	password = strings.TrimSpace(password)

	if email == "" || password == "" || v.email == "" || v.password == "" {
		return ErrInvalidCredentials
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(v.email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(v.password)) == 1
	if !emailOK || !passwordOK {
		return ErrInvalidCredentials
	}

	if v.probe != nil {
		if err := v.probe.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}

	return nil
}
