package usecase

import (
	"context"
	"time"

	"github.com/secmon-lab/gathsalt/pkg/domain/model/auth"
)

// NoAuthnUseCase serves every request as the anonymous user (for development/testing)
type NoAuthnUseCase struct {
	delay time.Duration
}

var _ AuthUseCaseInterface = &NoAuthnUseCase{}

// NewNoAuthnUseCase creates a NoAuthnUseCase. The login delay is still applied
// so the dashboard behaves the same in both modes.
func NewNoAuthnUseCase(delay time.Duration) *NoAuthnUseCase {
	return &NoAuthnUseCase{delay: delay}
}

// Login validates the form and returns no token
func (uc *NoAuthnUseCase) Login(ctx context.Context, user *auth.User) (string, error) {
	if err := validateLogin(user); err != nil {
		return "", err
	}
	if err := waitLogin(ctx, uc.delay); err != nil {
		return "", err
	}
	return "", nil
}

// Validate always returns the anonymous user
func (uc *NoAuthnUseCase) Validate(ctx context.Context, token string) (*auth.User, error) {
	return auth.NewAnonymousUser(), nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
