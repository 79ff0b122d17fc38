package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model/auth"
)

const (
	sessionIssuer = "gathsalt"
	sessionTTL    = 24 * time.Hour

	claimName   = "name"
	claimAvatar = "avatar"
)

// AuthUseCaseInterface is the simulated single sign-on used by the dashboard
type AuthUseCaseInterface interface {
	// Login waits the configured handshake delay and issues a session token for user.
	// An empty token means the server runs without sessions.
	Login(ctx context.Context, user *auth.User) (string, error)

	// Validate resolves a session token to its user
	Validate(ctx context.Context, token string) (*auth.User, error)

	// IsNoAuthn returns true when no session secret is configured
	IsNoAuthn() bool
}

// AuthUseCase issues HS256 signed session tokens. There is no identity provider
// behind it: any non-empty name and email are accepted after a fixed delay.
type AuthUseCase struct {
	secret []byte
	delay  time.Duration
	now    func() time.Time
}

var _ AuthUseCaseInterface = &AuthUseCase{}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithLoginDelay sets the simulated handshake delay
func WithLoginDelay(d time.Duration) AuthOption {
	return func(uc *AuthUseCase) {
		uc.delay = d
	}
}

// WithClock replaces the time source used for token timestamps
func WithClock(now func() time.Time) AuthOption {
	return func(uc *AuthUseCase) {
		uc.now = now
	}
}

func NewAuthUseCase(secret []byte, options ...AuthOption) *AuthUseCase {
	uc := &AuthUseCase{
		secret: secret,
		now:    time.Now,
	}

	for _, opt := range options {
		opt(uc)
	}

	return uc
}

func validateLogin(user *auth.User) error {
	if user == nil || strings.TrimSpace(user.Name) == "" || strings.TrimSpace(user.Email) == "" {
		return goerr.Wrap(ErrInvalidInput, "name and email are required")
	}
	return nil
}

func waitLogin(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "login canceled")
	case <-timer.C:
		return nil
	}
}

func (uc *AuthUseCase) Login(ctx context.Context, user *auth.User) (string, error) {
	if err := validateLogin(user); err != nil {
		return "", err
	}
	if err := waitLogin(ctx, uc.delay); err != nil {
		return "", err
	}

	now := uc.now()
	tok, err := jwt.NewBuilder().
		Issuer(sessionIssuer).
		Subject(strings.TrimSpace(user.Email)).
		IssuedAt(now).
		Expiration(now.Add(sessionTTL)).
		Claim(claimName, strings.TrimSpace(user.Name)).
		Claim(claimAvatar, user.Avatar).
		Build()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build session token")
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, uc.secret))
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign session token")
	}

	return string(signed), nil
}

func (uc *AuthUseCase) Validate(ctx context.Context, token string) (*auth.User, error) {
	if token == "" {
		return nil, goerr.Wrap(ErrUnauthorized, "session token is missing")
	}

	tok, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, uc.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithClock(jwt.ClockFunc(uc.now)),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrUnauthorized, "invalid session token", goerr.V("cause", err.Error()))
	}

	user := &auth.User{Email: tok.Subject()}
	if v, ok := tok.Get(claimName); ok {
		user.Name, _ = v.(string)
	}
	if v, ok := tok.Get(claimAvatar); ok {
		user.Avatar, _ = v.(string)
	}
	return user, nil
}

func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}
