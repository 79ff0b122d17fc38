package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// minSecretLength is the shortest accepted HS256 signing secret
const minSecretLength = 32

// Auth configures dashboard sessions. Without a secret the server runs in
// no-auth mode.
type Auth struct {
	secret string
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "session-secret",
			Usage:       "Secret signing session tokens; empty runs without authentication (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("GATHSALT_SESSION_SECRET"),
			Destination: &x.secret,
		},
	}
}

func (x *Auth) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Bool("no_auth", x.IsNoAuthMode()),
	}
}

// IsNoAuthMode returns true when no session secret is configured
func (x *Auth) IsNoAuthMode() bool {
	return x.secret == ""
}

// Configure returns the authentication use case
func (x *Auth) Configure(loginDelay time.Duration) (usecase.AuthUseCaseInterface, error) {
	if x.IsNoAuthMode() {
		return usecase.NewNoAuthnUseCase(loginDelay), nil
	}
	if len(x.secret) < minSecretLength {
		return nil, goerr.Wrap(ErrInvalidConfig, "session-secret is too short",
			goerr.V("min_length", minSecretLength))
	}
	return usecase.NewAuthUseCase([]byte(x.secret), usecase.WithLoginDelay(loginDelay)), nil
}
