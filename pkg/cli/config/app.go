package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/gathsalt/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// AppFile is the optional TOML configuration file
//
//	[gemini]
//	model = "gemini-2.5-pro"
//	speech_model = "gemini-2.5-flash-preview-tts"
//
//	[speech]
//	voice = "Kore"
//	framing = "Say this in a futuristic, strategic tone: "
//
//	[capture]
//	enrich = true
//	feed_limit = 10
//	concurrency = 4
//
//	[auth]
//	login_delay = "1200ms"
type AppFile struct {
	Gemini  GeminiSection  `toml:"gemini"`
	Speech  SpeechSection  `toml:"speech"`
	Capture CaptureSection `toml:"capture"`
	Auth    AuthSection    `toml:"auth"`
}

type GeminiSection struct {
	Model       string `toml:"model"`
	SpeechModel string `toml:"speech_model"`
}

type SpeechSection struct {
	Voice   string `toml:"voice"`
	Framing string `toml:"framing"`
}

type CaptureSection struct {
	Enrich      bool `toml:"enrich"`
	FeedLimit   int  `toml:"feed_limit"`
	Concurrency int  `toml:"concurrency"`
}

type AuthSection struct {
	LoginDelay string `toml:"login_delay"`
}

// Validate checks value ranges
func (f *AppFile) Validate() error {
	if f.Capture.FeedLimit < 0 {
		return goerr.Wrap(ErrInvalidConfig, "capture.feed_limit must not be negative",
			goerr.V("feed_limit", f.Capture.FeedLimit))
	}
	if f.Capture.Concurrency < 0 {
		return goerr.Wrap(ErrInvalidConfig, "capture.concurrency must not be negative",
			goerr.V("concurrency", f.Capture.Concurrency))
	}
	if f.Auth.LoginDelay != "" {
		d, err := time.ParseDuration(f.Auth.LoginDelay)
		if err != nil {
			return goerr.Wrap(ErrInvalidConfig, "auth.login_delay is not a duration",
				goerr.V("login_delay", f.Auth.LoginDelay), goerr.V("cause", err.Error()))
		}
		if d < 0 {
			return goerr.Wrap(ErrInvalidConfig, "auth.login_delay must not be negative",
				goerr.V("login_delay", f.Auth.LoginDelay))
		}
	}
	return nil
}

// ToDomain merges the file over the defaults. The file must be valid.
func (f *AppFile) ToDomain() *domainConfig.AppConfig {
	cfg := domainConfig.DefaultAppConfig()

	if f.Speech.Voice != "" {
		cfg.Speech.Voice = f.Speech.Voice
	}
	if f.Speech.Framing != "" {
		cfg.Speech.Framing = f.Speech.Framing
	}
	cfg.Capture.Enrich = f.Capture.Enrich
	if f.Capture.FeedLimit > 0 {
		cfg.Capture.FeedLimit = f.Capture.FeedLimit
	}
	if f.Capture.Concurrency > 0 {
		cfg.Capture.Concurrency = f.Capture.Concurrency
	}
	if d, err := time.ParseDuration(f.Auth.LoginDelay); err == nil {
		cfg.Auth.LoginDelay = d
	}

	return cfg
}

// LoadAppFile reads and validates a TOML configuration file
func LoadAppFile(path string) (*AppFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file AppFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse config file",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid config file", goerr.V(ConfigPathKey, path))
	}
	return &file, nil
}

// App holds the path of the optional configuration file and the flags that
// override it
type App struct {
	path   string
	enrich bool
}

func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file",
			Sources:     cli.EnvVars("GATHSALT_CONFIG"),
			Destination: &x.path,
		},
		&cli.BoolFlag{
			Name:        "enrich",
			Usage:       "Fetch page metadata of captured URLs and add it to the prompt",
			Sources:     cli.EnvVars("GATHSALT_ENRICH"),
			Destination: &x.enrich,
		},
	}
}

func (x *App) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("config", x.path),
		slog.Bool("enrich", x.enrich),
	}
}

// Configure loads the configuration file, or an empty one when no path is set
func (x *App) Configure() (*AppFile, error) {
	file := &AppFile{}
	if x.path != "" {
		loaded, err := LoadAppFile(x.path)
		if err != nil {
			return nil, err
		}
		file = loaded
	}

	if x.enrich {
		file.Capture.Enrich = true
	}
	return file, nil
}
