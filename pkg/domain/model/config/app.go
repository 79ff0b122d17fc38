package config

import "time"

const (
	DefaultVoice        = "Kore"
	DefaultSpeechFrame  = "Say this in a futuristic, strategic tone: "
	DefaultLoginDelay   = 1200 * time.Millisecond
	DefaultFeedLimit    = 10
	DefaultCaptureLimit = 4
)

// Speech configures synthesized narration
type Speech struct {
	Voice   string
	Framing string
}

// Capture configures how references are captured
type Capture struct {
	// Enrich fetches page metadata of http(s) references and adds it to the prompt
	Enrich bool
	// FeedLimit caps the number of entries captured from one feed
	FeedLimit int
	// Concurrency caps parallel captures in batch mode
	Concurrency int
}

// Auth configures the simulated single sign-on
type Auth struct {
	LoginDelay time.Duration
}

// AppConfig holds runtime settings loaded from the optional TOML file
type AppConfig struct {
	Speech  Speech
	Capture Capture
	Auth    Auth
}

// DefaultAppConfig returns the settings used when no file is given
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Speech: Speech{
			Voice:   DefaultVoice,
			Framing: DefaultSpeechFrame,
		},
		Capture: Capture{
			FeedLimit:   DefaultFeedLimit,
			Concurrency: DefaultCaptureLimit,
		},
		Auth: Auth{
			LoginDelay: DefaultLoginDelay,
		},
	}
}
