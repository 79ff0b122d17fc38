package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Transport failures of the external model
	ErrGeneration = errors.New("insight generation failed")
	ErrResearch   = errors.New("deep dive research failed")
	ErrChat       = errors.New("chat request failed")
	ErrSpeech     = errors.New("speech synthesis failed")

	// ErrNoAudioReturned is a degraded outcome: the model replied without audio and
	// nothing was played
	ErrNoAudioReturned = errors.New("no audio returned")

	// Input errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidMedia = errors.New("invalid media")

	// ErrInFlight is returned when the same submission point already has a request outstanding
	ErrInFlight = errors.New("request already in flight")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Other errors
	ErrNotConfigured = errors.New("feature not configured")
)

// Context keys for error values
const (
	InsightIDKey = "insight_id"
	InputKey     = "input"
	KeyKey       = "key"
)
