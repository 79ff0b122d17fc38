package model

import "github.com/m-mizutani/goerr/v2"

// Validation errors
var (
	ErrInvalidInsight = goerr.New("invalid insight")
	ErrInvalidDataURI = goerr.New("invalid data URI")
)

// Context keys for error values
const (
	InsightIDKey = "insight_id"
	PlatformKey  = "platform"
	MIMETypeKey  = "mime_type"
)
