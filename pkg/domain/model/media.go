package model

import (
	"encoding/base64"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// DataURI is a decoded "data:<mime>;base64,<payload>" string
type DataURI struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI strips the data URI prefix and decodes the base64 payload.
// The MIME type is empty when the prefix does not declare one.
func ParseDataURI(s string) (*DataURI, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, goerr.Wrap(ErrInvalidDataURI, "missing data URI prefix")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, goerr.Wrap(ErrInvalidDataURI, "only base64 data URIs are supported",
			goerr.V("header", header))
	}

	mimeType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidDataURI, "failed to decode base64 payload",
			goerr.V("cause", err.Error()))
	}
	if len(data) == 0 {
		return nil, goerr.Wrap(ErrInvalidDataURI, "empty payload")
	}

	return &DataURI{MIMEType: mimeType, Data: data}, nil
}

// BuildDataURI encodes data as a base64 data URI
func BuildDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
