package types

import (
	"fmt"
	"strings"
)

// Platform is the origin category of a captured insight
type Platform string

const (
	PlatformX         Platform = "X"
	PlatformFacebook  Platform = "FACEBOOK"
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformMedia     Platform = "MEDIA"
	PlatformUnknown   Platform = "UNKNOWN"
)

// AllPlatforms returns all valid platforms
func AllPlatforms() []Platform {
	return []Platform{
		PlatformX,
		PlatformFacebook,
		PlatformInstagram,
		PlatformMedia,
		PlatformUnknown,
	}
}

// IsValid checks if the platform is valid
func (p Platform) IsValid() bool {
	switch p {
	case PlatformX,
		PlatformFacebook,
		PlatformInstagram,
		PlatformMedia,
		PlatformUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the platform
func (p Platform) String() string {
	return string(p)
}

// ParsePlatform parses a canonical platform name, case-insensitively
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid platform: %s", s)
	}
	return p, nil
}

// platformAliases is evaluated in order; the first matching alias wins.
var platformAliases = []struct {
	alias    string
	platform Platform
}{
	{"x", PlatformX},
	{"twitter", PlatformX},
	{"facebook", PlatformFacebook},
	{"instagram", PlatformInstagram},
}

// ClassifyPlatform maps a free-text platform guess to a Platform by
// case-insensitive substring match on known aliases. Unmatched text is PlatformUnknown.
func ClassifyPlatform(guess string) Platform {
	lower := strings.ToLower(guess)
	if lower == "" {
		return PlatformUnknown
	}
	for _, a := range platformAliases {
		if strings.Contains(lower, a.alias) {
			return a.platform
		}
	}
	return PlatformUnknown
}
