package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil || duration <= 0 {
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// ParseDate parses an optional YYYY-MM-DD string; blank input yields nil
func ParseDate(s *string) (*time.Time, error) {
	if s == nil || TrimmedOrEmpty(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, TrimmedOrEmpty(s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}
