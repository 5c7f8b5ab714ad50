// Package report turns planning progress and committed plans into
// human-readable output: a verbosity-gated progress reporter and lipgloss
// tables for the fleet, the timeline, mileage and parcel status.
package report

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type Level int

const (
	None Level = iota
	Progress
	Info
)

// ParseLevel accepts "none", "progress" and "info" as well as 0..2.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "none":
		return None, nil
	case "1", "progress":
		return Progress, nil
	case "2", "info":
		return Info, nil
	}
	return None, fmt.Errorf("parse report level: unknown level %q", s)
}

// Reporter forwards progress and info messages to a zerolog logger when the
// configured level admits them.
type Reporter struct {
	Level  Level
	Logger zerolog.Logger
}

func NewReporter(level Level, logger zerolog.Logger) *Reporter {
	return &Reporter{Level: level, Logger: logger}
}

func (r *Reporter) Progress(format string, args ...any) {
	if r.Level < Progress {
		return
	}
	r.Logger.Info().Str("kind", "progress").Msgf(format, args...)
}

func (r *Reporter) Info(format string, args ...any) {
	if r.Level < Info {
		return
	}
	r.Logger.Info().Str("kind", "info").Msgf(format, args...)
}
