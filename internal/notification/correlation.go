package notification

import (
	"strings"
	"time"
)

const (
	// DefaultFailedLoginWindow is how recent the host's failed-login audit row
	// must be for a login-page hit to count as that failure.
	DefaultFailedLoginWindow = 2 * time.Second

	failedLoginPrefix = "Failed Login Attempt"
)

// Correlator matches a hook with the host audit row that explains it.
type Correlator struct {
	Prefix string
	Window time.Duration
}

// NewFailedLoginCorrelator matches host rows that start with "Failed Login Attempt".
// A non-positive window falls back to DefaultFailedLoginWindow.
func NewFailedLoginCorrelator(window time.Duration) Correlator {
	if window <= 0 {
		window = DefaultFailedLoginWindow
	}
	return Correlator{Prefix: failedLoginPrefix, Window: window}
}

// Matches reports whether text carries the prefix and at lies within the
// window of now, in either direction.
func (c Correlator) Matches(text string, at, now time.Time) bool {
	if !strings.HasPrefix(strings.TrimSpace(text), c.Prefix) {
		return false
	}
	age := now.Sub(at)
	if age < 0 {
		age = -age
	}
	return age < c.Window
}
