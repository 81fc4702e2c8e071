package notifications

import (
	"fmt"
	"time"
)

// Level indicates how a notification is presented.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelInfo, LevelSuccess, LevelWarning, LevelError:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown notification level %q", s)
}

// Notification is a transient, user-visible message.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt is zero for notifications that stay until dismissed.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Expired reports whether n is no longer shown at now.
func (n Notification) Expired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && !now.Before(n.ExpiresAt)
}
