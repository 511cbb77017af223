package types

import "time"

// SessionStats represents session manager statistics
type SessionStats struct {
	SavedPositions int        `json:"saved_positions"`
	ActiveTimers   int        `json:"active_timers"`
	LastSaved      *time.Time `json:"last_saved,omitempty"`
}
