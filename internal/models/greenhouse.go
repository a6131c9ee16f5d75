package models

import "time"

// Greenhouse is a monitored enclosure owned by one user, with an associated
// control device and a stream of sensor readings.
type Greenhouse struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Name          string        `json:"name"`
	Location      string        `json:"location,omitempty"`
	Online        bool          `json:"online"`
	LastSeenAt    time.Time     `json:"last_seen_at"`
	CurrentValues CurrentValues `json:"current_values"`
}
