package models

import "time"

// Device is the network-reachable pump controller board of a greenhouse.
// Registration and heartbeats are written by a separate path; the orchestrator
// only reads the address and online flag to route commands.
type Device struct {
	ID           string    `json:"id"`
	GreenhouseID string    `json:"greenhouse_id"`
	Address      string    `json:"address"` // host:port of the control endpoint
	HardwareID   string    `json:"hardware_id"`
	Online       bool      `json:"online"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}
