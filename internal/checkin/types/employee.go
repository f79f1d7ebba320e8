package types

import "time"

// EmployeeRecord is created once per identifier and never mutated.
type EmployeeRecord struct {
	RecordID     string    `json:"record_id"`
	Identifier   string    `json:"identifier"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RegistrationRequest is what a terminal submits to enrol a card.  Identifier
// is raw: a hex string ("04:a2:1f:9c") or a JSON array of byte values.
type RegistrationRequest struct {
	Identifier     any    `json:"identifier"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	AllowSynthetic bool   `json:"allow_synthetic,omitempty"`
}

type RegistrationResponse struct {
	RecordID   string `json:"record_id"`
	Identifier string `json:"identifier"`
	Synthetic  bool   `json:"synthetic"`
}
