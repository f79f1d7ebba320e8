package types

import (
	"strings"
	"time"
)

type EventType string

const (
	EventGranted            EventType = "granted"
	EventDeniedUnregistered EventType = "denied_unregistered"
	EventError              EventType = "error"
)

// Direction records whether the scan was a check-in or a check-out.
type Direction string

const (
	DirectionEntry Direction = "entry"
	DirectionExit  Direction = "exit"
)

// ParseDirection accepts "entry"/"exit" in any case; empty means entry.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DirectionEntry):
		return DirectionEntry, true
	case string(DirectionExit):
		return DirectionExit, true
	default:
		return "", false
	}
}

// AccessEvent is one entry in the access ledger.  Name and role are copied
// from the employee record when the event is written.  Sequence is zero only
// for events that could not be persisted.
type AccessEvent struct {
	Sequence           int64     `json:"sequence"`
	EmployeeIdentifier string    `json:"employee_identifier"`
	EmployeeName       string    `json:"employee_name"`
	EmployeeRole       string    `json:"employee_role"`
	EventType          EventType `json:"event_type"`
	Direction          Direction `json:"direction"`
	Detail             string    `json:"detail,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

func (e AccessEvent) Granted() bool   { return e.EventType == EventGranted }
func (e AccessEvent) Persisted() bool { return e.Sequence > 0 }

type ScanRequest struct {
	Identifier any    `json:"identifier"`
	Direction  string `json:"direction,omitempty"`
}

type EventsResponse struct {
	Events []AccessEvent `json:"events"`
}
