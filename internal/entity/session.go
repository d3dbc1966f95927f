package entity

import "fmt"

// SessionStatus is the explicit session lifecycle state. The store persists
// the string form; anything unknown is rejected at the parse site instead of
// leaking free text through the system.
type SessionStatus string

const (
	SessionStatusIdle      SessionStatus = "idle"
	SessionStatusIngesting SessionStatus = "ingesting"
	SessionStatusReady     SessionStatus = "ready"
)

func (s SessionStatus) String() string {
	return string(s)
}

// ParseSessionStatus maps a stored status string back to the enum.
func ParseSessionStatus(raw string) (SessionStatus, error) {
	switch SessionStatus(raw) {
	case SessionStatusIdle, SessionStatusIngesting, SessionStatusReady:
		return SessionStatus(raw), nil
	default:
		return SessionStatusIdle, fmt.Errorf("unknown session status: %q", raw)
	}
}

// Session is the TTL-bounded unit of state tying uploaded documents to one
// vector collection. Existence lives in the store as `session:{id}`; the
// counters below are the completion protocol for one upload batch.
type Session struct {
	Id            string
	Status        SessionStatus
	JobsTotal     int
	JobsCompleted int
}
