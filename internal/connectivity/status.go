// Package connectivity maintains the process-wide offline flag and the
// monitor that flips it on online/offline transitions.
package connectivity

import "sync/atomic"

// Status is the shared offline flag. The Monitor is its only writer; the
// sync engine, offline queue, and read service consult it read-only.
type Status struct {
	offline atomic.Bool
}

// NewStatus builds a Status with the given initial state. Pass true when the
// startup probe failed or never ran ("has never reported connected").
func NewStatus(initiallyOffline bool) *Status {
	s := &Status{}
	s.offline.Store(initiallyOffline)
	return s
}

// Offline reports the current flag value.
func (s *Status) Offline() bool {
	return s.offline.Load()
}

// SetOffline records a transition. In production the Monitor is the only
// caller; it is exported for composition roots seeding the flag from a
// startup probe and for tests.
func (s *Status) SetOffline(v bool) {
	s.offline.Store(v)
}
