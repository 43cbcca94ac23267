// Package common defines shared constants and sentinel errors used across
// the dashsync components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Capability errors: raised (and immediately downgraded to logged no-ops)
	// when the local storage backend or the network is absent in the current
	// environment.
	ErrUnavailable = errors.New("backend unavailable")

	// Auth errors: sync attempted without a valid session token.
	ErrUnauthorized = errors.New("unauthorized")

	// Configuration errors.
	ErrUnknownCollection = errors.New("unknown collection")

	// Sync-flow errors.
	ErrSyncInFlight = errors.New("sync already in flight")
)
