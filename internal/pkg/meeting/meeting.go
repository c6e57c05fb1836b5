// Package meeting resolves the join URL for a confirmed booking. Pure,
// no I/O: a wrong link here makes a paid session unattendable, so keep it
// boring and deterministic.
package meeting

import (
	"github.com/google/uuid"
)

// Provider names a meeting backend configured per session provider.
type Provider string

const (
	// ProviderBuiltin synthesizes a deterministic room link per booking.
	ProviderBuiltin Provider = "builtin"
	// ProviderExternal passes the provider's own configured URL through.
	ProviderExternal Provider = "external"
)

const builtinBase = "https://meet.sessions.app/room/"

// Resolve returns the join URL for a booking. The built-in provider
// derives the room from the booking id; every other provider uses the
// configured base URL unchanged, or empty when none is configured.
func Resolve(provider Provider, baseURL string, bookingID uuid.UUID) string {
	if provider == ProviderBuiltin {
		return builtinBase + bookingID.String()
	}
	return baseURL
}
