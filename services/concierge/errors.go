// File: services/concierge/errors.go
package concierge

import "errors"

var (
	// ErrSessionNotFound is returned when a session id has no stored state.
	ErrSessionNotFound = errors.New("concierge: session not found")

	// ErrTurnInFlight is returned when a turn arrives while another turn for
	// the same session is still being processed. Callers should retry once
	// the in-flight turn has resolved.
	ErrTurnInFlight = errors.New("concierge: a turn is already in flight for this session")

	// errCompletionFailed marks a transport failure at the completion boundary.
	errCompletionFailed = errors.New("concierge: completion request failed")

	// errNoStructuredData marks a completion answer with no usable payload,
	// covering both unparseable text and payloads missing required fields.
	errNoStructuredData = errors.New("concierge: completion answer had no structured data")
)
