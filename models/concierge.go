// File: models/concierge.go
package models

// ChatMessage is one message shown in the conversation pane.
type ChatMessage struct {
	Role string `json:"role"` // "assistant" or "system"
	Text string `json:"text"`
}

// TurnResponse is what one processed user turn returns to the frontend: the
// assistant's replies plus which views need re-rendering.
type TurnResponse struct {
	Messages            []ChatMessage `json:"messages"`
	RefreshDestinations bool          `json:"refreshDestinations"`
	RefreshItineraryFor []string      `json:"refreshItineraryFor,omitempty"`
}

// SessionSnapshot is the session view returned by the HTTP layer.
type SessionSnapshot struct {
	ID    string     `json:"id"`
	State *TripState `json:"state"`
}
