// File: models/trip.go
package models

// Phase is the conversational phase of a trip session.
type Phase string

const (
	// PhaseCollectingMeta runs the sequential per-city metadata interview.
	PhaseCollectingMeta Phase = "collecting_meta"
	// PhaseFreeEdit allows free-form itinerary editing.
	PhaseFreeEdit Phase = "free_edit"
)

// Destination is one city in the trip with its day count and display order.
type Destination struct {
	City  string `json:"city"`
	Days  int    `json:"days"`
	Order int    `json:"order"`
}

// CityMeta anchors itinerary generation for one city. All fields are optional
// until collected during the metadata interview.
type CityMeta struct {
	BaseDate    string   `json:"baseDate,omitempty"`
	Start       []string `json:"start,omitempty"`
	End         []string `json:"end,omitempty"`
	HotelOrZone string   `json:"hotelOrZone,omitempty"`
}

// Activity is a single scheduled item inside a day bucket.
type Activity struct {
	Description string `json:"description"`
	DayIndex    int    `json:"dayIndex"`
	TimeRange   string `json:"timeRange,omitempty"`
}

// Itinerary maps day index (1..Destination.Days, contiguous) to its ordered
// activities.
type Itinerary map[int][]Activity

// TurnEntry is one past message of the conversation, kept as context for the
// completion boundary.
type TurnEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// TripState is the full conversational session state. It is owned by the
// concierge service and mutated only through its reconciler operations; the
// HTTP layer always receives it by explicit reference, never through globals.
type TripState struct {
	Phase        Phase                `json:"phase"`
	Destinations []Destination        `json:"destinations"`
	MetaProgress int                  `json:"metaProgress"`
	MetaRetries  int                  `json:"metaRetries,omitempty"`
	ActiveCity   string               `json:"activeCity,omitempty"`
	CityMeta     map[string]CityMeta  `json:"cityMeta"`
	Itineraries  map[string]Itinerary `json:"itineraries"`
	TurnLog      []TurnEntry          `json:"turnLog"`
}

// Destination returns the destination entry for city, if present.
func (s *TripState) Destination(city string) (*Destination, bool) {
	for i := range s.Destinations {
		if s.Destinations[i].City == city {
			return &s.Destinations[i], true
		}
	}
	return nil, false
}

// NextOrder returns the order value a newly appended destination should get.
func (s *TripState) NextOrder() int {
	max := 0
	for _, d := range s.Destinations {
		if d.Order > max {
			max = d.Order
		}
	}
	return max + 1
}

// HasMeta reports whether city already has collected metadata.
func (s *TripState) HasMeta(city string) bool {
	_, ok := s.CityMeta[city]
	return ok
}
