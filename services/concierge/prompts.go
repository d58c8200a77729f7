// File: services/concierge/prompts.go
package concierge

import (
	"encoding/json"
	"fmt"
	"strings"

	"planora/models"
)

// Completion prompts carry three parts: a fixed schema description, the
// serialized state the edit should be grounded in, and the user's instruction.

const editSchemaBlock = `Respond ONLY with a JSON object in this exact shape, with no prose before or after it:
{
  "city": "<city name>",
  "days": {
    "1": [{"description": "<activity>", "timeRange": "HH:MM-HH:MM"}]
  },
  "followup": "<optional clarification question for the traveler>"
}
Use "cities" keyed by city name instead of "city"+"days" only when the edit spans several cities. Day keys are 1-based and contiguous.`

const metaSchemaBlock = `Respond ONLY with a JSON object in this exact shape, with no prose before or after it:
{
  "meta": {
    "city": "<city name>",
    "baseDate": "YYYY-MM-DD",
    "start": ["HH:MM"],
    "end": ["HH:MM"],
    "hotelOrZone": "<hotel or zone, free text>"
  }
}
Omit fields the traveler did not mention. "city" is required.`

func buildMetaPrompt(city, userText string) string {
	var b strings.Builder
	b.WriteString("You extract trip scheduling details for one city from a traveler's message.\n")
	fmt.Fprintf(&b, "City under discussion: %s\n", city)
	fmt.Fprintf(&b, "Traveler's message: %q\n\n", userText)
	b.WriteString(metaSchemaBlock)
	return b.String()
}

func buildCityGenerationPrompt(st *models.TripState, city string) string {
	dest, _ := st.Destination(city)
	var b strings.Builder
	b.WriteString("You plan a city itinerary for a traveler.\n")
	fmt.Fprintf(&b, "City: %s. Number of days: %d.\n", city, dest.Days)
	if meta, ok := st.CityMeta[city]; ok {
		fmt.Fprintf(&b, "Scheduling anchors:\n%s\n", mustMarshal(meta))
	}
	fmt.Fprintf(&b, "Produce a full itinerary covering days 1 through %d.\n\n", dest.Days)
	b.WriteString(editSchemaBlock)
	return b.String()
}

func buildAppendDaysPrompt(st *models.TripState, city string, firstNewDay, lastNewDay int, instruction string) string {
	var b strings.Builder
	b.WriteString("You extend an existing city itinerary with new trailing days.\n")
	fmt.Fprintf(&b, "City: %s. Current itinerary:\n%s\n", city, serializeItinerary(st, city))
	fmt.Fprintf(&b, "Fill ONLY days %d through %d with content matching the traveler's request; do not delete or modify existing days.\n", firstNewDay, lastNewDay)
	fmt.Fprintf(&b, "Traveler's request: %q\n\n", instruction)
	b.WriteString(editSchemaBlock)
	return b.String()
}

func buildSubstitutePrompt(st *models.TripState, city string, day int, instruction string) string {
	var b strings.Builder
	b.WriteString("You rework part of an existing city itinerary.\n")
	fmt.Fprintf(&b, "City: %s. Current itinerary:\n%s\n", city, serializeItinerary(st, city))
	if day > 0 {
		fmt.Fprintf(&b, "Only day %d should change; return that day's full revised bucket.\n", day)
	} else {
		b.WriteString("Return the full revised bucket for every day you change.\n")
	}
	b.WriteString("Remove or replace the activities the traveler objects to and re-balance the freed time slots. Do not repeat an activity already scheduled on another day.\n")
	fmt.Fprintf(&b, "Traveler's request: %q\n\n", instruction)
	b.WriteString(editSchemaBlock)
	return b.String()
}

func buildReorderPrompt(st *models.TripState, city string, instruction string) string {
	var b strings.Builder
	b.WriteString("You reorder the days of an existing city itinerary.\n")
	fmt.Fprintf(&b, "City: %s. Current itinerary:\n%s\n", city, serializeItinerary(st, city))
	b.WriteString("Return every day of the city with its new content, keeping the same activities unless the request says otherwise.\n")
	fmt.Fprintf(&b, "Traveler's request: %q\n\n", instruction)
	b.WriteString(editSchemaBlock)
	return b.String()
}

func buildFreeEditPrompt(st *models.TripState, instruction string) string {
	var b strings.Builder
	b.WriteString("You edit a multi-city travel itinerary according to a traveler's free-form request.\n")
	if city, ok := resolveCity(st, ""); ok {
		fmt.Fprintf(&b, "The traveler is currently looking at %s.\n", city)
	}
	fmt.Fprintf(&b, "Current itineraries:\n%s\n", mustMarshal(st.Itineraries))
	fmt.Fprintf(&b, "City metadata:\n%s\n", mustMarshal(st.CityMeta))
	if ctx := conversationContext(st, 20); ctx != "" {
		fmt.Fprintf(&b, "Recent conversation:\n%s\n", ctx)
	}
	fmt.Fprintf(&b, "Traveler's request: %q\n\n", instruction)
	b.WriteString(editSchemaBlock)
	return b.String()
}

// buildAskPrompt serves the stateless open-question endpoint; the answer is
// returned to the user as plain text, so no schema applies.
func buildAskPrompt(question string) string {
	return "You are a concise, practical travel assistant. Answer the question in plain text.\nQuestion: " + question
}

func serializeItinerary(st *models.TripState, city string) string {
	return mustMarshal(st.Itineraries[city])
}

func conversationContext(st *models.TripState, limit int) string {
	log := st.TurnLog
	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	var b strings.Builder
	for _, entry := range log {
		fmt.Fprintf(&b, "%s: %s\n", entry.Role, entry.Text)
	}
	return b.String()
}

func mustMarshal(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
