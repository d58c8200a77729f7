// Package concierge implements the conversational itinerary edit engine: a
// phase state machine that collects per-city trip metadata before free
// editing, an ordered intent router over normalized turn text, a tolerant
// parser for JSON payloads embedded in completion answers, and a reconciler
// that keeps the shared trip state consistent across turns.
package concierge
