// File: services/concierge/reconciler.go
package concierge

import (
	"sort"

	"planora/models"

	"github.com/samber/lo"
)

// The reconciler is the only code that mutates TripState. Every operation
// leaves the state satisfying the session invariants: each city in
// Itineraries/CityMeta has a Destination entry, Destination.Days equals the
// city's day-bucket count, buckets are contiguous from 1, and no activity text
// is duplicated across days of the same city.

// updateSavedDays sets the saved day count for city. Callers clamp newDays to
// at least 1 before invoking.
func updateSavedDays(st *models.TripState, city string, newDays int) {
	if dest, ok := st.Destination(city); ok {
		dest.Days = newDays
	}
}

// ensureDays adds empty trailing day buckets or truncates trailing buckets so
// the city's bucket count equals its saved day count. Interior buckets are
// never removed.
func ensureDays(st *models.TripState, city string) {
	dest, ok := st.Destination(city)
	if !ok {
		return
	}
	if st.Itineraries == nil {
		st.Itineraries = map[string]models.Itinerary{}
	}
	itin := st.Itineraries[city]
	if itin == nil {
		itin = models.Itinerary{}
	}
	for day := 1; day <= dest.Days; day++ {
		if _, ok := itin[day]; !ok {
			itin[day] = nil
		}
	}
	for day := range itin {
		if day > dest.Days {
			delete(itin, day)
		}
	}
	st.Itineraries[city] = itin
}

// addCity appends a new destination with the given default day count and the
// next order value, and creates its empty day buckets.
func addCity(st *models.TripState, city string, days int) {
	st.Destinations = append(st.Destinations, models.Destination{
		City:  city,
		Days:  days,
		Order: st.NextOrder(),
	})
	ensureDays(st, city)
}

// removeCity atomically drops the destination together with its itinerary and
// metadata. The active city and metadata progress index are re-anchored so no
// dangling reference survives.
func removeCity(st *models.TripState, city string) bool {
	if _, ok := st.Destination(city); !ok {
		return false
	}
	st.Destinations = lo.Filter(st.Destinations, func(d models.Destination, _ int) bool {
		return d.City != city
	})
	delete(st.Itineraries, city)
	delete(st.CityMeta, city)

	if st.ActiveCity == city {
		st.ActiveCity = ""
		if len(st.Destinations) > 0 {
			st.ActiveCity = st.Destinations[0].City
		}
	}
	if st.MetaProgress > len(st.Destinations) {
		st.MetaProgress = len(st.Destinations)
	}
	return true
}

// mergeCityMeta overlays the fields present in incoming onto the stored
// metadata for city; absent fields are left untouched.
func mergeCityMeta(st *models.TripState, city string, incoming models.CityMeta) {
	if st.CityMeta == nil {
		st.CityMeta = map[string]models.CityMeta{}
	}
	meta := st.CityMeta[city]
	if incoming.BaseDate != "" {
		meta.BaseDate = incoming.BaseDate
	}
	if len(incoming.Start) > 0 {
		meta.Start = incoming.Start
	}
	if len(incoming.End) > 0 {
		meta.End = incoming.End
	}
	if incoming.HotelOrZone != "" {
		meta.HotelOrZone = incoming.HotelOrZone
	}
	st.CityMeta[city] = meta
}

// resolveCity maps a payload city name onto a saved destination, comparing
// case- and diacritic-insensitively. The empty name resolves to the active
// city.
func resolveCity(st *models.TripState, name string) (string, bool) {
	if name == "" {
		if st.ActiveCity != "" {
			return st.ActiveCity, true
		}
		if len(st.Destinations) > 0 {
			return st.Destinations[0].City, true
		}
		return "", false
	}
	for _, d := range st.Destinations {
		if equivalentText(d.City, name) {
			return d.City, true
		}
	}
	return "", false
}

// hasEquivalentActivity reports whether city already schedules an activity
// with equivalent text on any day other than exceptDay.
func hasEquivalentActivity(st *models.TripState, city, description string, exceptDay int) bool {
	for day, bucket := range st.Itineraries[city] {
		if day == exceptDay {
			continue
		}
		if lo.SomeBy(bucket, func(a models.Activity) bool {
			return equivalentText(a.Description, description)
		}) {
			return true
		}
	}
	return false
}

// applyEdit merges a validated edit payload into the itineraries and returns
// the cities it touched. When replace is false the merge is additive: day
// buckets named in the payload overwrite their targets, everything else is
// preserved. When replace is true each mentioned city's itinerary is cleared
// first. Payload cities with no saved destination are skipped, and activities
// whose text already appears on another day the payload leaves untouched are
// rejected.
func applyEdit(st *models.TripState, edit *parsedEdit, replace bool) []string {
	var touched []string
	for name, buckets := range edit.Cities {
		city, ok := resolveCity(st, name)
		if !ok {
			continue
		}
		if st.Itineraries == nil {
			st.Itineraries = map[string]models.Itinerary{}
		}
		if replace {
			st.Itineraries[city] = models.Itinerary{}
		}
		if st.Itineraries[city] == nil {
			st.Itineraries[city] = models.Itinerary{}
		}

		days := lo.Keys(buckets)
		sort.Ints(days)

		// Payload days overwrite their targets, so their old content must not
		// count as a duplicate when an activity moves from one payload day to
		// another. Dedup runs against untouched days plus payload buckets
		// already applied.
		for _, day := range days {
			delete(st.Itineraries[city], day)
		}

		maxDay := 0
		for _, day := range days {
			var kept []models.Activity
			for _, act := range buckets[day] {
				if hasEquivalentActivity(st, city, act.Description, day) {
					continue
				}
				act.DayIndex = day
				kept = append(kept, act)
			}
			st.Itineraries[city][day] = kept
			if day > maxDay {
				maxDay = day
			}
		}

		// A payload may legitimately introduce trailing days; the saved day
		// count follows so the bucket invariant holds.
		if dest, ok := st.Destination(city); ok && maxDay > dest.Days {
			dest.Days = maxDay
		}
		ensureDays(st, city)
		touched = append(touched, city)
	}
	return touched
}
