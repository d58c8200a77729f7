// File: services/concierge/router.go
package concierge

import (
	"context"
	"fmt"
	"strings"

	"planora/models"
)

// The router is a fixed-priority table of (predicate, handler) pairs. The
// first predicate that matches the normalized turn text owns the turn;
// later entries are not consulted. The fallback entry always matches.

var (
	addTerms        = []string{"add", "agrega", "agregar", "anade", "anadir", "suma", "sumar"}
	removeTerms     = []string{"remove", "delete", "elimina", "eliminar", "quita", "quitar", "borra", "borrar"}
	dayTerms        = []string{"day", "days", "dia", "dias"}
	cityTerms       = []string{"city", "ciudad"}
	substituteTerms = []string{"replace", "reemplaza", "sustituye", "cambia", "change this", "no quiero", "i dont want", "i don t want"}
	reorderTerms    = []string{"reorder", "reordena", "reorganiza", "reorganize", "rearrange"}
	recomputeTerms  = []string{"recompute", "recalcula", "replanifica", "regenera", "regenerate", "desde cero", "from scratch"}
	replaceAllTerms = []string{"start over", "empieza de nuevo", "todo de nuevo", "replace everything", "reemplaza todo", "borra todo"}

	// activityTerms is the fixed vocabulary that marks an inline activity
	// request inside an add-days turn.
	activityTerms = []string{
		"museum", "museo", "tour", "visit", "visita", "restaurant", "restaurante",
		"beach", "playa", "park", "parque", "market", "mercado", "show",
		"concert", "concierto", "excursion", "hike", "caminata",
	}
)

type intentRoute struct {
	name   string
	match  func(normText string) bool
	handle func(ctx context.Context, tc *turnContext) error
}

func (s *DefaultConciergeService) routes() []intentRoute {
	return []intentRoute{
		{
			name: "addDays",
			match: func(t string) bool {
				return containsAnyTerm(t, addTerms) && containsAnyTerm(t, dayTerms)
			},
			handle: s.handleAddDays,
		},
		{
			name: "removeDays",
			match: func(t string) bool {
				return containsAnyTerm(t, removeTerms) && containsAnyTerm(t, dayTerms)
			},
			handle: s.handleRemoveDays,
		},
		{
			name:   "substituteActivity",
			match:  func(t string) bool { return containsAnyTerm(t, substituteTerms) },
			handle: s.handleSubstituteActivity,
		},
		{
			name:   "reorderDays",
			match:  func(t string) bool { return containsAnyTerm(t, reorderTerms) },
			handle: s.handleReorderDays,
		},
		{
			name:   "recompute",
			match:  func(t string) bool { return containsAnyTerm(t, recomputeTerms) },
			handle: s.handleRecompute,
		},
		{
			name: "addCity",
			match: func(t string) bool {
				return containsAnyTerm(t, addTerms) && containsAnyTerm(t, cityTerms)
			},
			handle: s.handleAddCity,
		},
		{
			name: "removeCity",
			match: func(t string) bool {
				return containsAnyTerm(t, removeTerms) && containsAnyTerm(t, cityTerms)
			},
			handle: s.handleRemoveCity,
		},
		{
			name:   "freeEdit",
			match:  func(string) bool { return true },
			handle: s.handleFreeEdit,
		},
	}
}

// dispatch runs the first matching route for the turn.
func (s *DefaultConciergeService) dispatch(ctx context.Context, tc *turnContext) error {
	for _, route := range s.routes() {
		if route.match(tc.norm) {
			return route.handle(ctx, tc)
		}
	}
	return nil // unreachable, the fallback always matches
}

// detectActivityHint returns the first activity-vocabulary word in the text.
func detectActivityHint(normText string) (string, bool) {
	for _, term := range activityTerms {
		if containsTerm(normText, term) {
			return term, true
		}
	}
	return "", false
}

// wantsFullReplace is the "start over" detector. It is deliberately not a
// router entry; only the free-edit fallback consults it to pick replace
// semantics for the payload it applies.
func wantsFullReplace(normText string) bool {
	return containsAnyTerm(normText, replaceAllTerms)
}

const noActiveCityMessage = "There's no city selected yet. Add one with \"add city <name>\"."

func (s *DefaultConciergeService) handleAddDays(ctx context.Context, tc *turnContext) error {
	dest, ok := tc.activeDestination()
	if !ok {
		tc.say(noActiveCityMessage)
		return nil
	}
	city := dest.City
	n, found := extractInt(tc.norm)
	if !found {
		n = 1
	}
	oldDays := dest.Days
	newDays := oldDays + n

	// Day count and buckets are reconciled before any completion call.
	updateSavedDays(tc.state, city, newDays)
	ensureDays(tc.state, city)

	if hint, hasActivity := detectActivityHint(tc.norm); hasActivity {
		answer, err := s.complete(ctx, buildAppendDaysPrompt(tc.state, city, oldDays+1, newDays, tc.raw))
		if err != nil {
			return err
		}
		edit := parseEditAnswer(answer)
		if edit == nil {
			return errNoStructuredData
		}
		retargetSingleCity(edit, city)
		applyEdit(tc.state, edit, false)
		tc.say(fmt.Sprintf("Added %d day(s) to %s and worked the %s plans into the new days.", n, city, hint))
	} else {
		tc.say(fmt.Sprintf("Added %d day(s) to %s — days %d to %d are open for now.", n, city, oldDays+1, newDays))
	}

	tc.refreshDestinations()
	tc.refreshItinerary(city)
	return nil
}

func (s *DefaultConciergeService) handleRemoveDays(_ context.Context, tc *turnContext) error {
	dest, ok := tc.activeDestination()
	if !ok {
		tc.say(noActiveCityMessage)
		return nil
	}
	city := dest.City
	n, found := extractInt(tc.norm)
	if !found {
		n = 1
	}
	newDays := dest.Days - n
	if newDays < 1 {
		newDays = 1
	}
	updateSavedDays(tc.state, city, newDays)
	ensureDays(tc.state, city)

	tc.say(fmt.Sprintf("%s is now %d day(s).", city, newDays))
	tc.refreshDestinations()
	tc.refreshItinerary(city)
	return nil
}

func (s *DefaultConciergeService) handleSubstituteActivity(ctx context.Context, tc *turnContext) error {
	dest, ok := tc.activeDestination()
	if !ok {
		tc.say(noActiveCityMessage)
		return nil
	}
	city := dest.City
	day, hasDay := extractDayNumber(tc.norm)
	if !hasDay || day < 1 || day > dest.Days {
		day = 0
	}

	answer, err := s.complete(ctx, buildSubstitutePrompt(tc.state, city, day, tc.raw))
	if err != nil {
		return err
	}
	edit := parseEditAnswer(answer)
	if edit == nil {
		return errNoStructuredData
	}
	retargetSingleCity(edit, city)
	applyEdit(tc.state, edit, false)

	if edit.Followup != "" {
		tc.say(edit.Followup)
	} else {
		tc.say(fmt.Sprintf("Updated the %s plan.", city))
	}
	tc.refreshItinerary(city)
	return nil
}

func (s *DefaultConciergeService) handleReorderDays(ctx context.Context, tc *turnContext) error {
	dest, ok := tc.activeDestination()
	if !ok {
		tc.say(noActiveCityMessage)
		return nil
	}
	city := dest.City

	answer, err := s.complete(ctx, buildReorderPrompt(tc.state, city, tc.raw))
	if err != nil {
		return err
	}
	edit := parseEditAnswer(answer)
	if edit == nil {
		return errNoStructuredData
	}
	retargetSingleCity(edit, city)
	applyEdit(tc.state, edit, false)

	if edit.Followup != "" {
		tc.say(edit.Followup)
	} else {
		tc.say(fmt.Sprintf("Reordered the days in %s.", city))
	}
	tc.refreshItinerary(city)
	return nil
}

func (s *DefaultConciergeService) handleRecompute(ctx context.Context, tc *turnContext) error {
	dest, ok := tc.activeDestination()
	if !ok {
		tc.say(noActiveCityMessage)
		return nil
	}
	if err := s.generateCityItinerary(ctx, tc, dest.City); err != nil {
		return err
	}
	tc.say(fmt.Sprintf("Rebuilt the %s itinerary from scratch.", dest.City))
	return nil
}

func (s *DefaultConciergeService) handleAddCity(_ context.Context, tc *turnContext) error {
	city, ok := extractCityToken(tc.raw)
	if !ok {
		tc.say("Which city should I add? Please capitalize its name, e.g. \"add city Lisboa\".")
		return nil
	}
	for _, d := range tc.state.Destinations {
		if equivalentText(d.City, city) {
			tc.say(fmt.Sprintf("%s is already part of the trip.", d.City))
			return nil
		}
	}
	addCity(tc.state, city, s.opts.DefaultCityDays)
	tc.state.ActiveCity = city

	tc.say(fmt.Sprintf("Added %s to the trip with %d day(s). Tell me what you'd like to do there.", city, s.opts.DefaultCityDays))
	tc.refreshDestinations()
	tc.refreshItinerary(city)
	return nil
}

func (s *DefaultConciergeService) handleRemoveCity(_ context.Context, tc *turnContext) error {
	token, ok := extractCityToken(tc.raw)
	if !ok {
		tc.say("Which city should I remove?")
		return nil
	}
	city, found := resolveCity(tc.state, token)
	if !found {
		tc.say(fmt.Sprintf("I don't see %s in this trip.", token))
		return nil
	}
	removeCity(tc.state, city)

	tc.say(fmt.Sprintf("Removed %s and everything planned there.", city))
	tc.refreshDestinations()
	return nil
}

func (s *DefaultConciergeService) handleFreeEdit(ctx context.Context, tc *turnContext) error {
	answer, err := s.complete(ctx, buildFreeEditPrompt(tc.state, tc.raw))
	if err != nil {
		return err
	}

	edit := parseEditAnswer(answer)
	if edit == nil {
		// No structured payload: show the raw answer, commit nothing.
		tc.commit = false
		tc.say(strings.TrimSpace(answer))
		return nil
	}

	touched := applyEdit(tc.state, edit, wantsFullReplace(tc.norm))
	if len(touched) == 0 && edit.Followup == "" {
		return errNoStructuredData
	}

	if edit.Followup != "" {
		tc.say(edit.Followup)
	} else {
		tc.say("Done — your itinerary is updated.")
	}
	for _, city := range touched {
		tc.refreshItinerary(city)
	}
	return nil
}

// retargetSingleCity forces a single-city payload onto the city the request
// was scoped to, whatever name the completion answer used.
func retargetSingleCity(edit *parsedEdit, city string) {
	if len(edit.Cities) != 1 {
		return
	}
	for _, buckets := range edit.Cities {
		edit.Cities = map[string]map[int][]models.Activity{city: buckets}
	}
}
