// File: services/concierge/phase.go
package concierge

import (
	"context"
	"fmt"

	"planora/models"
)

// The phase controller owns the CollectingMeta interview: one city at a time,
// in destination order, until every city has metadata. The transition to
// FreeEdit is one-way and triggers bulk itinerary generation exactly once.

func metaQuestion(city string) string {
	return fmt.Sprintf("Let's set up %s: when does your stay start, what daily hours do you want to plan, and what hotel or area are you staying in?", city)
}

// collectMeta handles one user turn while the session is in CollectingMeta.
func (s *DefaultConciergeService) collectMeta(ctx context.Context, tc *turnContext) error {
	st := tc.state
	if st.MetaProgress >= len(st.Destinations) {
		return s.finishMetaCollection(ctx, tc)
	}
	city := st.Destinations[st.MetaProgress].City

	answer, err := s.complete(ctx, buildMetaPrompt(city, tc.raw))
	if err != nil {
		return err
	}

	parsed := parseMetaAnswer(answer)
	if parsed == nil {
		// Same city, same index: the interview re-prompts until it gets a
		// usable answer or the optional retry limit kicks in.
		st.MetaRetries++
		if s.opts.MetaRetryLimit > 0 && st.MetaRetries >= s.opts.MetaRetryLimit {
			st.MetaRetries = 0
			st.MetaProgress++
			tc.say(fmt.Sprintf("I couldn't capture the details for %s, so I'll move on — you can fill them in later.", city))
			return s.advanceMetaOrFinish(ctx, tc)
		}
		tc.say(fmt.Sprintf("Sorry, I didn't quite catch that. %s", metaQuestion(city)))
		return nil
	}

	// Fields present in the answer overwrite; absent fields stay untouched.
	// The answer is always filed under the interview's target city.
	mergeCityMeta(st, city, parsed.Meta)
	st.MetaRetries = 0
	st.MetaProgress++
	tc.say(fmt.Sprintf("Got it — %s is noted.", city))
	return s.advanceMetaOrFinish(ctx, tc)
}

// advanceMetaOrFinish asks about the next city still lacking metadata, or
// finishes the interview when none remains.
func (s *DefaultConciergeService) advanceMetaOrFinish(ctx context.Context, tc *turnContext) error {
	st := tc.state
	for st.MetaProgress < len(st.Destinations) && st.HasMeta(st.Destinations[st.MetaProgress].City) {
		st.MetaProgress++
	}
	if st.MetaProgress < len(st.Destinations) {
		tc.say(metaQuestion(st.Destinations[st.MetaProgress].City))
		return nil
	}
	return s.finishMetaCollection(ctx, tc)
}

// finishMetaCollection flips the session into FreeEdit and generates an
// itinerary for every city that has none. A city whose generation fails keeps
// its empty buckets and gets a notice; the phase transition itself always
// commits, so bulk generation can never run twice.
func (s *DefaultConciergeService) finishMetaCollection(ctx context.Context, tc *turnContext) error {
	st := tc.state
	st.Phase = models.PhaseFreeEdit
	tc.say("That's everything I need — building your itineraries now.")

	for _, d := range st.Destinations {
		if itineraryHasContent(st, d.City) {
			continue
		}
		if err := s.generateCityItinerary(ctx, tc, d.City); err != nil {
			tc.say(fmt.Sprintf("I couldn't build the %s itinerary yet — ask me to recompute it any time.", d.City))
		}
	}

	tc.refreshDestinations()
	return nil
}

// itineraryHasContent reports whether city has at least one scheduled
// activity. Empty day buckets alone don't count as an itinerary.
func itineraryHasContent(st *models.TripState, city string) bool {
	for _, bucket := range st.Itineraries[city] {
		if len(bucket) > 0 {
			return true
		}
	}
	return false
}

// generateCityItinerary regenerates one city wholesale: the completion answer
// replaces whatever the city had. Shared by bulk generation and the recompute
// intent.
func (s *DefaultConciergeService) generateCityItinerary(ctx context.Context, tc *turnContext, city string) error {
	answer, err := s.complete(ctx, buildCityGenerationPrompt(tc.state, city))
	if err != nil {
		return err
	}
	edit := parseEditAnswer(answer)
	if edit == nil || len(edit.Cities) == 0 {
		return errNoStructuredData
	}
	retargetSingleCity(edit, city)
	applyEdit(tc.state, edit, true)
	tc.refreshItinerary(city)
	return nil
}
