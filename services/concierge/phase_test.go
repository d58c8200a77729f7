package concierge

import (
	"context"
	"strings"
	"testing"
	"time"

	"planora/models"
)

func newTestServiceWithOpts(stub *stubCompletion, opts Options) *DefaultConciergeService {
	if opts.DefaultCityDays == 0 {
		opts.DefaultCityDays = 3
	}
	if opts.CompletionTimeout == 0 {
		opts.CompletionTimeout = time.Second
	}
	return NewDefaultConciergeService(NewMemorySessionStore(time.Hour), stub, opts)
}

const parisMetaAnswer = `{"meta":{"city":"Paris","baseDate":"2026-09-01","start":"9:00","end":"22:00","hotelOrZone":"Le Marais"}}`
const romaMetaAnswer = `{"meta":{"city":"Roma","baseDate":"2026-09-04","start":"10:00","end":"21:00","hotelOrZone":"Trastevere"}}`
const parisItineraryAnswer = `{"city":"Paris","days":{"1":["Louvre"],"2":["Montmartre"]}}`
const romaItineraryAnswer = `{"city":"Roma","days":{"1":["Colosseo"],"2":["Vaticano"]}}`

func TestInterview_TwoCitiesNeedTwoTurnsThenBulkGeneration(t *testing.T) {
	stub := &stubCompletion{replies: []string{
		parisMetaAnswer,
		romaMetaAnswer,
		parisItineraryAnswer,
		romaItineraryAnswer,
	}}
	svc := newTestService(stub)
	id := mustCreate(t, svc,
		[]models.Destination{{City: "Paris", Days: 2}, {City: "Roma", Days: 2}}, nil)

	resp, err := svc.ProcessTurn(context.Background(), id, "starting september 1st, 9 to 22, staying in Le Marais")
	if err != nil {
		t.Fatalf("first interview turn failed: %v", err)
	}
	st := mustState(t, svc, id)
	if st.Phase != models.PhaseCollectingMeta {
		t.Fatalf("expected interview to continue, got phase %q", st.Phase)
	}
	if st.MetaProgress != 1 {
		t.Errorf("expected progress 1, got %d", st.MetaProgress)
	}
	if len(resp.Messages) < 2 || !strings.Contains(resp.Messages[len(resp.Messages)-1].Text, "Roma") {
		t.Errorf("expected the next question to target Roma, got %+v", resp.Messages)
	}

	if _, err := svc.ProcessTurn(context.Background(), id, "september 4th, 10 to 21, Trastevere"); err != nil {
		t.Fatalf("second interview turn failed: %v", err)
	}

	st = mustState(t, svc, id)
	if st.Phase != models.PhaseFreeEdit {
		t.Fatalf("expected free edit after last city, got %q", st.Phase)
	}
	// Two meta prompts plus one generation prompt per city, never more.
	if len(stub.prompts) != 4 {
		t.Errorf("expected 4 completion calls, got %d", len(stub.prompts))
	}
	for _, city := range []string{"Paris", "Roma"} {
		if !itineraryHasContent(st, city) {
			t.Errorf("expected a generated itinerary for %s", city)
		}
	}
}

func TestInterview_UnusableAnswerRepromptsSameCity(t *testing.T) {
	stub := &stubCompletion{replies: []string{"I couldn't find any trip details in that."}}
	svc := newTestService(stub)
	id := mustCreate(t, svc, []models.Destination{{City: "Paris", Days: 2}}, nil)

	resp, err := svc.ProcessTurn(context.Background(), id, "hello there")
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	st := mustState(t, svc, id)
	if st.Phase != models.PhaseCollectingMeta || st.MetaProgress != 0 {
		t.Errorf("expected to stay on the same city, got phase %q progress %d", st.Phase, st.MetaProgress)
	}
	if st.MetaRetries != 1 {
		t.Errorf("expected 1 recorded retry, got %d", st.MetaRetries)
	}
	if len(resp.Messages) != 1 || !strings.Contains(resp.Messages[0].Text, "Paris") {
		t.Errorf("expected a re-prompt for Paris, got %+v", resp.Messages)
	}
}

func TestInterview_RetryLimitSkipsCity(t *testing.T) {
	stub := &stubCompletion{replies: []string{
		"no details here either",
		parisItineraryAnswer,
	}}
	svc := newTestServiceWithOpts(stub, Options{MetaRetryLimit: 1})
	id := mustCreate(t, svc, []models.Destination{{City: "Paris", Days: 2}}, nil)

	if _, err := svc.ProcessTurn(context.Background(), id, "just book something"); err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	st := mustState(t, svc, id)
	if st.Phase != models.PhaseFreeEdit {
		t.Errorf("expected the skipped city to end the interview, got %q", st.Phase)
	}
	if st.HasMeta("Paris") {
		t.Error("skipped city must not gain metadata")
	}
	if !itineraryHasContent(st, "Paris") {
		t.Error("expected bulk generation to still run for the skipped city")
	}
}

func TestInterview_AnswerIsFiledUnderInterviewTarget(t *testing.T) {
	stub := &stubCompletion{replies: []string{
		`{"meta":{"city":"Barcelona","baseDate":"2026-09-01"}}`,
		parisItineraryAnswer,
	}}
	svc := newTestService(stub)
	id := mustCreate(t, svc, []models.Destination{{City: "Paris", Days: 2}}, nil)

	if _, err := svc.ProcessTurn(context.Background(), id, "september 1st"); err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	st := mustState(t, svc, id)
	if _, ok := st.CityMeta["Barcelona"]; ok {
		t.Error("metadata filed under a city the trip doesn't contain")
	}
	if st.CityMeta["Paris"].BaseDate != "2026-09-01" {
		t.Errorf("expected the answer under Paris, got %+v", st.CityMeta["Paris"])
	}
}

func TestInterview_GenerationFailureStillCommitsTransition(t *testing.T) {
	stub := &stubCompletion{replies: []string{
		parisMetaAnswer,
		"sorry, no plan today",
	}}
	svc := newTestService(stub)
	id := mustCreate(t, svc, []models.Destination{{City: "Paris", Days: 2}}, nil)

	resp, err := svc.ProcessTurn(context.Background(), id, "september 1st, 9 to 22, Le Marais")
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	st := mustState(t, svc, id)
	if st.Phase != models.PhaseFreeEdit {
		t.Errorf("expected the phase transition to commit, got %q", st.Phase)
	}
	if itineraryHasContent(st, "Paris") {
		t.Error("expected no itinerary content after failed generation")
	}
	noticed := false
	for _, m := range resp.Messages {
		if strings.Contains(m.Text, "couldn't build") {
			noticed = true
		}
	}
	if !noticed {
		t.Errorf("expected a generation failure notice, got %+v", resp.Messages)
	}

	// A later turn must not regenerate on its own: the transition ran once.
	stub.replies = []string{"Sure, here are the changes"}
	if _, err := svc.ProcessTurn(context.Background(), id, "cuentame sobre el clima"); err != nil {
		t.Fatalf("follow-up turn failed: %v", err)
	}
	if len(stub.prompts) != 3 {
		t.Errorf("expected exactly one completion call on the follow-up turn, got %d total", len(stub.prompts))
	}
}

func TestInterview_PrefilledCityIsSkipped(t *testing.T) {
	stub := &stubCompletion{}
	svc := newTestService(stub)
	_, _, opening, err := svc.CreateSession(context.Background(),
		[]models.Destination{{City: "Paris", Days: 2}, {City: "Roma", Days: 2}},
		metaFor("Paris"))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if len(opening) != 1 || !strings.Contains(opening[0].Text, "Roma") {
		t.Errorf("expected the interview to open on Roma, got %+v", opening)
	}
}
