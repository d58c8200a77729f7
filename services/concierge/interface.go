// File: services/concierge/interface.go
package concierge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"planora/models"
	"planora/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// turnErrorMessage is the fixed reply shown when a handler's completion
// request fails or returns an unusable answer. The turn commits nothing.
const turnErrorMessage = "Sorry, I couldn't process that change. Your itinerary is untouched — please try again."

// ConciergeService drives the multi-turn itinerary-editing conversation.
type ConciergeService interface {
	CreateSession(ctx context.Context, destinations []models.Destination, meta map[string]models.CityMeta) (string, *models.TripState, []models.ChatMessage, error)
	Session(ctx context.Context, sessionID string) (*models.TripState, error)
	EndSession(ctx context.Context, sessionID string) error
	ProcessTurn(ctx context.Context, sessionID, text string) (*models.TurnResponse, error)
	Ask(ctx context.Context, question string) (string, error)
}

// Options tunes concierge behavior; zero values fall back to sane defaults.
type Options struct {
	DefaultCityDays   int
	MetaRetryLimit    int // 0 = retry the same city without bound
	CompletionTimeout time.Duration
}

// DefaultConciergeService is the production ConciergeService. State lives in
// the session store and is always passed explicitly; the service itself holds
// no per-session data beyond the in-flight guard.
type DefaultConciergeService struct {
	Store      SessionStore
	Completion CompletionClient
	Notify     Notifier // optional fan-out alongside the returned TurnResponse

	opts  Options
	locks sessionLocks
}

func NewDefaultConciergeService(store SessionStore, completion CompletionClient, opts Options) *DefaultConciergeService {
	if opts.DefaultCityDays < 1 {
		opts.DefaultCityDays = 3
	}
	if opts.CompletionTimeout <= 0 {
		opts.CompletionTimeout = 45 * time.Second
	}
	return &DefaultConciergeService{
		Store:      store,
		Completion: completion,
		opts:       opts,
		locks:      sessionLocks{busy: map[string]struct{}{}},
	}
}

// sessionLocks is the single-flight guard: at most one turn per session may be
// in flight, so a slow completion response can never interleave with a newer
// turn's reads and writes.
type sessionLocks struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func (l *sessionLocks) acquire(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, inFlight := l.busy[id]; inFlight {
		return false
	}
	l.busy[id] = struct{}{}
	return true
}

func (l *sessionLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.busy, id)
}

// turnContext carries one turn's working state. Handlers mutate tc.state and
// buffer their output here; nothing reaches the store or the UI until the
// orchestrator commits.
type turnContext struct {
	state *models.TripState
	raw   string
	norm  string

	messages     []models.ChatMessage
	refreshDest  bool
	refreshItins []string
	commit       bool
}

func (tc *turnContext) say(text string) {
	tc.messages = append(tc.messages, models.ChatMessage{Role: "assistant", Text: text})
}

func (tc *turnContext) refreshDestinations() {
	tc.refreshDest = true
}

func (tc *turnContext) refreshItinerary(city string) {
	for _, c := range tc.refreshItins {
		if c == city {
			return
		}
	}
	tc.refreshItins = append(tc.refreshItins, city)
}

func (tc *turnContext) activeDestination() (*models.Destination, bool) {
	city, ok := resolveCity(tc.state, "")
	if !ok {
		return nil, false
	}
	return tc.state.Destination(city)
}

// CreateSession builds the initial TripState for a trip, decides the starting
// phase and returns the opening assistant messages.
func (s *DefaultConciergeService) CreateSession(ctx context.Context, destinations []models.Destination, meta map[string]models.CityMeta) (string, *models.TripState, []models.ChatMessage, error) {
	if len(destinations) == 0 {
		return "", nil, nil, fmt.Errorf("concierge: at least one destination is required")
	}

	st := &models.TripState{
		Phase:       models.PhaseFreeEdit,
		CityMeta:    map[string]models.CityMeta{},
		Itineraries: map[string]models.Itinerary{},
	}
	for _, d := range destinations {
		city := strings.TrimSpace(d.City)
		if city == "" {
			return "", nil, nil, fmt.Errorf("concierge: destination city must not be empty")
		}
		if _, dup := st.Destination(city); dup {
			return "", nil, nil, fmt.Errorf("concierge: duplicate destination %q", city)
		}
		days := d.Days
		if days < 1 {
			days = s.opts.DefaultCityDays
		}
		addCity(st, city, days)
	}
	for city, m := range meta {
		if _, ok := st.Destination(city); ok {
			st.CityMeta[city] = m
		}
	}
	st.ActiveCity = st.Destinations[0].City

	// The interview starts at the first city still lacking metadata; if every
	// city already has it, editing opens immediately.
	for st.MetaProgress < len(st.Destinations) && st.HasMeta(st.Destinations[st.MetaProgress].City) {
		st.MetaProgress++
	}
	var opening []models.ChatMessage
	if st.MetaProgress < len(st.Destinations) {
		st.Phase = models.PhaseCollectingMeta
		opening = append(opening, models.ChatMessage{Role: "assistant", Text: metaQuestion(st.Destinations[st.MetaProgress].City)})
	} else {
		st.MetaProgress = len(st.Destinations)
		opening = append(opening, models.ChatMessage{Role: "assistant", Text: "Your trip is loaded. Tell me what to change — add days, swap activities, reorder, or add another city."})
	}

	sessionID := uuid.NewString()
	if err := s.Store.Set(ctx, sessionID, st); err != nil {
		return "", nil, nil, err
	}
	return sessionID, st, opening, nil
}

// Session returns the current state snapshot for a session.
func (s *DefaultConciergeService) Session(ctx context.Context, sessionID string) (*models.TripState, error) {
	return s.Store.Get(ctx, sessionID)
}

// EndSession discards a session.
func (s *DefaultConciergeService) EndSession(ctx context.Context, sessionID string) error {
	return s.Store.Delete(ctx, sessionID)
}

// ProcessTurn handles one user turn end to end: phase control, intent
// dispatch, reconciliation and UI notification. A turn is all-or-nothing; if
// the handler fails, the stored state is exactly what it was before the turn.
func (s *DefaultConciergeService) ProcessTurn(ctx context.Context, sessionID, text string) (*models.TurnResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		// Empty input is a no-op turn: no message, no mutation.
		return &models.TurnResponse{}, nil
	}

	if !s.locks.acquire(sessionID) {
		return nil, ErrTurnInFlight
	}
	defer s.locks.release(sessionID)

	st, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	tc := &turnContext{
		state:  st,
		raw:    text,
		norm:   normalizeText(text),
		commit: true,
	}

	var handleErr error
	if st.Phase == models.PhaseCollectingMeta {
		handleErr = s.collectMeta(ctx, tc)
	} else {
		handleErr = s.dispatch(ctx, tc)
	}

	if handleErr != nil {
		utils.GetLogger().Warn("turn failed, state preserved",
			zap.String("session", sessionID),
			zap.Error(handleErr))
		resp := &models.TurnResponse{
			Messages: []models.ChatMessage{{Role: "assistant", Text: turnErrorMessage}},
		}
		s.emit(resp)
		return resp, nil
	}

	if tc.commit {
		st.TurnLog = append(st.TurnLog, models.TurnEntry{Role: "user", Text: text})
		for _, m := range tc.messages {
			st.TurnLog = append(st.TurnLog, models.TurnEntry{Role: m.Role, Text: m.Text})
		}
		if err := s.Store.Set(ctx, sessionID, st); err != nil {
			return nil, err
		}
	}

	resp := &models.TurnResponse{
		Messages:            tc.messages,
		RefreshDestinations: tc.refreshDest,
		RefreshItineraryFor: tc.refreshItins,
	}
	s.emit(resp)
	return resp, nil
}

// Ask answers a stateless open-ended travel question via the completion
// boundary and returns plain text.
func (s *DefaultConciergeService) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("concierge: question must not be empty")
	}
	return s.complete(ctx, buildAskPrompt(question))
}

// complete wraps the completion boundary with the configured timeout and maps
// transport errors onto the turn failure taxonomy.
func (s *DefaultConciergeService) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CompletionTimeout)
	defer cancel()
	answer, err := s.Completion.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errCompletionFailed, err)
	}
	return answer, nil
}

func (s *DefaultConciergeService) emit(resp *models.TurnResponse) {
	if s.Notify == nil {
		return
	}
	for _, m := range resp.Messages {
		s.Notify.PostChat(m.Role, m.Text)
	}
	if resp.RefreshDestinations {
		s.Notify.RefreshDestinations()
	}
	for _, city := range resp.RefreshItineraryFor {
		s.Notify.RefreshItinerary(city)
	}
}
