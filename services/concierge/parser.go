// File: services/concierge/parser.go
package concierge

import (
	"encoding/json"
	"strconv"
	"strings"

	"planora/models"
)

// parsedMeta is a validated metadata-extraction answer.
type parsedMeta struct {
	City string
	Meta models.CityMeta
}

// parsedEdit is a validated itinerary-edit answer. Day content is keyed by
// city name; the empty key stands for "the active city" when the payload
// carried day buckets without naming one.
type parsedEdit struct {
	Cities   map[string]map[int][]models.Activity
	Followup string
}

// extractBalancedJSON returns the first syntactically balanced JSON object or
// array embedded in text, tolerating markdown fences and surrounding prose.
func extractBalancedJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)

	// Markdown code fences first: the payload is whatever the fence wraps.
	if idx := strings.Index(text, "```json"); idx != -1 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
	}

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{' || c == '[':
			depth++
		case c == '}' || c == ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// stringList accepts either a single JSON string or an array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if strings.TrimSpace(one) != "" {
			*l = stringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = stringList(many)
	return nil
}

// activityPayload accepts an activity as a bare string or as an object.
type activityPayload struct {
	Description string
	TimeRange   string
}

func (a *activityPayload) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		a.Description = s
		return nil
	}
	var obj struct {
		Description string `json:"description"`
		Activity    string `json:"activity"`
		Text        string `json:"text"`
		TimeRange   string `json:"timeRange"`
		Time        string `json:"time"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	a.Description = firstNonEmpty(obj.Description, obj.Activity, obj.Text)
	a.TimeRange = firstNonEmpty(obj.TimeRange, obj.Time)
	return nil
}

type dayMap map[string][]activityPayload

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parseMetaAnswer extracts and validates a metadata payload from a completion
// answer. A payload without meta.city is treated the same as unparseable text:
// the result is nil and the caller re-prompts.
func parseMetaAnswer(text string) *parsedMeta {
	raw, ok := extractBalancedJSON(text)
	if !ok {
		return nil
	}

	var payload struct {
		Meta *struct {
			City        string     `json:"city"`
			BaseDate    string     `json:"baseDate"`
			Start       stringList `json:"start"`
			End         stringList `json:"end"`
			HotelOrZone string     `json:"hotelOrZone"`
		} `json:"meta"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	if payload.Meta == nil || strings.TrimSpace(payload.Meta.City) == "" {
		return nil
	}

	return &parsedMeta{
		City: strings.TrimSpace(payload.Meta.City),
		Meta: models.CityMeta{
			BaseDate:    strings.TrimSpace(payload.Meta.BaseDate),
			Start:       normalizeTimeList(payload.Meta.Start),
			End:         normalizeTimeList(payload.Meta.End),
			HotelOrZone: strings.TrimSpace(payload.Meta.HotelOrZone),
		},
	}
}

// normalizeTimeList replaces each entry with its recognized time token when
// one is present, keeping the trimmed original otherwise.
func normalizeTimeList(entries []string) []string {
	var out []string
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if times := extractTimes(normalizeText(e)); len(times) > 0 {
			out = append(out, times[0])
			continue
		}
		out = append(out, e)
	}
	return out
}

// parseEditAnswer extracts and validates an itinerary-edit payload. The answer
// must carry at least one itinerary-bearing field or a followup string; anything
// else is treated as unparseable and the result is nil.
func parseEditAnswer(text string) *parsedEdit {
	raw, ok := extractBalancedJSON(text)
	if !ok {
		return nil
	}

	var payload struct {
		City      string            `json:"city"`
		Days      dayMap            `json:"days"`
		Itinerary dayMap            `json:"itinerary"`
		Cities    map[string]dayMap `json:"cities"`
		Followup  string            `json:"followup"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	edit := &parsedEdit{
		Cities:   map[string]map[int][]models.Activity{},
		Followup: strings.TrimSpace(payload.Followup),
	}

	if len(payload.Cities) > 0 {
		for city, days := range payload.Cities {
			if buckets := convertDayMap(days); len(buckets) > 0 {
				edit.Cities[strings.TrimSpace(city)] = buckets
			}
		}
	} else {
		days := payload.Days
		if len(days) == 0 {
			days = payload.Itinerary
		}
		if buckets := convertDayMap(days); len(buckets) > 0 {
			edit.Cities[strings.TrimSpace(payload.City)] = buckets
		}
	}

	if len(edit.Cities) == 0 && edit.Followup == "" {
		return nil
	}
	return edit
}

func convertDayMap(days dayMap) map[int][]models.Activity {
	buckets := map[int][]models.Activity{}
	for key, acts := range days {
		day, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || day < 1 {
			continue
		}
		list := make([]models.Activity, 0, len(acts))
		for _, a := range acts {
			if a.Description == "" {
				continue
			}
			list = append(list, models.Activity{
				Description: a.Description,
				DayIndex:    day,
				TimeRange:   a.TimeRange,
			})
		}
		buckets[day] = list
	}
	return buckets
}
