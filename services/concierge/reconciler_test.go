package concierge

import (
	"testing"

	"planora/models"
)

func twoCityState() *models.TripState {
	st := &models.TripState{
		Phase:       models.PhaseFreeEdit,
		CityMeta:    map[string]models.CityMeta{},
		Itineraries: map[string]models.Itinerary{},
	}
	addCity(st, "Paris", 3)
	addCity(st, "Roma", 2)
	st.ActiveCity = "Paris"
	st.CityMeta["Paris"] = models.CityMeta{BaseDate: "2026-09-01"}
	st.CityMeta["Roma"] = models.CityMeta{BaseDate: "2026-09-05"}
	return st
}

// --- ensureDays ---

func TestEnsureDays_AddsTrailingBuckets(t *testing.T) {
	st := twoCityState()
	updateSavedDays(st, "Paris", 5)
	ensureDays(st, "Paris")
	itin := st.Itineraries["Paris"]
	if len(itin) != 5 {
		t.Fatalf("expected 5 buckets, got %d", len(itin))
	}
	for day := 1; day <= 5; day++ {
		if _, ok := itin[day]; !ok {
			t.Errorf("missing bucket for day %d", day)
		}
	}
}

func TestEnsureDays_TruncatesTrailingBuckets(t *testing.T) {
	st := twoCityState()
	st.Itineraries["Paris"][3] = []models.Activity{{Description: "Louvre", DayIndex: 3}}
	updateSavedDays(st, "Paris", 1)
	ensureDays(st, "Paris")
	itin := st.Itineraries["Paris"]
	if len(itin) != 1 {
		t.Errorf("expected 1 bucket, got %d", len(itin))
	}
	if _, ok := itin[3]; ok {
		t.Error("expected day 3 bucket to be dropped")
	}
}

// --- addCity / removeCity ---

func TestAddCity_AssignsNextOrder(t *testing.T) {
	st := twoCityState()
	addCity(st, "Lisboa", 2)
	dest, ok := st.Destination("Lisboa")
	if !ok {
		t.Fatal("expected Lisboa to be added")
	}
	if dest.Order != 3 {
		t.Errorf("expected order 3, got %d", dest.Order)
	}
	if len(st.Itineraries["Lisboa"]) != 2 {
		t.Errorf("expected 2 empty buckets, got %d", len(st.Itineraries["Lisboa"]))
	}
}

func TestRemoveCity_AtomicAcrossAllMaps(t *testing.T) {
	st := twoCityState()
	if !removeCity(st, "Roma") {
		t.Fatal("expected removal to succeed")
	}
	if _, ok := st.Destination("Roma"); ok {
		t.Error("Roma still in destinations")
	}
	if _, ok := st.Itineraries["Roma"]; ok {
		t.Error("Roma still in itineraries")
	}
	if _, ok := st.CityMeta["Roma"]; ok {
		t.Error("Roma still in cityMeta")
	}
}

func TestRemoveCity_ReanchorsActiveCity(t *testing.T) {
	st := twoCityState()
	st.ActiveCity = "Roma"
	removeCity(st, "Roma")
	if st.ActiveCity != "Paris" {
		t.Errorf("expected active city to fall back to Paris, got %q", st.ActiveCity)
	}
}

func TestRemoveCity_UnknownCity(t *testing.T) {
	st := twoCityState()
	if removeCity(st, "Atlantis") {
		t.Error("expected removal of unknown city to fail")
	}
}

// --- mergeCityMeta ---

func TestMergeCityMeta_AbsentFieldsLeftUntouched(t *testing.T) {
	st := twoCityState()
	st.CityMeta["Paris"] = models.CityMeta{BaseDate: "2026-09-01", HotelOrZone: "Le Marais"}
	mergeCityMeta(st, "Paris", models.CityMeta{Start: []string{"9:00"}})
	meta := st.CityMeta["Paris"]
	if meta.BaseDate != "2026-09-01" || meta.HotelOrZone != "Le Marais" {
		t.Errorf("existing fields clobbered: %+v", meta)
	}
	if len(meta.Start) != 1 || meta.Start[0] != "9:00" {
		t.Errorf("new field not merged: %+v", meta)
	}
}

// --- applyEdit ---

func TestApplyEdit_AdditiveMergePreservesOtherDays(t *testing.T) {
	st := twoCityState()
	st.Itineraries["Paris"][1] = []models.Activity{{Description: "Louvre", DayIndex: 1}}

	edit := &parsedEdit{Cities: map[string]map[int][]models.Activity{
		"Paris": {2: {{Description: "Montmartre"}}},
	}}
	applyEdit(st, edit, false)

	itin := st.Itineraries["Paris"]
	if len(itin[1]) != 1 || itin[1][0].Description != "Louvre" {
		t.Errorf("day 1 should be preserved, got %+v", itin[1])
	}
	if len(itin[2]) != 1 || itin[2][0].Description != "Montmartre" {
		t.Errorf("day 2 should be overwritten, got %+v", itin[2])
	}
}

func TestApplyEdit_ReplaceClearsMentionedCity(t *testing.T) {
	st := twoCityState()
	st.Itineraries["Paris"][1] = []models.Activity{{Description: "Louvre", DayIndex: 1}}

	edit := &parsedEdit{Cities: map[string]map[int][]models.Activity{
		"Paris": {2: {{Description: "Montmartre"}}},
	}}
	applyEdit(st, edit, true)

	itin := st.Itineraries["Paris"]
	if len(itin[1]) != 0 {
		t.Errorf("day 1 should be cleared in replace mode, got %+v", itin[1])
	}
	if len(itin[2]) != 1 {
		t.Errorf("day 2 should carry the new content, got %+v", itin[2])
	}
}

func TestApplyEdit_RejectsDuplicateActivityAcrossDays(t *testing.T) {
	st := twoCityState()
	st.Itineraries["Paris"][1] = []models.Activity{{Description: "Museo del Prado", DayIndex: 1}}

	edit := &parsedEdit{Cities: map[string]map[int][]models.Activity{
		"Paris": {2: {{Description: "museo del prado"}, {Description: "Dinner"}}},
	}}
	applyEdit(st, edit, false)

	total := 0
	for _, bucket := range st.Itineraries["Paris"] {
		total += len(bucket)
	}
	if total != 2 {
		t.Errorf("expected duplicate to be rejected (2 activities), got %d", total)
	}
	if len(st.Itineraries["Paris"][2]) != 1 || st.Itineraries["Paris"][2][0].Description != "Dinner" {
		t.Errorf("unexpected day 2: %+v", st.Itineraries["Paris"][2])
	}
}

func TestApplyEdit_SwappingDaysKeepsBothActivities(t *testing.T) {
	st := twoCityState()
	st.Itineraries["Paris"][1] = []models.Activity{{Description: "Louvre", DayIndex: 1}}
	st.Itineraries["Paris"][2] = []models.Activity{{Description: "Montmartre", DayIndex: 2}}

	// A reorder payload moves each activity to the other day; neither copy may
	// be mistaken for a duplicate of its own old placement.
	edit := &parsedEdit{Cities: map[string]map[int][]models.Activity{
		"Paris": {1: {{Description: "Montmartre"}}, 2: {{Description: "Louvre"}}},
	}}
	applyEdit(st, edit, false)

	itin := st.Itineraries["Paris"]
	if len(itin[1]) != 1 || itin[1][0].Description != "Montmartre" {
		t.Errorf("expected Montmartre on day 1, got %+v", itin[1])
	}
	if len(itin[2]) != 1 || itin[2][0].Description != "Louvre" {
		t.Errorf("expected Louvre on day 2, got %+v", itin[2])
	}
}

func TestApplyEdit_MovedActivityDropsItsOldCopy(t *testing.T) {
	st := twoCityState()
	st.Itineraries["Paris"][1] = []models.Activity{{Description: "Louvre", DayIndex: 1}}

	edit := &parsedEdit{Cities: map[string]map[int][]models.Activity{
		"Paris": {1: {{Description: "Breakfast walk"}}, 3: {{Description: "Louvre"}}},
	}}
	applyEdit(st, edit, false)

	itin := st.Itineraries["Paris"]
	if len(itin[1]) != 1 || itin[1][0].Description != "Breakfast walk" {
		t.Errorf("unexpected day 1: %+v", itin[1])
	}
	if len(itin[3]) != 1 || itin[3][0].Description != "Louvre" {
		t.Errorf("expected Louvre to land on day 3, got %+v", itin[3])
	}
}

func TestApplyEdit_GrowsDayCountForTrailingDays(t *testing.T) {
	st := twoCityState()
	edit := &parsedEdit{Cities: map[string]map[int][]models.Activity{
		"Paris": {5: {{Description: "Versailles"}}},
	}}
	applyEdit(st, edit, false)

	dest, _ := st.Destination("Paris")
	if dest.Days != 5 {
		t.Errorf("expected day count to grow to 5, got %d", dest.Days)
	}
	if len(st.Itineraries["Paris"]) != 5 {
		t.Errorf("expected contiguous buckets 1..5, got %d", len(st.Itineraries["Paris"]))
	}
}

func TestApplyEdit_SkipsUnknownCity(t *testing.T) {
	st := twoCityState()
	edit := &parsedEdit{Cities: map[string]map[int][]models.Activity{
		"Atlantis": {1: {{Description: "Dive"}}},
	}}
	touched := applyEdit(st, edit, false)
	if len(touched) != 0 {
		t.Errorf("expected no city touched, got %v", touched)
	}
	if _, ok := st.Itineraries["Atlantis"]; ok {
		t.Error("unknown city must not be created")
	}
}

func TestApplyEdit_ResolvesCityCaseInsensitively(t *testing.T) {
	st := twoCityState()
	edit := &parsedEdit{Cities: map[string]map[int][]models.Activity{
		"paris": {1: {{Description: "Louvre"}}},
	}}
	touched := applyEdit(st, edit, false)
	if len(touched) != 1 || touched[0] != "Paris" {
		t.Errorf("expected canonical Paris, got %v", touched)
	}
}
