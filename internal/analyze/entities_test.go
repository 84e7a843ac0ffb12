package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestApplyFloors(t *testing.T) {
	a := newTestAnalyzer(&stubProvider{}, nil)

	in := entityBundle{
		Tasks: []Task{
			{Title: "at floor", Priority: PriorityHigh, Confidence: 0.7},
			{Title: "below floor", Priority: PriorityHigh, Confidence: 0.69},
			{Title: "", Confidence: 0.95},
			{Title: "bad priority", Priority: "whenever", Confidence: 0.8},
		},
		Appointments: []Appointment{
			{Company: "Acme", Urgency: UrgencyHigh, Confidence: 0.8},
			{Company: "Globex", Urgency: UrgencyHigh, Confidence: 0.79},
			{Company: "", Confidence: 0.9},
		},
		Contacts: []Contact{
			{Name: "Jane", Type: ContactIndividual, Confidence: 0.6, ExistsInSystem: true},
			{Name: "Tom", Type: "organization", Confidence: 0.59},
		},
		Events: []Event{
			{Title: "kickoff", Kind: EventMeeting, Confidence: 0.7},
			{Title: "standup", Kind: "sync", Confidence: 0.7},
			{Title: "low", Kind: EventMeeting, Confidence: 0.65},
		},
		PersonalItems: []PersonalScheduleItem{
			{Title: "dentist", Confidence: 0.6},
			{Title: "gym", Confidence: 0.55},
		},
	}

	out := a.applyFloors(in)

	if len(out.Tasks) != 2 {
		t.Fatalf("tasks: got %d, want 2 (floor is inclusive, empty titles drop)", len(out.Tasks))
	}
	if out.Tasks[1].Priority != PriorityMedium {
		t.Errorf("unknown priority must normalize to medium, got %q", out.Tasks[1].Priority)
	}
	if len(out.Appointments) != 1 || out.Appointments[0].Company != "Acme" {
		t.Fatalf("appointments: got %+v, want only Acme", out.Appointments)
	}
	if out.Appointments[0].MonetizationIndicators == nil {
		t.Error("nil monetizationIndicators must become an empty slice")
	}
	if len(out.Contacts) != 1 {
		t.Fatalf("contacts: got %d, want 1", len(out.Contacts))
	}
	if out.Contacts[0].ExistsInSystem {
		t.Error("existsInSystem must be reset before cross-referencing")
	}
	if len(out.Events) != 2 {
		t.Fatalf("events: got %d, want 2", len(out.Events))
	}
	if out.Events[1].Kind != EventGeneral {
		t.Errorf("unknown event kind must normalize to event, got %q", out.Events[1].Kind)
	}
	if len(out.PersonalItems) != 1 || out.PersonalItems[0].Title != "dentist" {
		t.Fatalf("personal items: got %+v, want only dentist", out.PersonalItems)
	}
}

func TestApplyFloorsClampsConfidence(t *testing.T) {
	a := newTestAnalyzer(&stubProvider{}, nil)

	out := a.applyFloors(entityBundle{
		Tasks: []Task{{Title: "overshoot", Priority: PriorityLow, Actionability: 1.4, Confidence: 2.5}},
	})
	if len(out.Tasks) != 1 {
		t.Fatal("clamped task should survive")
	}
	if out.Tasks[0].Confidence != 1 {
		t.Errorf("confidence: got %v, want 1", out.Tasks[0].Confidence)
	}
	if out.Tasks[0].Actionability != 1 {
		t.Errorf("actionability: got %v, want 1", out.Tasks[0].Actionability)
	}
}

func TestExtractSectionRetriesOnce(t *testing.T) {
	attempts := 0
	stub := &stubProvider{fn: func(system, prompt string) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("stub: transient failure")
		}
		return fixtureAcmeEntities, nil
	}}
	a := newTestAnalyzer(stub, nil)

	bundle, failed := a.extractEntities(context.Background(),
		[]ContentSection{{ID: "s1", Content: "ACME-SECTION renewal"}})

	if failed != 0 {
		t.Fatalf("failed sections: got %d, want 0 after retry", failed)
	}
	if attempts != 2 {
		t.Fatalf("attempts: got %d, want 2", attempts)
	}
	if len(bundle.Tasks) != 1 || bundle.Tasks[0].SourceSectionID != "s1" {
		t.Fatalf("tasks after retry: %+v", bundle.Tasks)
	}
}

func TestExtractSectionSalvagesPartialJSON(t *testing.T) {
	// Truncated mid-stream after the tasks array: whole-object parse fails
	// but the named array is recoverable.
	broken := `{"tasks": [{"title": "Ship the fix", "priority": "high", "actionability": 0.9, "confidence": 0.9}], "appointments": [{"company": "Acm`

	stub := &stubProvider{fn: func(string, string) (string, error) {
		return broken, nil
	}}
	a := newTestAnalyzer(stub, nil)

	bundle, failed := a.extractEntities(context.Background(),
		[]ContentSection{{ID: "s1", Content: "anything"}})

	if failed != 0 {
		t.Fatalf("failed sections: got %d, want 0", failed)
	}
	if len(bundle.Tasks) != 1 || bundle.Tasks[0].Title != "Ship the fix" {
		t.Fatalf("salvaged tasks: %+v", bundle.Tasks)
	}
}

func TestExtractEntitiesNoSections(t *testing.T) {
	stub := &stubProvider{}
	a := newTestAnalyzer(stub, nil)

	bundle, failed := a.extractEntities(context.Background(), nil)
	if failed != 0 {
		t.Errorf("failed: got %d, want 0", failed)
	}
	if stub.callCount() != 0 {
		t.Errorf("provider calls: got %d, want 0", stub.callCount())
	}
	if bundle.Tasks == nil || bundle.Contacts == nil {
		t.Error("empty bundle slices must be non-nil")
	}
}

func TestBuildEntityPromptIncludesContext(t *testing.T) {
	p := buildEntityPrompt(ContentSection{
		ID:      "s1",
		Title:   "Acme renewal",
		Topics:  []string{"acme corp", "renewal"},
		Content: "body text",
	})
	for _, want := range []string{"Acme renewal", "acme corp, renewal", "body text"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
