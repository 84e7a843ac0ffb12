package analyze

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/aide-ai/aide/internal/llm"
)

// stubProvider returns canned responses keyed on the system prompt, so a
// single stub can drive the whole pipeline.
type stubProvider struct {
	mu    sync.Mutex
	calls int
	fn    func(system, prompt string) (string, error)
}

func (s *stubProvider) Complete(_ context.Context, prompt string, opts llm.CompletionOpts) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fn == nil {
		return "", errors.New("stub: no response configured")
	}
	return s.fn(opts.System, prompt)
}

func (s *stubProvider) Name() string { return "stub/fixture" }

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestAnalyzer(p llm.Provider, dir ContactDirectory) *Analyzer {
	return New(p, dir, quietLogger(), Config{})
}

const fixtureDoc = `Meeting notes, quarterly business review with Acme Corp.

ACME-SECTION We discussed the contract renewal with Acme Corp. Jane Smith
confirmed the $120k annual contract is up for renewal at the end of the
quarter and asked for a revised proposal by Friday. The renewal covers
platform licensing plus the support retainer, and legal wants two weeks
for redlines.

GLOBEX-SECTION Separately, Globex reached out about a pilot integration.
Tom from their platform team proposed a kickoff on September 15 to walk
through the API surface and agree on a scope for the first milestone.
Nothing is signed yet, but they have budget approved for this year.`

const fixtureSegmentJSON = `{"sections": [
  {"id": "s1", "title": "Acme renewal", "content": "ACME-SECTION We discussed the contract renewal with Acme Corp.", "startOffset": 0, "endOffset": 300, "topics": ["acme corp", "contract renewal"]},
  {"id": "s2", "title": "Globex pilot", "content": "GLOBEX-SECTION Separately, Globex reached out about a pilot integration.", "startOffset": 300, "endOffset": 600, "topics": ["globex", "integration"]}
]}`

const fixtureClusterJSON = `{"clusters": [
  {"id": "c1", "sectionIds": ["s1", "s2"], "commonTopics": ["enterprise deals"], "monetizationPotential": 0.75, "executabilityScore": 0.85}
]}`

const fixtureAcmeEntities = `{
  "tasks": [{"title": "Send revised renewal proposal", "description": "Due Friday per Jane Smith", "priority": "urgent", "dueDate": "2026-09-05", "actionability": 0.9, "confidence": 0.9}],
  "appointments": [{"company": "Acme Corp", "contact": "Jane Smith", "purpose": "contract renewal", "expectedValue": "$120k", "urgency": "high", "businessContext": "annual renewal", "monetizationIndicators": ["$120k annual contract"], "confidence": 0.9}],
  "contacts": [], "events": [], "personalItems": []
}`

const fixtureGlobexEntities = `{
  "tasks": [], "appointments": [],
  "contacts": [{"name": "Tom", "company": "Globex", "position": "platform team", "type": "individual", "businessRelevance": 0.8, "confidence": 0.85}],
  "events": [{"title": "Globex kickoff", "date": "2026-09-15", "participants": ["Tom"], "kind": "meeting", "businessImpact": 0.7, "confidence": 0.8}],
  "personalItems": []
}`

// fixtureResponder dispatches on the stage-specific system prompt and, for
// extraction, on a marker embedded in the section content.
func fixtureResponder(system, prompt string) (string, error) {
	switch {
	case strings.Contains(system, "segmentation"):
		return fixtureSegmentJSON, nil
	case strings.Contains(system, "clustering"):
		return fixtureClusterJSON, nil
	case strings.Contains(system, "entity extraction"):
		if strings.Contains(prompt, "ACME-SECTION") {
			return fixtureAcmeEntities, nil
		}
		return fixtureGlobexEntities, nil
	default:
		return "", errors.New("unexpected system prompt")
	}
}

func TestAnalyzeShortDocumentGate(t *testing.T) {
	stub := &stubProvider{fn: fixtureResponder}
	a := newTestAnalyzer(stub, nil)

	res := a.Analyze(context.Background(), "short note about a meeting", "note")

	if stub.callCount() != 0 {
		t.Errorf("expected zero provider calls below the length gate, got %d", stub.callCount())
	}
	if res == nil {
		t.Fatal("Analyze returned nil")
	}
	if res.ID == "" {
		t.Error("empty result must still carry an ID")
	}
	if len(res.Sections) != 0 || len(res.Tasks) != 0 || len(res.Candidates) != 0 {
		t.Error("gated result must have empty entity lists")
	}
	if res.Sections == nil || res.Tasks == nil || res.Contacts == nil {
		t.Error("gated result slices must be non-nil")
	}
	if res.Insights.Confidence != 0 {
		t.Errorf("gated result confidence: got %v, want 0", res.Insights.Confidence)
	}
	if res.Insights.UrgencyLevel != UrgencyLevelLow {
		t.Errorf("gated result urgency: got %q, want low", res.Insights.UrgencyLevel)
	}
}

func TestAnalyzeGateCountsRunesNotBytes(t *testing.T) {
	// A short CJK memo: every rune is 3 bytes, so the byte length clears
	// 500 long before the character count does.
	doc := strings.Repeat("来週の会議でアクメ社との契約更新について話し合う予定です。", 15)
	if runes := utf8.RuneCountInString(doc); runes >= 500 {
		t.Fatalf("fixture must stay under the gate: %d runes", runes)
	}
	if len(doc) <= 500 {
		t.Fatalf("fixture must exceed the gate in bytes: %d bytes", len(doc))
	}

	stub := &stubProvider{fn: fixtureResponder}
	a := newTestAnalyzer(stub, nil)

	res := a.Analyze(context.Background(), doc, "会議メモ")

	if stub.callCount() != 0 {
		t.Errorf("expected zero provider calls for a sub-gate document, got %d", stub.callCount())
	}
	if len(res.Sections) != 0 || len(res.Tasks) != 0 {
		t.Error("gated result must have empty entity lists")
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	stub := &stubProvider{fn: fixtureResponder}
	a := newTestAnalyzer(stub, nil)

	res := a.Analyze(context.Background(), fixtureDoc, "quarterly review")

	if len(res.DegradedStages) != 0 {
		t.Fatalf("unexpected degraded stages: %v", res.DegradedStages)
	}
	if len(res.Sections) != 2 {
		t.Fatalf("sections: got %d, want 2", len(res.Sections))
	}
	if len(res.Clusters) != 1 {
		t.Fatalf("clusters: got %d, want 1", len(res.Clusters))
	}
	if len(res.Tasks) != 1 || len(res.Appointments) != 1 || len(res.Contacts) != 1 || len(res.Events) != 1 {
		t.Fatalf("entity counts: tasks=%d appts=%d contacts=%d events=%d",
			len(res.Tasks), len(res.Appointments), len(res.Contacts), len(res.Events))
	}

	if res.Tasks[0].SourceSectionID != "s1" {
		t.Errorf("task source section: got %q, want s1", res.Tasks[0].SourceSectionID)
	}
	if res.Contacts[0].ExistsInSystem {
		t.Error("contact must be new when no directory is configured")
	}

	// Four entities in the cluster clear every promotion gate.
	if len(res.Candidates) != 1 {
		t.Fatalf("candidates: got %d, want 1", len(res.Candidates))
	}
	cand := res.Candidates[0]
	if cand.Priority != PriorityHigh {
		t.Errorf("candidate priority: got %q, want high (monetization 0.75)", cand.Priority)
	}
	if cand.DensityScore != 1.0 {
		t.Errorf("candidate density: got %v, want 1.0", cand.DensityScore)
	}
	if cand.RelatedTaskCount != 1 || cand.RelatedAppointmentCount != 1 {
		t.Errorf("related counts: tasks=%d appts=%d, want 1/1", cand.RelatedTaskCount, cand.RelatedAppointmentCount)
	}

	ins := res.Insights
	if ins.ActionItemsCount != 2 {
		t.Errorf("actionItemsCount: got %d, want 2 (tasks+appointments)", ins.ActionItemsCount)
	}
	if ins.ProjectPotentialCount != 1 {
		t.Errorf("projectPotentialCount: got %d, want 1", ins.ProjectPotentialCount)
	}
	if ins.DocumentType != DocTypeMeetingNotes {
		t.Errorf("documentType: got %q, want meeting_notes", ins.DocumentType)
	}
	// One urgent task plus one high-urgency appointment steps to high.
	if ins.UrgencyLevel != UrgencyLevelHigh {
		t.Errorf("urgencyLevel: got %q, want high", ins.UrgencyLevel)
	}
	want := (0.9 + 0.9 + 0.85 + 0.8) / 4
	if diff := ins.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("overall confidence: got %v, want %v", ins.Confidence, want)
	}
}

func TestAnalyzeProviderDown(t *testing.T) {
	stub := &stubProvider{fn: func(string, string) (string, error) {
		return "", errors.New("stub: provider unavailable")
	}}
	a := newTestAnalyzer(stub, nil)

	res := a.Analyze(context.Background(), fixtureDoc, "quarterly review")

	if res == nil {
		t.Fatal("Analyze must not return nil when the provider is down")
	}
	// Paragraph fallback still yields sections.
	if len(res.Sections) == 0 {
		t.Error("fallback segmentation produced no sections")
	}
	if len(res.Tasks) != 0 || len(res.Appointments) != 0 {
		t.Error("no entities should survive a fully failed extraction")
	}

	degraded := map[string]bool{}
	for _, s := range res.DegradedStages {
		degraded[s] = true
	}
	for _, want := range []string{stageSegment, stageCluster, stageEntities} {
		if !degraded[want] {
			t.Errorf("DegradedStages missing %q: %v", want, res.DegradedStages)
		}
	}
	if res.Insights.Confidence != 0 {
		t.Errorf("empty extraction confidence: got %v, want 0", res.Insights.Confidence)
	}
}

func TestAnalyzeGarbageSegmentOutput(t *testing.T) {
	stub := &stubProvider{fn: func(system, prompt string) (string, error) {
		if strings.Contains(system, "segmentation") {
			return "I could not produce JSON for this document, sorry.", nil
		}
		return fixtureResponder(system, prompt)
	}}
	a := newTestAnalyzer(stub, nil)

	res := a.Analyze(context.Background(), fixtureDoc, "quarterly review")

	if len(res.Sections) == 0 {
		t.Fatal("expected paragraph-fallback sections")
	}
	found := false
	for _, s := range res.DegradedStages {
		if s == stageSegment {
			found = true
		}
	}
	if !found {
		t.Errorf("DegradedStages missing %q: %v", stageSegment, res.DegradedStages)
	}
}

func TestNewDefaults(t *testing.T) {
	a := New(&stubProvider{}, nil, nil, Config{})
	if a.cfg.SectionConcurrency != DefaultSectionConcurrency {
		t.Errorf("concurrency default: got %d", a.cfg.SectionConcurrency)
	}
	if a.cfg.CallTimeout != DefaultCallTimeout {
		t.Errorf("timeout default: got %v", a.cfg.CallTimeout)
	}
	if a.cfg.Thresholds != DefaultThresholds() {
		t.Errorf("thresholds default: got %+v", a.cfg.Thresholds)
	}
	if a.log == nil {
		t.Error("nil logger must be replaced")
	}
}
