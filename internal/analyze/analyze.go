package analyze

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aide-ai/aide/internal/llm"
)

const (
	// DefaultSectionConcurrency bounds parallel per-section provider calls.
	DefaultSectionConcurrency = 4

	// DefaultCallTimeout is the per-provider-call timeout.
	DefaultCallTimeout = 30 * time.Second
)

// Stage names recorded in Result.DegradedStages when a stage substitutes
// its fallback value.
const (
	stageSegment  = "segment"
	stageCluster  = "cluster"
	stageEntities = "entities"
	stageCrossRef = "crossref"
)

// Config tunes the analyzer. Zero values fall back to defaults.
type Config struct {
	Thresholds         Thresholds
	SectionConcurrency int
	CallTimeout        time.Duration
}

// Analyzer runs the document analysis pipeline. It holds no mutable state
// between invocations; one Analyzer may analyze documents concurrently.
type Analyzer struct {
	provider  llm.Provider
	directory ContactDirectory
	log       *logrus.Logger
	cfg       Config
}

// New creates an Analyzer. The provider is required; directory may be nil,
// in which case cross-referencing is skipped and every contact is treated
// as new. A nil logger gets a JSON-formatted default.
func New(provider llm.Provider, directory ContactDirectory, logger *logrus.Logger, cfg Config) *Analyzer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if cfg.SectionConcurrency <= 0 {
		cfg.SectionConcurrency = DefaultSectionConcurrency
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	def := DefaultThresholds()
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = def
	}
	if cfg.Thresholds.MinDocumentLength <= 0 {
		cfg.Thresholds.MinDocumentLength = def.MinDocumentLength
	}
	if cfg.Thresholds.CandidateMinEntities <= 0 {
		cfg.Thresholds.CandidateMinEntities = def.CandidateMinEntities
	}

	return &Analyzer{
		provider:  provider,
		directory: directory,
		log:       logger,
		cfg:       cfg,
	}
}

// Analyze runs the full pipeline over a document and always returns a
// complete Result, never an error. Documents shorter than the minimum
// length gate return the empty result immediately with no provider calls.
//
// Stage order is fixed: segment → cluster → extract → cross-reference →
// synthesize → aggregate. Every stage boundary is a catch-and-degrade
// boundary: failures are logged and replaced by the stage's empty value.
func (a *Analyzer) Analyze(ctx context.Context, text, title string) (res *Result) {
	res = a.emptyResult(title)

	defer func() {
		if r := recover(); r != nil {
			a.log.WithField("panic", r).Error("analysis pipeline panicked, returning partial result")
		}
	}()

	// The gate counts characters, not bytes: a short CJK document is
	// still short even when every rune is three bytes.
	if length := utf8.RuneCountInString(text); length < a.cfg.Thresholds.MinDocumentLength {
		a.log.WithFields(logrus.Fields{
			"length": length,
			"gate":   a.cfg.Thresholds.MinDocumentLength,
		}).Debug("document below minimum length, skipping analysis")
		return res
	}

	sections, degraded := a.segment(ctx, text)
	res.Sections = sections
	if degraded {
		res.DegradedStages = append(res.DegradedStages, stageSegment)
	}

	clusters, degraded := a.cluster(ctx, sections)
	res.Clusters = clusters
	if degraded {
		res.DegradedStages = append(res.DegradedStages, stageCluster)
	}

	bundle, failedSections := a.extractEntities(ctx, sections)
	if failedSections > 0 {
		res.DegradedStages = append(res.DegradedStages, stageEntities)
	}

	contacts, lookupErrs := a.resolveContacts(ctx, bundle.Contacts)
	bundle.Contacts = contacts
	if lookupErrs > 0 {
		res.DegradedStages = append(res.DegradedStages, stageCrossRef)
	}

	res.Tasks = bundle.Tasks
	res.Appointments = bundle.Appointments
	res.Contacts = bundle.Contacts
	res.Events = bundle.Events
	res.PersonalItems = bundle.PersonalItems

	res.Candidates = a.synthesizeCandidates(res.Clusters, res.Sections, bundle)

	res.Insights = a.buildInsights(text, res)
	return res
}

// emptyResult is the all-empty terminal value used for gate skips and as
// the base every successful analysis fills in.
func (a *Analyzer) emptyResult(title string) *Result {
	return &Result{
		ID:            uuid.NewString(),
		Title:         title,
		Sections:      []ContentSection{},
		Clusters:      []SectionCluster{},
		Tasks:         []Task{},
		Appointments:  []Appointment{},
		Contacts:      []Contact{},
		Events:        []Event{},
		PersonalItems: []PersonalScheduleItem{},
		Candidates:    []ProjectCandidate{},
		Insights: OverallInsights{
			DocumentType: DocTypeMixed,
			UrgencyLevel: UrgencyLevelLow,
			KeyTopics:    []string{},
		},
		AnalyzedAt: time.Now().UTC(),
	}
}

// complete issues one provider call under the configured per-call timeout.
func (a *Analyzer) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	return a.provider.Complete(callCtx, prompt, llm.CompletionOpts{
		Temperature: 0.1,
		MaxTokens:   maxTokens,
		Format:      "json",
		System:      system,
	})
}
