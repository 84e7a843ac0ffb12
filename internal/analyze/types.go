// Package analyze turns an unstructured document into a small set of
// high-confidence business entities (tasks, appointments, contacts,
// events, personal schedule items) and project candidates.
//
// The pipeline is best-effort analytics: every stage degrades to its
// documented empty value on failure, and Analyze never returns an error.
package analyze

import "time"

// Priority is the four-level task/candidate priority scale.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Urgency is the three-level appointment urgency scale.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// UrgencyLevel is the four-level document urgency scale in OverallInsights.
type UrgencyLevel string

const (
	UrgencyLevelCritical UrgencyLevel = "critical"
	UrgencyLevelHigh     UrgencyLevel = "high"
	UrgencyLevelMedium   UrgencyLevel = "medium"
	UrgencyLevelLow      UrgencyLevel = "low"
)

// DocumentType classifies the analyzed document as a whole.
type DocumentType string

const (
	DocTypeMeetingNotes DocumentType = "meeting_notes"
	DocTypePlanning     DocumentType = "project_planning"
	DocTypeReview       DocumentType = "review"
	DocTypeMixed        DocumentType = "mixed"
)

// ContactType distinguishes organization contacts from individuals.
type ContactType string

const (
	ContactCorporate  ContactType = "corporate"
	ContactIndividual ContactType = "individual"
)

// EventKind distinguishes meetings from general gatherings.
type EventKind string

const (
	EventMeeting EventKind = "meeting"
	EventGeneral EventKind = "event"
)

// ContentSection is a topic-coherent slice of the document produced by the
// segmenter. Immutable after creation except for Density, which the
// candidate synthesizer back-fills.
type ContentSection struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content"`
	StartOffset int      `json:"startOffset"`
	EndOffset   int      `json:"endOffset"`
	Topics      []string `json:"topics"`
	Density     float64  `json:"density"`
}

// SectionCluster groups sections sharing a topic. Entity counts and the
// density score are back-filled once extraction completes.
type SectionCluster struct {
	ID                    string   `json:"id"`
	SectionIDs            []string `json:"sectionIds"`
	CommonTopics          []string `json:"commonTopics"`
	TotalEntityCount      int      `json:"totalEntityCount"`
	MonetizationPotential float64  `json:"monetizationPotential"`
	ExecutabilityScore    float64  `json:"executabilityScore"`
	DensityScore          float64  `json:"densityScore"`
}

// EntityMention is a lightweight informational tag; it is not persisted
// independently of the result.
type EntityMention struct {
	Kind       string  `json:"kind"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context"`
}

// Task is an actionable work item extracted from a section.
type Task struct {
	SourceSectionID string   `json:"sourceSectionId"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Priority        Priority `json:"priority"`
	DueDate         string   `json:"dueDate,omitempty"`
	EstimatedHours  float64  `json:"estimatedHours,omitempty"`
	Assignee        string   `json:"assignee,omitempty"`
	Actionability   float64  `json:"actionability"`
	Confidence      float64  `json:"confidence"`
}

// Appointment is a meeting with commercial intent.
type Appointment struct {
	SourceSectionID        string   `json:"sourceSectionId"`
	Company                string   `json:"company"`
	Contact                string   `json:"contact"`
	Purpose                string   `json:"purpose"`
	ExpectedValue          string   `json:"expectedValue,omitempty"`
	Urgency                Urgency  `json:"urgency"`
	BusinessContext        string   `json:"businessContext"`
	MonetizationIndicators []string `json:"monetizationIndicators"`
	Confidence             float64  `json:"confidence"`
}

// Contact is a person or organization referenced by the document.
// ExistsInSystem is set by the cross-reference resolver.
type Contact struct {
	SourceSectionID   string      `json:"sourceSectionId"`
	Name              string      `json:"name"`
	Company           string      `json:"company,omitempty"`
	Position          string      `json:"position,omitempty"`
	Email             string      `json:"email,omitempty"`
	Phone             string      `json:"phone,omitempty"`
	Type              ContactType `json:"type"`
	ExistsInSystem    bool        `json:"existsInSystem"`
	BusinessRelevance float64     `json:"businessRelevance"`
	Confidence        float64     `json:"confidence"`
}

// Event is a schedulable meeting or gathering.
type Event struct {
	SourceSectionID string    `json:"sourceSectionId"`
	Title           string    `json:"title"`
	Date            string    `json:"date"`
	StartTime       string    `json:"startTime,omitempty"`
	EndTime         string    `json:"endTime,omitempty"`
	Location        string    `json:"location,omitempty"`
	Participants    []string  `json:"participants"`
	Kind            EventKind `json:"kind"`
	BusinessImpact  float64   `json:"businessImpact"`
	Confidence      float64   `json:"confidence"`
}

// PersonalScheduleItem is a private calendar entry.
type PersonalScheduleItem struct {
	SourceSectionID string  `json:"sourceSectionId"`
	Title           string  `json:"title"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime,omitempty"`
	EndTime         string  `json:"endTime,omitempty"`
	Location        string  `json:"location,omitempty"`
	IsPersonal      bool    `json:"isPersonal"`
	Confidence      float64 `json:"confidence"`
}

// ProjectCandidate is a cluster that cleared all promotion thresholds.
// It exists only transiently in the result and is never mutated after
// creation.
type ProjectCandidate struct {
	Name                    string   `json:"name"`
	Description             string   `json:"description"`
	Phase                   string   `json:"phase"`
	Priority                Priority `json:"priority"`
	ClusterIDs              []string `json:"clusterIds"`
	DensityScore            float64  `json:"densityScore"`
	MonetizationScore       float64  `json:"monetizationScore"`
	ExecutabilityScore      float64  `json:"executabilityScore"`
	RelatedTaskCount        int      `json:"relatedTaskCount"`
	RelatedAppointmentCount int      `json:"relatedAppointmentCount"`
	KeyStakeholders         []string `json:"keyStakeholders"`
	Confidence              float64  `json:"confidence"`
}

// OverallInsights is the document-level summary derived from the
// extracted entities and candidates.
type OverallInsights struct {
	DocumentType          DocumentType `json:"documentType"`
	BusinessValue         float64      `json:"businessValue"`
	UrgencyLevel          UrgencyLevel `json:"urgencyLevel"`
	KeyTopics             []string     `json:"keyTopics"`
	ActionItemsCount      int          `json:"actionItemsCount"`
	ProjectPotentialCount int          `json:"projectPotentialCount"`
	Confidence            float64      `json:"confidence"`
}

// Result is the sole externally visible artifact of the pipeline.
// DegradedStages lists stages that fell back to their empty value,
// so "nothing found" and "provider was down" remain distinguishable
// in logs and archives without ever being an error to the caller.
type Result struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Sections       []ContentSection       `json:"sections"`
	Clusters       []SectionCluster       `json:"clusters"`
	Tasks          []Task                 `json:"tasks"`
	Appointments   []Appointment          `json:"appointments"`
	Contacts       []Contact              `json:"contacts"`
	Events         []Event                `json:"events"`
	PersonalItems  []PersonalScheduleItem `json:"personalItems"`
	Candidates     []ProjectCandidate     `json:"projectCandidates"`
	Insights       OverallInsights        `json:"overallInsights"`
	DegradedStages []string               `json:"degradedStages,omitempty"`
	AnalyzedAt     time.Time              `json:"analyzedAt"`
}

// Thresholds holds every tunable gate in the pipeline. Zero values are
// replaced by the defaults from DefaultThresholds.
type Thresholds struct {
	// Per-kind confidence floors. Filtering against these is a hard
	// postcondition: no entity below its floor appears in a Result.
	TaskFloor        float64 `yaml:"task_floor"`
	AppointmentFloor float64 `yaml:"appointment_floor"`
	ContactFloor     float64 `yaml:"contact_floor"`
	EventFloor       float64 `yaml:"event_floor"`
	PersonalFloor    float64 `yaml:"personal_floor"`

	// Project-candidate promotion gates (all inclusive).
	CandidateDensity       float64 `yaml:"candidate_density"`
	CandidateMonetization  float64 `yaml:"candidate_monetization"`
	CandidateExecutability float64 `yaml:"candidate_executability"`
	CandidateMinEntities   int     `yaml:"candidate_min_entities"`

	// Documents with fewer characters (runes, not bytes) than this skip
	// analysis entirely.
	MinDocumentLength int `yaml:"min_document_length"`
}

// DefaultThresholds returns the standard pipeline gates.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TaskFloor:              0.7,
		AppointmentFloor:       0.8,
		ContactFloor:           0.6,
		EventFloor:             0.7,
		PersonalFloor:          0.6,
		CandidateDensity:       0.8,
		CandidateMonetization:  0.7,
		CandidateExecutability: 0.8,
		CandidateMinEntities:   4,
		MinDocumentLength:      500,
	}
}

// entityDensityDivisor normalizes entity counts into a [0,1] density:
// density = min(1, count/4).
const entityDensityDivisor = 4.0

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
