package analyze

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aide-ai/aide/internal/jsonfix"
)

const entitySystemPrompt = `You are a business entity extraction system. Extract candidate entities of five kinds from the provided document section.

ENTITY KINDS:
- tasks: actionable work items. priority is one of "urgent", "high", "medium", "low". actionability is the 0.0-1.0 likelihood the task can be acted on as written.
- appointments: meetings with commercial intent. urgency is one of "high", "medium", "low". monetizationIndicators lists verbatim phrases signalling revenue (amounts, contract terms, deal language).
- contacts: people or organizations. type is "corporate" or "individual". businessRelevance is 0.0-1.0.
- events: schedulable meetings or gatherings. kind is "meeting" or "event". Dates as YYYY-MM-DD, times as HH:MM where stated.
- personalItems: private schedule entries (non-business). isPersonal is true unless the text says otherwise.

RULES:
1. Extract ONLY what the section states - never invent dates, amounts, or names
2. confidence is your 0.0-1.0 estimate that the entity is correct; be conservative
3. Omit optional fields you cannot support with text
4. Empty arrays are fine - most sections contain few entities
5. Return ONLY the JSON object, no additional text

Return ONLY a JSON object:
{
  "tasks": [
    {"title": "", "description": "", "priority": "medium", "dueDate": "", "estimatedHours": 0, "assignee": "", "actionability": 0.8, "confidence": 0.85}
  ],
  "appointments": [
    {"company": "", "contact": "", "purpose": "", "expectedValue": "", "urgency": "medium", "businessContext": "", "monetizationIndicators": [], "confidence": 0.85}
  ],
  "contacts": [
    {"name": "", "company": "", "position": "", "email": "", "phone": "", "type": "individual", "businessRelevance": 0.7, "confidence": 0.8}
  ],
  "events": [
    {"title": "", "date": "", "startTime": "", "endTime": "", "location": "", "participants": [], "kind": "meeting", "businessImpact": 0.6, "confidence": 0.8}
  ],
  "personalItems": [
    {"title": "", "date": "", "startTime": "", "endTime": "", "location": "", "isPersonal": true, "confidence": 0.7}
  ]
}`

// entityBundle collects the per-kind entity lists accumulated across all
// sections.
type entityBundle struct {
	Tasks         []Task                 `json:"tasks"`
	Appointments  []Appointment          `json:"appointments"`
	Contacts      []Contact              `json:"contacts"`
	Events        []Event                `json:"events"`
	PersonalItems []PersonalScheduleItem `json:"personalItems"`
}

func newEntityBundle() entityBundle {
	return entityBundle{
		Tasks:         []Task{},
		Appointments:  []Appointment{},
		Contacts:      []Contact{},
		Events:        []Event{},
		PersonalItems: []PersonalScheduleItem{},
	}
}

// extractEntities runs entity extraction for every section and merges the
// outputs. Sections are independent, so calls are dispatched concurrently
// under the configured concurrency bound; merge order does not affect the
// result. A failed section logs and contributes empty lists — it never
// aborts the document. Returns the merged, floor-filtered bundle and the
// number of sections that failed.
func (a *Analyzer) extractEntities(ctx context.Context, sections []ContentSection) (entityBundle, int) {
	merged := newEntityBundle()
	if len(sections) == 0 {
		return merged, 0
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed int
	)
	sem := make(chan struct{}, a.cfg.SectionConcurrency)

	for _, sec := range sections {
		wg.Add(1)
		sem <- struct{}{}

		go func(sec ContentSection) {
			defer wg.Done()
			defer func() { <-sem }()

			bundle, err := a.extractSection(ctx, sec)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				a.log.WithError(err).WithField("section", sec.ID).Warn("section extraction failed, skipping section")
				failed++
				return
			}
			merged.Tasks = append(merged.Tasks, bundle.Tasks...)
			merged.Appointments = append(merged.Appointments, bundle.Appointments...)
			merged.Contacts = append(merged.Contacts, bundle.Contacts...)
			merged.Events = append(merged.Events, bundle.Events...)
			merged.PersonalItems = append(merged.PersonalItems, bundle.PersonalItems...)
		}(sec)
	}
	wg.Wait()

	return a.applyFloors(merged), failed
}

// extractSection issues one provider call for a single section, with one
// retry on provider error, and stamps every entity with the source
// section ID. Partial array recovery applies per entity kind: a broken
// response still contributes whatever kinds parse.
func (a *Analyzer) extractSection(ctx context.Context, sec ContentSection) (entityBundle, error) {
	prompt := buildEntityPrompt(sec)

	raw, err := a.complete(ctx, entitySystemPrompt, prompt, 4096)
	if err != nil {
		select {
		case <-ctx.Done():
			return entityBundle{}, ctx.Err()
		case <-time.After(time.Second):
		}
		raw, err = a.complete(ctx, entitySystemPrompt, prompt, 4096)
		if err != nil {
			return entityBundle{}, fmt.Errorf("entity extraction call: %w", err)
		}
	}

	bundle := newEntityBundle()
	if err := jsonfix.Unmarshal(raw, &bundle); err != nil {
		// Whole-document parse is beyond repair: salvage per-kind arrays.
		recovered := false
		recovered = jsonfix.UnmarshalArrayField(raw, "tasks", &bundle.Tasks) || recovered
		recovered = jsonfix.UnmarshalArrayField(raw, "appointments", &bundle.Appointments) || recovered
		recovered = jsonfix.UnmarshalArrayField(raw, "contacts", &bundle.Contacts) || recovered
		recovered = jsonfix.UnmarshalArrayField(raw, "events", &bundle.Events) || recovered
		recovered = jsonfix.UnmarshalArrayField(raw, "personalItems", &bundle.PersonalItems) || recovered
		if !recovered {
			return entityBundle{}, fmt.Errorf("parsing extraction output: %w", err)
		}
	}

	stampSection(&bundle, sec.ID)
	return bundle, nil
}

func buildEntityPrompt(sec ContentSection) string {
	var sb strings.Builder
	sb.WriteString("Extract business entities from this section. Return JSON only.\n\n")
	if sec.Title != "" {
		sb.WriteString("TITLE: " + sec.Title + "\n")
	}
	if len(sec.Topics) > 0 {
		sb.WriteString("TOPICS: " + strings.Join(sec.Topics, ", ") + "\n")
	}
	sb.WriteString("\n---\n")
	sb.WriteString(sec.Content)
	sb.WriteString("\n---\n")
	return sb.String()
}

func stampSection(b *entityBundle, sectionID string) {
	for i := range b.Tasks {
		b.Tasks[i].SourceSectionID = sectionID
	}
	for i := range b.Appointments {
		b.Appointments[i].SourceSectionID = sectionID
	}
	for i := range b.Contacts {
		b.Contacts[i].SourceSectionID = sectionID
	}
	for i := range b.Events {
		b.Events[i].SourceSectionID = sectionID
	}
	for i := range b.PersonalItems {
		b.PersonalItems[i].SourceSectionID = sectionID
	}
}

// applyFloors enforces the per-kind confidence floors. This is a hard
// postcondition, not cosmetics: nothing below its floor survives into the
// result. Malformed enum values and empty required fields are normalized
// or dropped here as well.
func (a *Analyzer) applyFloors(b entityBundle) entityBundle {
	t := a.cfg.Thresholds
	out := newEntityBundle()

	for _, task := range b.Tasks {
		task.Confidence = clamp01(task.Confidence)
		if task.Confidence < t.TaskFloor || strings.TrimSpace(task.Title) == "" {
			continue
		}
		task.Priority = normalizePriority(task.Priority)
		task.Actionability = clamp01(task.Actionability)
		out.Tasks = append(out.Tasks, task)
	}

	for _, appt := range b.Appointments {
		appt.Confidence = clamp01(appt.Confidence)
		if appt.Confidence < t.AppointmentFloor || strings.TrimSpace(appt.Company) == "" {
			continue
		}
		appt.Urgency = normalizeUrgency(appt.Urgency)
		if appt.MonetizationIndicators == nil {
			appt.MonetizationIndicators = []string{}
		}
		out.Appointments = append(out.Appointments, appt)
	}

	for _, contact := range b.Contacts {
		contact.Confidence = clamp01(contact.Confidence)
		if contact.Confidence < t.ContactFloor || strings.TrimSpace(contact.Name) == "" {
			continue
		}
		if contact.Type != ContactCorporate {
			contact.Type = ContactIndividual
		}
		contact.BusinessRelevance = clamp01(contact.BusinessRelevance)
		contact.ExistsInSystem = false
		out.Contacts = append(out.Contacts, contact)
	}

	for _, event := range b.Events {
		event.Confidence = clamp01(event.Confidence)
		if event.Confidence < t.EventFloor || strings.TrimSpace(event.Title) == "" {
			continue
		}
		if event.Kind != EventMeeting {
			event.Kind = EventGeneral
		}
		if event.Participants == nil {
			event.Participants = []string{}
		}
		event.BusinessImpact = clamp01(event.BusinessImpact)
		out.Events = append(out.Events, event)
	}

	for _, item := range b.PersonalItems {
		item.Confidence = clamp01(item.Confidence)
		if item.Confidence < t.PersonalFloor || strings.TrimSpace(item.Title) == "" {
			continue
		}
		out.PersonalItems = append(out.PersonalItems, item)
	}

	return out
}

func normalizePriority(p Priority) Priority {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return p
	default:
		return PriorityMedium
	}
}

func normalizeUrgency(u Urgency) Urgency {
	switch u {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return u
	default:
		return UrgencyMedium
	}
}
