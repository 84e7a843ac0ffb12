package analyze

import (
	"fmt"
	"math"
	"strings"
)

// defaultCandidatePhase is the lifecycle phase every freshly synthesized
// candidate starts in; downstream consumers move it forward.
const defaultCandidatePhase = "planning"

// synthesizeCandidates back-fills entity counts and density scores on the
// clusters and sections, then promotes every cluster that clears all
// promotion gates into a ProjectCandidate.
//
// Promotion requires (inclusive): density ≥ CandidateDensity,
// monetization ≥ CandidateMonetization, executability ≥
// CandidateExecutability, and an absolute entity count ≥
// CandidateMinEntities. Candidate confidence is the unweighted mean of
// the three scores.
func (a *Analyzer) synthesizeCandidates(clusters []SectionCluster, sections []ContentSection, bundle entityBundle) []ProjectCandidate {
	t := a.cfg.Thresholds

	perSection := countEntitiesPerSection(bundle)
	for i := range sections {
		sections[i].Density = math.Min(1, float64(perSection[sections[i].ID])/entityDensityDivisor)
	}

	candidates := []ProjectCandidate{}
	for i := range clusters {
		c := &clusters[i]

		inCluster := make(map[string]bool, len(c.SectionIDs))
		for _, id := range c.SectionIDs {
			inCluster[id] = true
		}

		taskCount, apptCount := 0, 0
		stakeholders := []string{}
		seen := map[string]bool{}

		for _, task := range bundle.Tasks {
			if inCluster[task.SourceSectionID] {
				taskCount++
			}
		}
		for _, appt := range bundle.Appointments {
			if inCluster[appt.SourceSectionID] {
				apptCount++
				if appt.Contact != "" && !seen[appt.Contact] {
					seen[appt.Contact] = true
					stakeholders = append(stakeholders, appt.Contact)
				}
			}
		}
		eventCount := 0
		for _, event := range bundle.Events {
			if inCluster[event.SourceSectionID] {
				eventCount++
			}
		}
		contactCount := 0
		for _, contact := range bundle.Contacts {
			if inCluster[contact.SourceSectionID] {
				contactCount++
				if !seen[contact.Name] {
					seen[contact.Name] = true
					stakeholders = append(stakeholders, contact.Name)
				}
			}
		}

		c.TotalEntityCount = taskCount + apptCount + eventCount + contactCount
		c.DensityScore = math.Min(1, float64(c.TotalEntityCount)/entityDensityDivisor)

		if c.DensityScore < t.CandidateDensity ||
			c.MonetizationPotential < t.CandidateMonetization ||
			c.ExecutabilityScore < t.CandidateExecutability ||
			c.TotalEntityCount < t.CandidateMinEntities {
			continue
		}

		priority := PriorityHigh
		if c.MonetizationPotential > 0.8 {
			priority = PriorityUrgent
		}

		candidates = append(candidates, ProjectCandidate{
			Name:                    candidateName(*c),
			Description:             candidateDescription(*c, taskCount, apptCount),
			Phase:                   defaultCandidatePhase,
			Priority:                priority,
			ClusterIDs:              []string{c.ID},
			DensityScore:            c.DensityScore,
			MonetizationScore:       c.MonetizationPotential,
			ExecutabilityScore:      c.ExecutabilityScore,
			RelatedTaskCount:        taskCount,
			RelatedAppointmentCount: apptCount,
			KeyStakeholders:         stakeholders,
			Confidence:              (c.DensityScore + c.MonetizationPotential + c.ExecutabilityScore) / 3,
		})
	}
	return candidates
}

func countEntitiesPerSection(b entityBundle) map[string]int {
	counts := map[string]int{}
	for _, t := range b.Tasks {
		counts[t.SourceSectionID]++
	}
	for _, appt := range b.Appointments {
		counts[appt.SourceSectionID]++
	}
	for _, e := range b.Events {
		counts[e.SourceSectionID]++
	}
	for _, c := range b.Contacts {
		counts[c.SourceSectionID]++
	}
	return counts
}

func candidateName(c SectionCluster) string {
	if len(c.CommonTopics) > 0 {
		return strings.Join(c.CommonTopics[:min(2, len(c.CommonTopics))], " / ")
	}
	return fmt.Sprintf("Opportunity %s", c.ID)
}

func candidateDescription(c SectionCluster, tasks, appts int) string {
	topic := "a shared topic"
	if len(c.CommonTopics) > 0 {
		topic = strings.Join(c.CommonTopics, ", ")
	}
	return fmt.Sprintf("%d related entities across %d sections around %s (%d tasks, %d appointments)",
		c.TotalEntityCount, len(c.SectionIDs), topic, tasks, appts)
}
