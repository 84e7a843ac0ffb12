package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/aide-ai/aide/internal/jsonfix"
)

const clusterSystemPrompt = `You are a topic clustering system. Group document sections that share a topic, customer, or technology into clusters, and estimate each cluster's business potential.

RULES:
1. Every sectionId you reference must come from the provided list
2. A section belongs to at most one cluster; singleton clusters are allowed
3. monetizationPotential is the 0.0-1.0 likelihood the cluster represents a revenue-generating opportunity
4. executabilityScore is the 0.0-1.0 likelihood the work is practically achievable
5. Return ONLY the JSON object, no additional text

Return ONLY a JSON object:
{
  "clusters": [
    {
      "id": "c1",
      "sectionIds": ["s1", "s3"],
      "commonTopics": ["acme corp", "contract renewal"],
      "monetizationPotential": 0.75,
      "executabilityScore": 0.85
    }
  ]
}`

type clusterPayload struct {
	Clusters []SectionCluster `json:"clusters"`
}

// cluster groups sections into topic clusters with provider-estimated
// monetization and executability scores. Clustering is undefined for
// fewer than two sections and skipped. On failure it returns an empty
// list — clusters are optional enrichment, the pipeline continues.
func (a *Analyzer) cluster(ctx context.Context, sections []ContentSection) ([]SectionCluster, bool) {
	if len(sections) < 2 {
		return []SectionCluster{}, false
	}

	raw, err := a.complete(ctx, clusterSystemPrompt, buildClusterPrompt(sections), 2048)
	if err != nil {
		a.log.WithError(err).Warn("clustering call failed, continuing without clusters")
		return []SectionCluster{}, true
	}

	var payload clusterPayload
	if err := jsonfix.Unmarshal(raw, &payload); err != nil {
		if !jsonfix.UnmarshalArrayField(raw, "clusters", &payload.Clusters) {
			a.log.WithError(err).Warn("clustering output unparseable, continuing without clusters")
			return []SectionCluster{}, true
		}
	}

	return sanitizeClusters(payload.Clusters, sections), false
}

// buildClusterPrompt lists section IDs, topics, and a content preview.
func buildClusterPrompt(sections []ContentSection) string {
	var sb strings.Builder
	sb.WriteString("Group these sections by shared topic, customer, or technology. Return JSON only.\n\nSECTIONS:\n")

	for _, sec := range sections {
		preview := sec.Content
		if len(preview) > 240 {
			preview = preview[:240] + "…"
		}
		sb.WriteString(fmt.Sprintf("- id:%s | title:%s | topics:%s\n  %s\n",
			sec.ID, sec.Title, strings.Join(sec.Topics, ", "), preview))
	}
	return sb.String()
}

// sanitizeClusters drops references to unknown sections, clamps scores,
// and assigns missing cluster IDs. Clusters left without any valid
// section are discarded.
func sanitizeClusters(clusters []SectionCluster, sections []ContentSection) []SectionCluster {
	known := make(map[string]bool, len(sections))
	for _, sec := range sections {
		known[sec.ID] = true
	}

	out := make([]SectionCluster, 0, len(clusters))
	for i, c := range clusters {
		valid := make([]string, 0, len(c.SectionIDs))
		for _, id := range c.SectionIDs {
			if known[id] {
				valid = append(valid, id)
			}
		}
		if len(valid) == 0 {
			continue
		}

		c.SectionIDs = valid
		if c.ID == "" {
			c.ID = fmt.Sprintf("c%d", i+1)
		}
		if c.CommonTopics == nil {
			c.CommonTopics = []string{}
		}
		c.MonetizationPotential = clamp01(c.MonetizationPotential)
		c.ExecutabilityScore = clamp01(c.ExecutabilityScore)
		c.TotalEntityCount = 0
		c.DensityScore = 0
		out = append(out, c)
	}
	return out
}
