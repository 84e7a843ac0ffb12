package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestClusterSkipsBelowTwoSections(t *testing.T) {
	stub := &stubProvider{}
	a := newTestAnalyzer(stub, nil)

	clusters, degraded := a.cluster(context.Background(),
		[]ContentSection{{ID: "s1", Content: "only one"}})
	if degraded {
		t.Error("skipping a single section is not a degradation")
	}
	if len(clusters) != 0 || clusters == nil {
		t.Errorf("clusters: got %v, want empty non-nil", clusters)
	}
	if stub.callCount() != 0 {
		t.Errorf("provider calls: got %d, want 0", stub.callCount())
	}
}

func TestClusterProviderFailure(t *testing.T) {
	stub := &stubProvider{fn: func(string, string) (string, error) {
		return "", errors.New("stub: unavailable")
	}}
	a := newTestAnalyzer(stub, nil)

	clusters, degraded := a.cluster(context.Background(), []ContentSection{
		{ID: "s1", Content: "a"}, {ID: "s2", Content: "b"},
	})
	if !degraded {
		t.Error("provider failure must report degradation")
	}
	if len(clusters) != 0 {
		t.Errorf("clusters: got %v, want empty", clusters)
	}
}

func TestSanitizeClusters(t *testing.T) {
	sections := []ContentSection{{ID: "s1"}, {ID: "s2"}}
	in := []SectionCluster{
		{SectionIDs: []string{"s1", "bogus"}, MonetizationPotential: 1.7, ExecutabilityScore: -0.2, TotalEntityCount: 99, DensityScore: 0.9},
		{ID: "c-keep", SectionIDs: []string{"ghost"}},
		{ID: "c2", SectionIDs: []string{"s2"}, CommonTopics: []string{"x"}},
	}

	out := sanitizeClusters(in, sections)
	if len(out) != 2 {
		t.Fatalf("clusters: got %d, want 2 (all-unknown cluster drops)", len(out))
	}
	if len(out[0].SectionIDs) != 1 || out[0].SectionIDs[0] != "s1" {
		t.Errorf("unknown section IDs must be filtered: %v", out[0].SectionIDs)
	}
	if out[0].ID != "c1" {
		t.Errorf("missing cluster ID must be assigned: got %q", out[0].ID)
	}
	if out[0].MonetizationPotential != 1 || out[0].ExecutabilityScore != 0 {
		t.Errorf("scores must clamp to [0,1]: %v, %v",
			out[0].MonetizationPotential, out[0].ExecutabilityScore)
	}
	if out[0].TotalEntityCount != 0 || out[0].DensityScore != 0 {
		t.Error("entity count and density must be zeroed until synthesis")
	}
	if out[0].CommonTopics == nil {
		t.Error("nil topics must become an empty slice")
	}
	if out[1].ID != "c2" {
		t.Errorf("existing cluster ID must be kept: got %q", out[1].ID)
	}
}

func TestBuildClusterPromptTruncatesPreviews(t *testing.T) {
	long := strings.Repeat("x", 500)
	p := buildClusterPrompt([]ContentSection{{ID: "s1", Title: "t", Content: long}})
	if strings.Contains(p, long) {
		t.Error("section preview must be truncated")
	}
	if !strings.Contains(p, "id:s1") {
		t.Error("prompt must list section IDs")
	}
}
