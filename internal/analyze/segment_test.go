package analyze

import (
	"strings"
	"testing"
)

func TestFallbackSegment(t *testing.T) {
	long1 := strings.Repeat("First paragraph about the Acme contract renewal. ", 4)
	long2 := strings.Repeat("Second paragraph about the Globex integration pilot. ", 4)
	text := long1 + "\n\n" + long2

	sections := fallbackSegment(text)
	if len(sections) != 2 {
		t.Fatalf("sections: got %d, want 2", len(sections))
	}
	if sections[0].ID != "s1" || sections[1].ID != "s2" {
		t.Errorf("IDs: got %q, %q", sections[0].ID, sections[1].ID)
	}
	if sections[1].StartOffset <= sections[0].StartOffset {
		t.Error("offsets must be increasing")
	}
}

func TestFallbackSegmentMergesShortParagraphs(t *testing.T) {
	long := strings.Repeat("A substantial opening paragraph about the project. ", 4)
	text := long + "\n\nShort follow-up line.\n\n" + long

	sections := fallbackSegment(text)
	if len(sections) != 2 {
		t.Fatalf("sections: got %d, want 2 (short paragraph folds into previous)", len(sections))
	}
	if !strings.Contains(sections[0].Content, "Short follow-up line.") {
		t.Error("short paragraph not merged into preceding section")
	}
}

func TestFallbackSegmentLeadingShortParagraph(t *testing.T) {
	// Nothing to merge into: a short opener becomes its own section.
	text := "Title line.\n\n" + strings.Repeat("Body paragraph with enough length to stand on its own. ", 4)

	sections := fallbackSegment(text)
	if len(sections) != 2 {
		t.Fatalf("sections: got %d, want 2", len(sections))
	}
	if sections[0].Content != "Title line." {
		t.Errorf("first section: got %q", sections[0].Content)
	}
}

func TestFallbackSegmentDegenerateInput(t *testing.T) {
	if got := fallbackSegment(""); len(got) != 0 {
		t.Errorf("empty text: got %d sections, want 0", len(got))
	}
	if got := fallbackSegment("   \n\n  "); len(got) != 0 {
		t.Errorf("whitespace text: got %d sections, want 0", len(got))
	}
	got := fallbackSegment("single short note")
	if len(got) != 1 || got[0].Content != "single short note" {
		t.Errorf("single paragraph: got %+v", got)
	}
}

func TestSanitizeSections(t *testing.T) {
	in := []ContentSection{
		{Content: "valid content", StartOffset: -5, EndOffset: 9999},
		{Content: "   "},
		{ID: "custom", Content: "second", StartOffset: 10, EndOffset: 16, Topics: []string{"x"}, Density: 0.7},
	}

	out := sanitizeSections(in, 100)
	if len(out) != 2 {
		t.Fatalf("sections: got %d, want 2 (blank content drops)", len(out))
	}
	if out[0].ID != "s1" {
		t.Errorf("missing ID must be assigned: got %q", out[0].ID)
	}
	if out[0].StartOffset != 0 {
		t.Errorf("negative start must clamp to 0: got %d", out[0].StartOffset)
	}
	if out[0].EndOffset > 100 {
		t.Errorf("end offset must clamp to doc length: got %d", out[0].EndOffset)
	}
	if out[0].Topics == nil {
		t.Error("nil topics must become an empty slice")
	}
	if out[1].ID != "custom" {
		t.Errorf("existing ID must be kept: got %q", out[1].ID)
	}
	if out[1].Density != 0 {
		t.Errorf("density must be zeroed until synthesis: got %v", out[1].Density)
	}
}
