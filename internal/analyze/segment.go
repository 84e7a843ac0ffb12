package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/aide-ai/aide/internal/jsonfix"
)

// minParagraphLength is the floor below which a fallback paragraph is
// merged into its neighbor instead of becoming its own section.
const minParagraphLength = 100

const segmentSystemPrompt = `You are a document segmentation system. Split the provided document into topic-coherent sections.

RULES:
1. Each section must cover exactly one topic, customer, or workstream
2. Content must be VERBATIM text from the document - never paraphrase
3. startOffset/endOffset are approximate character offsets into the document
4. topics is a short list of lowercase topic labels per section
5. Return ONLY the JSON object, no additional text

Return ONLY a JSON object:
{
  "sections": [
    {
      "id": "s1",
      "title": "short section title",
      "content": "verbatim section text",
      "startOffset": 0,
      "endOffset": 480,
      "topics": ["acme corp", "contract renewal"]
    }
  ]
}`

type segmentPayload struct {
	Sections []ContentSection `json:"sections"`
}

// segment splits the document into topic-coherent sections via the
// provider. On provider failure, unparseable output, or an empty section
// list it falls back to a deterministic paragraph split, so the pipeline
// always has at least a coarse section list. The second return reports
// whether the fallback was used.
func (a *Analyzer) segment(ctx context.Context, text string) ([]ContentSection, bool) {
	prompt := fmt.Sprintf("Segment this document into topic-coherent sections:\n\n---\n%s\n---\n\nReturn JSON matching the schema.", text)

	raw, err := a.complete(ctx, segmentSystemPrompt, prompt, 4096)
	if err != nil {
		a.log.WithError(err).Warn("segmentation call failed, using paragraph fallback")
		return fallbackSegment(text), true
	}

	var payload segmentPayload
	if err := jsonfix.Unmarshal(raw, &payload); err != nil {
		if !jsonfix.UnmarshalArrayField(raw, "sections", &payload.Sections) {
			a.log.WithError(err).Warn("segmentation output unparseable, using paragraph fallback")
			return fallbackSegment(text), true
		}
	}

	sections := sanitizeSections(payload.Sections, len(text))
	if len(sections) == 0 {
		a.log.Warn("segmentation returned no usable sections, using paragraph fallback")
		return fallbackSegment(text), true
	}
	return sections, false
}

// sanitizeSections drops empty sections, assigns missing IDs, and clamps
// offsets into the document range.
func sanitizeSections(sections []ContentSection, docLen int) []ContentSection {
	out := make([]ContentSection, 0, len(sections))
	for i, sec := range sections {
		if strings.TrimSpace(sec.Content) == "" {
			continue
		}
		if sec.ID == "" {
			sec.ID = fmt.Sprintf("s%d", i+1)
		}
		if sec.Topics == nil {
			sec.Topics = []string{}
		}
		if sec.StartOffset < 0 {
			sec.StartOffset = 0
		}
		if sec.EndOffset <= sec.StartOffset || sec.EndOffset > docLen {
			sec.EndOffset = min(sec.StartOffset+len(sec.Content), docLen)
		}
		sec.Density = 0
		out = append(out, sec)
	}
	return out
}

// fallbackSegment is the provider-free paragraph split: break on blank
// lines, merge short paragraphs into the preceding section as context,
// and assign sequential approximate offsets.
func fallbackSegment(text string) []ContentSection {
	paragraphs := splitParagraphs(text)

	var sections []ContentSection
	offset := 0
	for _, para := range paragraphs {
		trimmed := strings.TrimSpace(para)
		if trimmed == "" {
			offset += len(para) + 2
			continue
		}

		if len(trimmed) < minParagraphLength && len(sections) > 0 {
			// Too short to stand alone: fold into the previous section.
			last := &sections[len(sections)-1]
			last.Content += "\n\n" + trimmed
			last.EndOffset = offset + len(para)
		} else {
			sections = append(sections, ContentSection{
				ID:          fmt.Sprintf("s%d", len(sections)+1),
				Content:     trimmed,
				StartOffset: offset,
				EndOffset:   offset + len(para),
				Topics:      []string{},
			})
		}
		offset += len(para) + 2
	}

	if len(sections) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return []ContentSection{}
		}
		return []ContentSection{{
			ID:          "s1",
			Content:     trimmed,
			StartOffset: 0,
			EndOffset:   len(text),
			Topics:      []string{},
		}}
	}
	return sections
}

func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(normalized, "\n\n")
}
