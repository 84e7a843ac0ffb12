package analyze

import (
	"sort"
	"strings"
	"unicode"

	prose "github.com/jdkato/prose/v2"
)

// documentTypeFamilies are matched against the raw text in priority
// order; the first family with a hit wins. No hit means mixed.
var documentTypeFamilies = []struct {
	docType  DocumentType
	keywords []string
}{
	{DocTypeMeetingNotes, []string{"meeting", "minutes", "agenda", "attendees", "discussed"}},
	{DocTypePlanning, []string{"plan", "roadmap", "milestone", "project", "schedule"}},
	{DocTypeReview, []string{"review", "retrospective", "feedback", "assessment"}},
}

// stopwords excluded from keyword frequency counting.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "will": true, "have": true, "has": true,
	"are": true, "was": true, "were": true, "been": true, "about": true,
	"into": true, "over": true, "under": true, "not": true, "but": true,
	"our": true, "their": true, "your": true, "its": true, "them": true,
	"they": true, "would": true, "should": true, "could": true, "than": true,
	"then": true, "when": true, "what": true, "which": true, "while": true,
	"also": true, "all": true, "each": true, "per": true, "can": true,
	"you": true, "his": true, "her": true, "out": true, "any": true,
}

// buildInsights derives the document-level summary from the accumulated
// entities and candidates. Pure function of the result contents — it
// cannot fail and makes no provider calls.
func (a *Analyzer) buildInsights(text string, res *Result) OverallInsights {
	urgentTasks := 0
	for _, t := range res.Tasks {
		if t.Priority == PriorityUrgent {
			urgentTasks++
		}
	}
	urgentAppts := 0
	for _, appt := range res.Appointments {
		if appt.Urgency == UrgencyHigh {
			urgentAppts++
		}
	}

	businessValue := clamp01(0.3*float64(len(res.Appointments)) +
		0.4*float64(len(res.Candidates)) +
		0.2*float64(urgentTasks))

	return OverallInsights{
		DocumentType:          classifyDocument(text),
		BusinessValue:         businessValue,
		UrgencyLevel:          urgencyLevel(urgentTasks, urgentAppts, len(res.Tasks)),
		KeyTopics:             keyTopics(text, 5),
		ActionItemsCount:      len(res.Tasks) + len(res.Appointments),
		ProjectPotentialCount: len(res.Candidates),
		Confidence:            overallConfidence(res),
	}
}

// classifyDocument matches keyword families against the raw text in
// priority order: meeting notes, then planning, then review, else mixed.
func classifyDocument(text string) DocumentType {
	lower := strings.ToLower(text)
	for _, family := range documentTypeFamilies {
		for _, kw := range family.keywords {
			if strings.Contains(lower, kw) {
				return family.docType
			}
		}
	}
	return DocTypeMixed
}

// urgencyLevel is a step function of urgent task and appointment counts.
func urgencyLevel(urgentTasks, urgentAppts, totalTasks int) UrgencyLevel {
	switch {
	case urgentTasks >= 3 || urgentAppts >= 2:
		return UrgencyLevelCritical
	case urgentTasks >= 2 || urgentAppts >= 1:
		return UrgencyLevelHigh
	case urgentTasks >= 1 || totalTasks >= 3:
		return UrgencyLevelMedium
	default:
		return UrgencyLevelLow
	}
}

// keyTopics returns the top-n most frequent multi-character tokens.
// Tokenization goes through prose; if that fails (or for degenerate
// input) a whitespace split stands in. Ties break alphabetically so the
// output is deterministic.
func keyTopics(text string, n int) []string {
	freq := map[string]int{}
	for _, tok := range tokenize(text) {
		tok = strings.ToLower(strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if len([]rune(tok)) < 2 || stopwords[tok] || !hasLetter(tok) {
			continue
		}
		freq[tok]++
	}

	tokens := make([]string, 0, len(freq))
	for tok := range freq {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if freq[tokens[i]] != freq[tokens[j]] {
			return freq[tokens[i]] > freq[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})

	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return tokens
}

func tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return strings.Fields(text)
	}

	tokens := doc.Tokens()
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Text)
	}
	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// overallConfidence averages entity confidences across all kinds. An
// empty result (gate skip or full degradation) scores zero, which is the
// caller's only signal that nothing actionable was found.
func overallConfidence(res *Result) float64 {
	sum, count := 0.0, 0
	for _, t := range res.Tasks {
		sum += t.Confidence
		count++
	}
	for _, appt := range res.Appointments {
		sum += appt.Confidence
		count++
	}
	for _, c := range res.Contacts {
		sum += c.Confidence
		count++
	}
	for _, e := range res.Events {
		sum += e.Confidence
		count++
	}
	for _, p := range res.PersonalItems {
		sum += p.Confidence
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
