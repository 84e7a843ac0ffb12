// Package jsonfix recovers structured values from unreliable generative-text
// output.
//
// LLM responses that are supposed to be JSON routinely arrive wrapped in
// markdown fences, truncated mid-structure, or littered with trailing and
// duplicate commas. jsonfix makes the best of them in three escalating steps:
//
//  1. Clean: strip fences or isolate the first balanced {...}/[...] span,
//     then try a direct parse.
//  2. Repair: truncate back to the last complete element, normalize commas,
//     and append the missing closers found by a string-aware scanner.
//  3. Partial: pull out individually parseable named array fields and ignore
//     the rest of the document.
//
// The package knows nothing about entity semantics — it is a generic
// degrade-gracefully utility shared by every pipeline stage that talks to
// the provider.
package jsonfix

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// scanState is the character-scanner state used by the repair pass.
type scanState int

const (
	scanNormal scanState = iota
	scanInString
	scanEscaped
)

var (
	fenceLineRE      = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")
	trailingCommaRE  = regexp.MustCompile(`,\s*([}\]])`)
	duplicateCommaRE = regexp.MustCompile(`,(\s*,)+`)
	leadingCommaRE   = regexp.MustCompile(`([{\[])\s*,`)
)

// Unmarshal decodes the best JSON value recoverable from raw into v.
// It tries a direct parse of the cleaned text first, then a repaired copy.
// On failure the target is left untouched, so callers keep their defaults.
func Unmarshal(raw string, v any) error {
	candidate := Clean(raw)
	if candidate == "" {
		return fmt.Errorf("no structured content found")
	}

	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return nil
	}

	repaired := Repair(candidate)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("unparseable after repair: %w", err)
	}
	return nil
}

// Clean strips markdown wrapping and isolates the JSON payload in raw.
//
// If the whole response is a fenced code block, the fences are removed.
// Otherwise stray fence lines are dropped, and if the remainder still has
// leading/trailing prose, the first balanced {...} or [...] span is
// extracted. When no structure is found the trimmed input is returned
// as-is so the caller's parse attempt produces a real error.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if strings.HasPrefix(s, "```") {
		if body, ok := unfence(s); ok {
			s = body
		}
	}
	// Stray fence lines that survived (e.g. an unterminated block).
	s = strings.TrimSpace(fenceLineRE.ReplaceAllString(s, ""))

	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}

	if span, ok := firstSpan(s); ok {
		return span
	}
	return s
}

// unfence removes a wrapping ```...``` block, returning its body.
func unfence(s string) (string, bool) {
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return "", false
	}
	body := s[nl+1:]
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return "", false
	}
	return body, true
}

// firstSpan extracts the first top-level {...} or [...] span from s.
// The scan is string-aware; an unterminated span runs to end of input so
// the repair pass can still close it.
func firstSpan(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}

	state := scanNormal
	depth := 0
	for i := start; i < len(s); i++ {
		c := s[i]
		switch state {
		case scanEscaped:
			state = scanInString
		case scanInString:
			switch c {
			case '\\':
				state = scanEscaped
			case '"':
				state = scanNormal
			}
		default:
			switch c {
			case '"':
				state = scanInString
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return s[start:], true
}

// Repair rewrites s into the closest syntactically valid JSON text.
//
// Applied in order: truncate a non-terminated tail back to the last
// complete element, strip trailing commas before closers, collapse
// duplicate commas, drop a comma that directly follows an opener, and
// finally append whatever closers the scanner finds unmatched.
func Repair(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	if !strings.HasSuffix(s, "}") && !strings.HasSuffix(s, "]") {
		s = truncateToLastElement(s)
	}

	s = trailingCommaRE.ReplaceAllString(s, "$1")
	s = duplicateCommaRE.ReplaceAllString(s, ",")
	s = leadingCommaRE.ReplaceAllString(s, "$1")

	return closeOpenDelimiters(s)
}

// truncateToLastElement cuts a truncated document back to the end of its
// last complete element: the last "},", "]," or `",` boundary.
func truncateToLastElement(s string) string {
	cut := -1
	for _, marker := range []string{"},", "],", `",`} {
		if idx := strings.LastIndex(s, marker); idx > cut {
			cut = idx
		}
	}
	if cut < 0 {
		return s
	}
	// Keep the closer/quote, drop the dangling element after the comma.
	return s[:cut+1]
}

// closeOpenDelimiters walks s with an explicit scanner (Normal, InString,
// Escaped) tracking unmatched openers, then appends the missing closers in
// reverse order. A string left open at EOF is closed first.
func closeOpenDelimiters(s string) string {
	state := scanNormal
	var stack []byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case scanEscaped:
			state = scanInString
		case scanInString:
			switch c {
			case '\\':
				state = scanEscaped
			case '"':
				state = scanNormal
			}
		default:
			switch c {
			case '"':
				state = scanInString
			case '{':
				stack = append(stack, '}')
			case '[':
				stack = append(stack, ']')
			case '}', ']':
				if len(stack) > 0 && stack[len(stack)-1] == c {
					stack = stack[:len(stack)-1]
				}
			}
		}
	}

	var sb strings.Builder
	if state == scanNormal {
		// A dangling comma before synthesized closers would re-break the text.
		s = strings.TrimRight(s, " \t\r\n,")
	}
	sb.WriteString(s)
	if state != scanNormal {
		sb.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		sb.WriteByte(stack[i])
	}
	return sb.String()
}

// ArrayField extracts the named top-level array from raw, independently of
// whether the surrounding document parses. Returns the array JSON text.
//
// Valid documents are probed with gjson; broken ones fall back to locating
// the `"name": [` marker and scanning/repairing the span in isolation.
func ArrayField(raw, name string) (string, bool) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return "", false
	}

	if gjson.Valid(cleaned) {
		res := gjson.Get(cleaned, name)
		if res.IsArray() {
			return res.Raw, true
		}
		return "", false
	}

	marker := regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `"\s*:\s*\[`)
	loc := marker.FindStringIndex(cleaned)
	if loc == nil {
		return "", false
	}

	span, _ := firstSpan(cleaned[loc[1]-1:])
	if span == "" {
		return "", false
	}
	if json.Valid([]byte(span)) {
		return span, true
	}

	repaired := Repair(span)
	if json.Valid([]byte(repaired)) {
		return repaired, true
	}
	return "", false
}

// UnmarshalArrayField decodes the named array field from raw into v
// (a pointer to a slice). Used for the partial-extraction path where the
// document as a whole is beyond repair but individual arrays survive.
func UnmarshalArrayField(raw, name string, v any) bool {
	span, ok := ArrayField(raw, name)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(span), v) == nil
}
