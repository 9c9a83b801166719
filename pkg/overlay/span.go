package overlay

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrorAnnotation is a critical issue reported by the review provider. Span
// is a literal substring of the draft, not an offset; offsets are derived at
// render time against whatever the text currently is.
type ErrorAnnotation struct {
	Span    string `json:"span"`
	Message string `json:"message"`
}

// Suggestion is one structured improvement returned by the advisor.
type Suggestion struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Detail   string `json:"detail"`
}

// RenderedSpan is a located annotation: a half-open character range
// [Start, End) within the current text, tagged with its message.
type RenderedSpan struct {
	Start   int
	End     int
	Message string
}

// LocateSpans maps each annotation's literal span onto the current text.
// Each span is trimmed; empty spans are skipped. Matching is the
// case-insensitive first occurrence; annotations whose span does not occur
// are dropped silently, since partial annotation loss is preferable to
// failing the whole render. The result is sorted ascending by start and
// never overlaps: a span intersecting an earlier-accepted one is dropped.
//
// Pure and deterministic: same text and annotations always produce the same
// spans.
func LocateSpans(text string, annotations []ErrorAnnotation) []RenderedSpan {
	if text == "" || len(annotations) == 0 {
		return nil
	}

	located := make([]RenderedSpan, 0, len(annotations))
	for _, a := range annotations {
		query := strings.TrimSpace(a.Span)
		if query == "" {
			continue
		}

		start, end := indexFold(text, query)
		if start < 0 {
			continue
		}

		located = append(located, RenderedSpan{
			Start:   start,
			End:     end,
			Message: a.Message,
		})
	}

	// Stable sort so equal starts keep annotation order; then drop anything
	// intersecting an earlier-accepted span.
	sort.SliceStable(located, func(i, j int) bool {
		return located[i].Start < located[j].Start
	})

	result := located[:0]
	lastEnd := 0
	for _, s := range located {
		if len(result) > 0 && s.Start < lastEnd {
			continue
		}
		result = append(result, s)
		lastEnd = s.End
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// indexFold returns the byte range [start, end) of the first
// case-insensitive occurrence of query in text, or (-1, -1). Offsets are
// byte positions in text itself, never in a case-folded copy: lowercasing
// can change a rune's byte length (U+1E9E lowers from three bytes to two),
// so the match is folded rune by rune against the original string.
func indexFold(text, query string) (int, int) {
	for start := 0; start < len(text); {
		if length, ok := matchFold(text[start:], query); ok {
			return start, start + length
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		start += size
	}
	return -1, -1
}

// matchFold reports whether text begins with a case-insensitive match of
// query, and the matched region's byte length in text.
func matchFold(text, query string) (int, bool) {
	length := 0
	for _, qr := range query {
		tr, size := utf8.DecodeRuneInString(text[length:])
		if size == 0 {
			return 0, false
		}
		if tr != qr && unicode.ToLower(tr) != unicode.ToLower(qr) {
			return 0, false
		}
		length += size
	}
	return length, true
}
