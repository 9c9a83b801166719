package overlay

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The five markup-significant characters are escaped in all rendered text,
// both inside and outside span wrappers, so third-party-generated strings can
// never inject structure into the visual tree.
var (
	escaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	unescaper = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&amp;", "&",
	)
)

// EscapeText escapes arbitrary text for safe embedding in markup.
func EscapeText(s string) string {
	return escaper.Replace(s)
}

// UnescapeText is the inverse of EscapeText.
func UnescapeText(s string) string {
	return unescaper.Replace(s)
}

// BuildMarkup interleaves escaped plain text with escaped annotated spans.
// Every character of text appears exactly once in the output, either as plain
// escaped text or inside a wrapper element whose boundaries exactly match the
// span's. Each wrapper carries the given class, a stable positional index,
// and the escaped message as addressable attributes for later event binding.
//
// spans must be sorted ascending by start and non-overlapping, as produced by
// LocateSpans; behavior is undefined otherwise.
func BuildMarkup(text string, spans []RenderedSpan, class string) string {
	if len(spans) == 0 {
		return EscapeText(text)
	}

	var b strings.Builder
	cursor := 0
	for i, s := range spans {
		if s.Start > cursor {
			b.WriteString(EscapeText(text[cursor:s.Start]))
		}
		b.WriteString(fmt.Sprintf(
			`<span class="%s" data-index="%d" data-message="%s">%s</span>`,
			class,
			i,
			EscapeText(s.Message),
			EscapeText(text[s.Start:s.End]),
		))
		cursor = s.End
	}
	if cursor < len(text) {
		b.WriteString(EscapeText(text[cursor:]))
	}

	return b.String()
}

// GhostMarkup composes the committed input value as an escaped prefix plus
// the pending completion as a visually distinct, wrapped suffix.
func GhostMarkup(committed, ghost string) string {
	return fmt.Sprintf(
		`%s<span class="%s">%s</span>`,
		EscapeText(committed),
		ClassGhostText,
		EscapeText(ghost),
	)
}

// Segment is one run of a parsed markup string. Text is unescaped. Annotated
// segments originate from a span wrapper and carry its class, positional
// index, and unescaped message.
type Segment struct {
	Text      string
	Annotated bool
	Class     string
	Index     int
	Message   string
}

// wrapperRegex matches the span wrappers this package generates. The engine
// only ever parses its own output, so attribute order is fixed.
var wrapperRegex = regexp.MustCompile(
	`<span class="([^"]*)"(?: data-index="([0-9]+)")?(?: data-message="([^"]*)")?>([^<]*)</span>`,
)

// ParseMarkup splits a markup string produced by BuildMarkup or GhostMarkup
// back into ordered segments. Concatenating every segment's Text reconstructs
// the original unescaped input exactly.
func ParseMarkup(markup string) []Segment {
	if markup == "" {
		return nil
	}

	var segments []Segment
	cursor := 0
	for _, m := range wrapperRegex.FindAllStringSubmatchIndex(markup, -1) {
		if m[0] > cursor {
			segments = append(segments, Segment{
				Text: UnescapeText(markup[cursor:m[0]]),
			})
		}

		seg := Segment{
			Annotated: true,
			Class:     markup[m[2]:m[3]],
			Index:     -1,
			Text:      UnescapeText(markup[m[8]:m[9]]),
		}
		if m[4] >= 0 {
			seg.Index, _ = strconv.Atoi(markup[m[4]:m[5]])
		}
		if m[6] >= 0 {
			seg.Message = UnescapeText(markup[m[6]:m[7]])
		}
		segments = append(segments, seg)
		cursor = m[1]
	}
	if cursor < len(markup) {
		segments = append(segments, Segment{
			Text: UnescapeText(markup[cursor:]),
		})
	}

	return segments
}
