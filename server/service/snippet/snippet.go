// Package snippet renders compact previews of record content for search
// responses. Long records are cut to a window around the first query
// term occurrence, adjusted to word boundaries so previews never break
// mid-word.
package snippet

import (
	"strings"
	"unicode"
)

const (
	defaultContextChars = 80
	maxSnippetChars     = 200
)

// Extractor builds content previews.
type Extractor struct {
	contextChars int
	maxChars     int
}

func NewExtractor() *Extractor {
	return &Extractor{
		contextChars: defaultContextChars,
		maxChars:     maxSnippetChars,
	}
}

// Extract returns a preview of content centered on the first occurrence
// of any query term. Content short enough to fit is returned unchanged.
// When no term matches, the preview is taken from the start.
func (e *Extractor) Extract(content, query string) string {
	runes := []rune(content)
	if len(runes) <= e.maxChars {
		return content
	}

	center := e.firstMatch(content, query)
	start := center - e.contextChars
	end := center + e.contextChars
	if start < 0 {
		end -= start
		start = 0
	}
	if end > len(runes) {
		start -= end - len(runes)
		end = len(runes)
		if start < 0 {
			start = 0
		}
	}

	adjStart := adjustToWordBoundary(runes, start, false)
	adjEnd := adjustToWordBoundary(runes, end, true)
	// Unbroken runs longer than the window defeat boundary adjustment;
	// keep the raw window in that case.
	if adjEnd > adjStart {
		start, end = adjStart, adjEnd
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(strings.TrimSpace(string(runes[start:end])))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}

// firstMatch returns the rune index of the earliest query term found in
// content, or 0 when nothing matches.
func (e *Extractor) firstMatch(content, query string) int {
	lowered := strings.ToLower(content)
	best := -1
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(term)) < 2 {
			continue
		}
		byteIdx := strings.Index(lowered, term)
		if byteIdx < 0 {
			continue
		}
		runeIdx := len([]rune(lowered[:byteIdx]))
		if best < 0 || runeIdx < best {
			best = runeIdx
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

// adjustToWordBoundary moves an index off the middle of a word. Forward
// scans shrink the window so a trailing partial word is dropped.
func adjustToWordBoundary(runes []rune, idx int, forward bool) int {
	if idx <= 0 || idx >= len(runes) {
		return idx
	}
	if forward {
		for idx > 0 && !unicode.IsSpace(runes[idx-1]) && !unicode.IsSpace(runes[idx]) {
			idx--
		}
	} else {
		for idx < len(runes) && !unicode.IsSpace(runes[idx]) && !unicode.IsSpace(runes[idx-1]) {
			idx++
		}
	}
	return idx
}
