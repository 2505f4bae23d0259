package extract

import "strings"

// Session applies one tool's grammar to a growing assistant-text buffer.
// It remembers which records it has already emitted, so re-scanning the
// same buffer (which happens on every delta) never duplicates a record.
// A fresh Session is created per assistant turn.
type Session struct {
	g    *grammar
	seen map[string]struct{}
}

// NewSession creates an extraction session for a tool. Tools without a
// grammar get a passthrough session: Process returns the buffer
// unchanged and never emits records.
func NewSession(toolID string) *Session {
	return &Session{
		g:    grammarByTool[toolID],
		seen: make(map[string]struct{}),
	}
}

// Process scans the cumulative buffer and returns the text to display
// plus any records whose closing tag has newly appeared. The displayed
// text has all complete tag blocks excised and any trailing incomplete
// opening tag truncated, so partially-streamed markup never reaches the
// user.
func (s *Session) Process(buf string) (display string, records []Record) {
	if s.g == nil {
		return buf, nil
	}

	for _, match := range s.g.block.FindAllStringSubmatch(buf, -1) {
		rec, ok := s.g.parse(match)
		if !ok {
			continue
		}
		if _, dup := s.seen[rec.Key()]; dup {
			continue
		}
		s.seen[rec.Key()] = struct{}{}
		records = append(records, rec)
	}

	display = s.g.block.ReplaceAllString(buf, "")

	// A block that has opened but not yet closed is hidden from the
	// tail of the display.
	if idx := strings.Index(display, s.g.openMarker); idx >= 0 {
		display = display[:idx]
	}
	display = trimPartialMarker(display, s.g.openMarker)

	return display, records
}

// trimPartialMarker removes a trailing partial prefix of the opening tag
// (e.g. a chunk ending in "<topic_") so half-arrived markup is never
// flashed to the user.
func trimPartialMarker(text, marker string) string {
	max := len(marker) - 1
	if max > len(text) {
		max = len(text)
	}
	for k := max; k >= 1; k-- {
		if strings.HasSuffix(text, marker[:k]) {
			return text[:len(text)-k]
		}
	}
	return text
}
