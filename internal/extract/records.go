// Package extract recognizes structured tag blocks embedded in streamed
// assistant text and turns them into typed records.
//
// DESIGN: The model emits free-form prose with machine-parseable blocks
// like <topic_idea>...</topic_idea> inline. Extraction always runs
// against the cumulative assistant text for the current turn, never
// against an individual chunk, so a tag split across arbitrary network
// boundaries is still matched exactly once when it closes. The cost is
// O(buffer) per delta, which is fine for conversations bounded by a few
// thousand tokens.
package extract

import (
	"strings"
	"unicode/utf8"
)

// MaxDescriptionChars is the application's activity-description limit.
// The server never enforces it; the flag on OptimizedDescription is a
// client-side indicator computed from the text length alone.
const MaxDescriptionChars = 150

// Record is one structured object parsed from a closed tag block.
// Records are immutable once created; Key identifies a record for
// deduplication and client-side dismissal.
type Record interface {
	Key() string
}

// TopicIdea is a personal-statement topic suggestion.
type TopicIdea struct {
	Title       string
	Description string
}

func (r TopicIdea) Key() string { return "topic_idea:" + r.Title }

// School list categories the UI groups recommendations into.
const (
	CategoryReach         = "reach"
	CategoryTarget        = "target"
	CategorySafety        = "safety"
	CategoryUncategorized = "uncategorized"
)

// SchoolRecommendation is one school-list suggestion. Category holds the
// raw value the model emitted; out-of-enum values are passed through and
// bucketed as uncategorized by the UI rather than rejected at parse time.
type SchoolRecommendation struct {
	Name     string
	Category string
	Reason   string
}

func (r SchoolRecommendation) Key() string { return "school_recommendation:" + r.Name }

// Bucket normalizes Category for UI grouping.
func (r SchoolRecommendation) Bucket() string {
	switch strings.ToLower(strings.TrimSpace(r.Category)) {
	case CategoryReach:
		return CategoryReach
	case CategoryTarget:
		return CategoryTarget
	case CategorySafety:
		return CategorySafety
	default:
		return CategoryUncategorized
	}
}

// OutlineSection is one titled section of an essay outline.
type OutlineSection struct {
	Title   string
	Content string
}

// EssayOutline is a structural skeleton for an essay: an optional hook,
// a variable number of titled sections, and an optional conclusion.
type EssayOutline struct {
	Hook       string
	Sections   []OutlineSection
	Conclusion string
}

func (r EssayOutline) Key() string {
	parts := make([]string, 0, len(r.Sections)+1)
	parts = append(parts, r.Hook)
	for _, s := range r.Sections {
		parts = append(parts, s.Title)
	}
	return "essay_outline:" + strings.Join(parts, "|")
}

// OptimizedDescription is a rewritten activity description with its
// character count checked against MaxDescriptionChars.
type OptimizedDescription struct {
	Text        string
	CharCount   int
	WithinLimit bool
}

func (r OptimizedDescription) Key() string { return "optimized_description:" + r.Text }

func newOptimizedDescription(text string) OptimizedDescription {
	n := utf8.RuneCountInString(text)
	return OptimizedDescription{
		Text:        text,
		CharCount:   n,
		WithinLimit: n <= MaxDescriptionChars,
	}
}
