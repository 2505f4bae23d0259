package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_FlatRecord(t *testing.T) {
	s := NewSession("topic_brainstorm")

	buf := "What about this? <topic_idea><title>Soup Kitchen</title><description>Weekly volunteering taught you logistics.</description></topic_idea> Want another?"
	display, records := s.Process(buf)

	require.Len(t, records, 1)
	idea := records[0].(TopicIdea)
	assert.Equal(t, "Soup Kitchen", idea.Title)
	assert.Equal(t, "Weekly volunteering taught you logistics.", idea.Description)
	assert.Equal(t, "What about this?  Want another?", display)
}

func TestSession_BoundaryStraddlingTag(t *testing.T) {
	s := NewSession("topic_brainstorm")

	// Chunk 1: tag opens but does not close.
	buf := "Here is an idea: <topic_idea><title>Soup"
	display, records := s.Process(buf)
	assert.Empty(t, records)
	assert.Equal(t, "Here is an idea: ", display)
	assert.NotContains(t, display, "<")

	// Chunk 2: tag closes, more prose follows.
	buf += " Kitchen</title><description>desc</description></topic_idea> more text"
	display, records = s.Process(buf)
	require.Len(t, records, 1)
	idea := records[0].(TopicIdea)
	assert.Equal(t, "Soup Kitchen", idea.Title)
	assert.Equal(t, "desc", idea.Description)
	assert.Equal(t, "Here is an idea:  more text", display)
}

func TestSession_PartialOpenMarkerHidden(t *testing.T) {
	s := NewSession("topic_brainstorm")

	for i := 1; i < len("<topic_idea"); i++ {
		display, records := s.Process("Some prose " + "<topic_idea"[:i])
		assert.Empty(t, records)
		assert.Equal(t, "Some prose ", display, "prefix length %d", i)
	}
}

func TestSession_NoDuplicateOnRescan(t *testing.T) {
	s := NewSession("topic_brainstorm")

	buf := "<topic_idea><title>Debate</title><description>d</description></topic_idea>"
	_, records := s.Process(buf)
	require.Len(t, records, 1)

	// Every later delta re-scans the same cumulative buffer.
	_, records = s.Process(buf + " and more prose")
	assert.Empty(t, records)

	// A later chunk re-containing the earlier block also must not re-emit.
	_, records = s.Process(buf + " and more prose " + buf)
	assert.Empty(t, records)
}

func TestSession_ConsecutiveBlocksNotMerged(t *testing.T) {
	s := NewSession("school_matcher")

	buf := "<school_recommendation><name>Alpha College</name><category>reach</category><reason>r1</reason></school_recommendation>" +
		"<school_recommendation><name>Beta University</name><category>safety</category><reason>r2</reason></school_recommendation>"
	display, records := s.Process(buf)

	require.Len(t, records, 2)
	assert.Equal(t, "Alpha College", records[0].(SchoolRecommendation).Name)
	assert.Equal(t, "Beta University", records[1].(SchoolRecommendation).Name)
	assert.Empty(t, display)
}

func TestSession_OutOfEnumCategoryPassedThrough(t *testing.T) {
	s := NewSession("school_matcher")

	buf := "<school_recommendation><name>Gamma Tech</name><category>stretch goal</category><reason>r</reason></school_recommendation>"
	_, records := s.Process(buf)

	require.Len(t, records, 1)
	rec := records[0].(SchoolRecommendation)
	assert.Equal(t, "stretch goal", rec.Category)
	assert.Equal(t, CategoryUncategorized, rec.Bucket())
}

func TestSession_CategoryBuckets(t *testing.T) {
	for raw, want := range map[string]string{
		"reach":    CategoryReach,
		"Target":   CategoryTarget,
		" safety ": CategorySafety,
		"likely":   CategoryUncategorized,
	} {
		rec := SchoolRecommendation{Category: raw}
		assert.Equal(t, want, rec.Bucket(), "category %q", raw)
	}
}

func TestSession_EssayOutline(t *testing.T) {
	s := NewSession("essay_outliner")

	buf := `Here is a structure: <essay_outline><hook>Open mid-shift at the soup kitchen</hook><section title="The problem">Describe the broken intake process</section><section title="The fix">Walk through building the spreadsheet system</section><conclusion>Tie logistics back to caring for people</conclusion></essay_outline> Thoughts?`
	display, records := s.Process(buf)

	require.Len(t, records, 1)
	outline := records[0].(EssayOutline)
	assert.Equal(t, "Open mid-shift at the soup kitchen", outline.Hook)
	require.Len(t, outline.Sections, 2)
	assert.Equal(t, "The problem", outline.Sections[0].Title)
	assert.Equal(t, "Walk through building the spreadsheet system", outline.Sections[1].Content)
	assert.Equal(t, "Tie logistics back to caring for people", outline.Conclusion)
	assert.Equal(t, "Here is a structure:  Thoughts?", display)
}

func TestSession_OutlineOptionalFields(t *testing.T) {
	s := NewSession("essay_outliner")

	buf := `<essay_outline><section title="Only">content</section></essay_outline>`
	_, records := s.Process(buf)

	require.Len(t, records, 1)
	outline := records[0].(EssayOutline)
	assert.Empty(t, outline.Hook)
	assert.Empty(t, outline.Conclusion)
	require.Len(t, outline.Sections, 1)
}

func TestSession_OptimizedDescriptionCharLimit(t *testing.T) {
	s := NewSession("activity_optimizer")

	short := "Led 12-member debate team to state finals; organized weekly practices."
	_, records := s.Process("<optimized_description>" + short + "</optimized_description>")
	require.Len(t, records, 1)
	rec := records[0].(OptimizedDescription)
	assert.Equal(t, len([]rune(short)), rec.CharCount)
	assert.True(t, rec.WithinLimit)

	// The flag is computed purely from the text length - the model is
	// not trusted to have honored the instruction.
	long := strings.Repeat("x", MaxDescriptionChars+1)
	_, records = s.Process("<optimized_description>" + short + "</optimized_description><optimized_description>" + long + "</optimized_description>")
	require.Len(t, records, 1)
	rec = records[0].(OptimizedDescription)
	assert.Equal(t, MaxDescriptionChars+1, rec.CharCount)
	assert.False(t, rec.WithinLimit)
}

func TestSession_PassthroughToolKeepsTextVerbatim(t *testing.T) {
	s := NewSession("interview_prep")

	buf := "Tell me about a time you < pushed through a setback."
	display, records := s.Process(buf)
	assert.Empty(t, records)
	assert.Equal(t, buf, display)
}

func TestSession_RecordsImmutableIdentity(t *testing.T) {
	a := TopicIdea{Title: "T", Description: "d1"}
	b := TopicIdea{Title: "T", Description: "d2"}
	assert.Equal(t, a.Key(), b.Key(), "identity is title-based for topic ideas")

	c := OptimizedDescription{Text: "same"}
	d := OptimizedDescription{Text: "same"}
	assert.Equal(t, c.Key(), d.Key(), "identity is value-based for rewrites")
}
