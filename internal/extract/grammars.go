package extract

import (
	"regexp"
	"strings"
)

// grammar describes one tool's embedded record format: a non-greedy
// regexp over complete blocks plus a parser for each match. Non-greedy
// inner matching keeps two consecutive complete blocks from being
// merged into one match.
type grammar struct {
	// openMarker is the literal opening tag, used to truncate
	// partially-streamed markup from the displayed text.
	openMarker string
	block      *regexp.Regexp
	parse      func(match []string) (Record, bool)
}

var (
	topicIdeaPattern = regexp.MustCompile(
		`(?s)<topic_idea>\s*<title>(.*?)</title>\s*<description>(.*?)</description>\s*</topic_idea>`)

	schoolPattern = regexp.MustCompile(
		`(?s)<school_recommendation>\s*<name>(.*?)</name>\s*<category>(.*?)</category>\s*<reason>(.*?)</reason>\s*</school_recommendation>`)

	outlinePattern    = regexp.MustCompile(`(?s)<essay_outline>(.*?)</essay_outline>`)
	hookPattern       = regexp.MustCompile(`(?s)<hook>(.*?)</hook>`)
	sectionPattern    = regexp.MustCompile(`(?s)<section title="(.*?)">(.*?)</section>`)
	conclusionPattern = regexp.MustCompile(`(?s)<conclusion>(.*?)</conclusion>`)

	optimizedPattern = regexp.MustCompile(`(?s)<optimized_description>(.*?)</optimized_description>`)
)

var topicIdeaGrammar = &grammar{
	openMarker: "<topic_idea",
	block:      topicIdeaPattern,
	parse: func(m []string) (Record, bool) {
		title := strings.TrimSpace(m[1])
		if title == "" {
			return nil, false
		}
		return TopicIdea{
			Title:       title,
			Description: strings.TrimSpace(m[2]),
		}, true
	},
}

var schoolGrammar = &grammar{
	openMarker: "<school_recommendation",
	block:      schoolPattern,
	parse: func(m []string) (Record, bool) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			return nil, false
		}
		// Category is deliberately not validated against the enum here;
		// Bucket() falls back to uncategorized for display.
		return SchoolRecommendation{
			Name:     name,
			Category: strings.TrimSpace(m[2]),
			Reason:   strings.TrimSpace(m[3]),
		}, true
	},
}

var outlineGrammar = &grammar{
	openMarker: "<essay_outline",
	block:      outlinePattern,
	parse: func(m []string) (Record, bool) {
		inner := m[1]

		outline := EssayOutline{}
		if hook := hookPattern.FindStringSubmatch(inner); hook != nil {
			outline.Hook = strings.TrimSpace(hook[1])
		}
		// Sub-blocks are extracted by repeated matching until none remain.
		for _, sec := range sectionPattern.FindAllStringSubmatch(inner, -1) {
			outline.Sections = append(outline.Sections, OutlineSection{
				Title:   strings.TrimSpace(sec[1]),
				Content: strings.TrimSpace(sec[2]),
			})
		}
		if concl := conclusionPattern.FindStringSubmatch(inner); concl != nil {
			outline.Conclusion = strings.TrimSpace(concl[1])
		}

		if outline.Hook == "" && len(outline.Sections) == 0 {
			return nil, false
		}
		return outline, true
	},
}

var optimizedGrammar = &grammar{
	openMarker: "<optimized_description",
	block:      optimizedPattern,
	parse: func(m []string) (Record, bool) {
		text := strings.TrimSpace(m[1])
		if text == "" {
			return nil, false
		}
		return newOptimizedDescription(text), true
	},
}

// grammarByTool maps tool ids to their grammar. Tools absent from the
// map (e.g. interview prep) stream plain conversation with no records.
var grammarByTool = map[string]*grammar{
	"topic_brainstorm":   topicIdeaGrammar,
	"school_matcher":     schoolGrammar,
	"essay_outliner":     outlineGrammar,
	"activity_optimizer": optimizedGrammar,
}
