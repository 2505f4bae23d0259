// Package tools holds the static AI-tool configuration table.
//
// Each tool is one distinct AI-assisted feature (essay brainstorming,
// school matching, ...) with its own system prompt, model, and response
// size budget. The table is data: swapping a prompt never touches the
// proxy or the consumer.
package tools

import (
	"errors"
	"fmt"
)

// Tool ids routed through POST /ai.
const (
	TopicBrainstorm   = "topic_brainstorm"
	SchoolMatcher     = "school_matcher"
	EssayOutliner     = "essay_outliner"
	ActivityOptimizer = "activity_optimizer"
	InterviewPrep     = "interview_prep"
)

// ErrUnknownTool is returned for tool ids with no registry entry.
// Callers treat this as a client error, not a server fault.
var ErrUnknownTool = errors.New("unknown tool")

// Config is one immutable tool entry.
type Config struct {
	ID           string
	SystemPrompt string
	Model        string
	MaxTokens    int
}

// Registry resolves tool ids to their configuration.
type Registry struct {
	tools map[string]Config
}

// NewRegistry builds the built-in tool table.
func NewRegistry() *Registry {
	entries := []Config{
		{
			ID:           TopicBrainstorm,
			SystemPrompt: topicBrainstormPrompt,
			Model:        "claude-sonnet-4-5",
			MaxTokens:    1024,
		},
		{
			ID:           SchoolMatcher,
			SystemPrompt: schoolMatcherPrompt,
			Model:        "claude-sonnet-4-5",
			MaxTokens:    1500,
		},
		{
			ID:           EssayOutliner,
			SystemPrompt: essayOutlinerPrompt,
			Model:        "claude-sonnet-4-5",
			MaxTokens:    2000,
		},
		{
			ID:           ActivityOptimizer,
			SystemPrompt: activityOptimizerPrompt,
			Model:        "claude-haiku-4-5",
			MaxTokens:    512,
		},
		{
			ID:           InterviewPrep,
			SystemPrompt: interviewPrepPrompt,
			Model:        "claude-sonnet-4-5",
			MaxTokens:    1024,
		},
	}

	tools := make(map[string]Config, len(entries))
	for _, e := range entries {
		tools[e.ID] = e
	}
	return &Registry{tools: tools}
}

// Resolve returns the config for a tool id, or ErrUnknownTool.
func (r *Registry) Resolve(toolID string) (Config, error) {
	cfg, ok := r.tools[toolID]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownTool, toolID)
	}
	return cfg, nil
}

// IDs returns all registered tool ids.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	return ids
}
