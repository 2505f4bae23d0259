// Package protocol defines the wire contract between the AI-tool proxy
// endpoint and its streaming consumers.
//
// DESIGN: Two layers share these types:
//   - ToolRequest:  POST /ai request body (tool id + conversation so far)
//   - Event:        server→client frames, emitted as "data: {json}\n\n"
//
// Types are defined here to avoid circular imports between the gateway
// and the client consumer.
package protocol

// Message roles. System messages never travel in a ToolRequest; the
// system prompt comes from the tool registry on the server side.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the conversation transcript.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolRequest is the body of POST /ai.
type ToolRequest struct {
	ToolType string        `json:"tool_type"`
	Messages []ChatMessage `json:"messages"`
}

// Stream event types. A successful stream is: one "meta", zero or more
// "text", then exactly one terminal "done" or "error".
const (
	EventMeta  = "meta"
	EventText  = "text"
	EventDone  = "done"
	EventError = "error"
)

// Event is one framed stream event.
// Remaining is a pointer so that a legitimate zero (last request of the
// day) still serializes.
type Event struct {
	Type      string `json:"type"`
	Remaining *int   `json:"remaining,omitempty"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

// MetaEvent carries the post-decrement remaining-quota count.
func MetaEvent(remaining int) Event {
	return Event{Type: EventMeta, Remaining: &remaining}
}

// TextEvent carries one incremental delta of assistant text.
func TextEvent(text string) Event {
	return Event{Type: EventText, Text: text}
}

// DoneEvent signals clean termination.
func DoneEvent() Event {
	return Event{Type: EventDone}
}

// ErrorEvent signals terminal failure; no further events follow it.
func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Error: msg}
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}
