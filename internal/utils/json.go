// Package utils provides common utility functions.
package utils

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// MarshalNoEscape marshals JSON without HTML escaping.
// Stream frames carry tag markup like '<topic_idea>'; escaping it to
// < would inflate every text delta for no benefit.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encoder adds a trailing newline; remove it for parity with json.Marshal.
	out := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	return out, nil
}

// TruncateMessageContents returns a copy of a tool-request body with each
// messages[].content capped at maxLen characters. Used when logging
// request bodies so student essays never land in the logs whole.
func TruncateMessageContents(body []byte, maxLen int) []byte {
	out := body
	msgs := gjson.GetBytes(body, "messages")
	if !msgs.IsArray() {
		return out
	}
	for i, msg := range msgs.Array() {
		content := msg.Get("content").String()
		if len(content) <= maxLen {
			continue
		}
		truncated := content[:maxLen] + fmt.Sprintf("...(%d chars)", len(content))
		if updated, err := sjson.SetBytes(out, fmt.Sprintf("messages.%d.content", i), truncated); err == nil {
			out = updated
		}
	}
	return out
}
