// Package stream consumes the gateway's /ai event stream on behalf of
// a chat surface.
//
// DESIGN: Consumer owns one conversation transcript for one tool. Each
// SendMessage call:
//   - appends the user turn plus an empty assistant placeholder
//   - POSTs the transcript (minus the placeholder) to the gateway
//   - folds text frames into a cumulative buffer, re-extracting
//     structured records and refreshing the placeholder on every delta
//
// USAGE:
//
//	c := stream.NewConsumer(endpoint, tools.TopicBrainstorm, stream.WithAuthToken(tok))
//	err := c.SendMessage(ctx, "help me brainstorm")
//	msgs, recs := c.Messages(), c.Records()
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/admitpath/coach-gateway/internal/config"
	"github.com/admitpath/coach-gateway/internal/extract"
	"github.com/admitpath/coach-gateway/internal/protocol"
	"github.com/admitpath/coach-gateway/internal/utils"
)

// RemainingUnknown is the quota value before any meta frame arrives.
const RemainingUnknown = -1

// Consumer drives one tool conversation against the gateway.
type Consumer struct {
	endpoint   string
	toolID     string
	authToken  string
	httpClient *http.Client

	mu        sync.Mutex
	messages  []protocol.ChatMessage
	records   []extract.Record
	remaining int
	errText   string
	streaming bool
	cancel    context.CancelFunc
}

// ConsumerOption configures the Consumer.
type ConsumerOption func(*Consumer)

// WithAuthToken sets the bearer token sent with each request.
func WithAuthToken(token string) ConsumerOption {
	return func(c *Consumer) {
		c.authToken = token
	}
}

// WithConsumerHTTPClient sets a custom HTTP client.
func WithConsumerHTTPClient(hc *http.Client) ConsumerOption {
	return func(c *Consumer) {
		c.httpClient = hc
	}
}

// NewConsumer creates a consumer for one tool conversation.
func NewConsumer(endpoint, toolID string, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		endpoint:  endpoint,
		toolID:    toolID,
		remaining: RemainingUnknown,
		// No client timeout: streams legitimately run for minutes.
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessage sends one user turn and blocks until the stream finishes.
// Blank input and calls while a stream is in flight are no-ops.
func (c *Consumer) SendMessage(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)

	c.mu.Lock()
	if content == "" || c.streaming {
		c.mu.Unlock()
		return nil
	}
	c.streaming = true
	c.errText = ""
	ctx, c.cancel = context.WithCancel(ctx)

	c.messages = append(c.messages,
		protocol.ChatMessage{Role: protocol.RoleUser, Content: content},
		protocol.ChatMessage{Role: protocol.RoleAssistant, Content: ""},
	)
	transcript := make([]protocol.ChatMessage, len(c.messages)-1)
	copy(transcript, c.messages[:len(c.messages)-1])
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.streaming = false
		c.cancel = nil
		c.mu.Unlock()
	}()

	resp, err := c.post(ctx, transcript)
	if err != nil {
		c.rollbackTurn(err.Error())
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := rejectionError(resp)
		c.rollbackTurn(err.Error())
		return err
	}

	c.consume(resp.Body)
	return nil
}

// Cancel aborts the in-flight stream, if any. Text received so far
// stays in the transcript.
func (c *Consumer) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Consumer) post(ctx context.Context, transcript []protocol.ChatMessage) (*http.Response, error) {
	body, err := utils.MarshalNoEscape(protocol.ToolRequest{
		ToolType: c.toolID,
		Messages: transcript,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling tool request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tool request failed: %w", err)
	}
	return resp, nil
}

// consume reads event frames until a terminal frame or EOF.
func (c *Consumer) consume(body io.Reader) {
	session := extract.NewSession(c.toolID)
	var buffer strings.Builder
	sawTerminal := false

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, config.DefaultBufferSize), config.MaxStreamLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var ev protocol.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// A malformed frame is dropped, not fatal: the next frame
			// may be fine.
			log.Debug().Str("payload", payload).Msg("dropping unparseable frame")
			continue
		}

		switch ev.Type {
		case protocol.EventMeta:
			if ev.Remaining != nil {
				c.mu.Lock()
				c.remaining = *ev.Remaining
				c.mu.Unlock()
			}
		case protocol.EventText:
			buffer.WriteString(ev.Text)
			display, records := session.Process(buffer.String())
			c.mu.Lock()
			c.setPlaceholder(display)
			c.records = append(c.records, records...)
			c.mu.Unlock()
		case protocol.EventError:
			c.mu.Lock()
			c.errText = ev.Error
			c.removePlaceholder()
			c.mu.Unlock()
			sawTerminal = true
		case protocol.EventDone:
			sawTerminal = true
		}
		if sawTerminal {
			break
		}
	}

	if !sawTerminal {
		// Connection dropped mid-stream. Keep whatever text already
		// rendered; an empty placeholder is just noise, remove it.
		c.mu.Lock()
		if c.errText == "" {
			c.errText = "connection lost before the response finished"
		}
		if n := len(c.messages); n > 0 && c.messages[n-1].Role == protocol.RoleAssistant && c.messages[n-1].Content == "" {
			c.removePlaceholder()
		}
		c.mu.Unlock()
	}
}

// rollbackTurn undoes the optimistic user turn and placeholder after a
// pre-stream rejection.
func (c *Consumer) rollbackTurn(errText string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.messages); n >= 2 {
		c.messages = c.messages[:n-2]
	}
	c.errText = errText
}

// setPlaceholder rewrites the trailing assistant placeholder. Caller
// holds the lock.
func (c *Consumer) setPlaceholder(content string) {
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == protocol.RoleAssistant {
		c.messages[n-1].Content = content
	}
}

// removePlaceholder drops the trailing assistant placeholder. Caller
// holds the lock.
func (c *Consumer) removePlaceholder() {
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == protocol.RoleAssistant {
		c.messages = c.messages[:n-1]
	}
}

// rejectionError turns a non-200 response into an error, preferring
// the gateway's own message.
func rejectionError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if msg := gjson.GetBytes(data, "error").String(); msg != "" {
		return fmt.Errorf("request rejected (%d): %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("request rejected (%d)", resp.StatusCode)
}

// =============================================================================
// ACCESSORS - all return copies; the consumer keeps mutating state
// =============================================================================

// Messages returns a copy of the transcript.
func (c *Consumer) Messages() []protocol.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Records returns a copy of the extracted records, in arrival order.
func (c *Consumer) Records() []extract.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]extract.Record, len(c.records))
	copy(out, c.records)
	return out
}

// DismissRecord removes the record with the given identity key.
func (c *Consumer) DismissRecord(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, rec := range c.records {
		if rec.Key() == key {
			c.records = append(c.records[:i], c.records[i+1:]...)
			return
		}
	}
}

// Remaining returns the last quota count seen, or RemainingUnknown.
func (c *Consumer) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Err returns the current error text, empty when the last turn
// succeeded.
func (c *Consumer) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errText
}

// Streaming reports whether a turn is in flight.
func (c *Consumer) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}
