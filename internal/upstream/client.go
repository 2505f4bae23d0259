// Package upstream provides a streaming client for the Anthropic
// Messages API.
//
// DESIGN: Stream() opens one streaming completion and invokes a
// callback per text delta, in order, without buffering more than one
// event — backpressure from the caller's write path naturally throttles
// how fast the upstream body is drained. Every call carries a deadline:
// a hung upstream maps to an error instead of holding the caller open
// indefinitely.
package upstream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/admitpath/coach-gateway/internal/config"
	"github.com/admitpath/coach-gateway/internal/utils"
)

// Message is one conversation turn in upstream format. Only user and
// assistant roles flow through here; the system prompt travels in the
// dedicated request field.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one streaming completion call.
type Request struct {
	Model     string
	System    string
	MaxTokens int
	Messages  []Message
}

// Streamer is the upstream contract the gateway depends on. Tests stub
// it with a fake emitting scripted deltas.
type Streamer interface {
	Stream(ctx context.Context, req Request, onDelta func(text string) error) error
}

// Client calls the Anthropic Messages API.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout bounds one streaming call end to end.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(client *Client) {
		client.timeout = timeout
	}
}

// NewClient creates an upstream client.
func NewClient(endpoint, apiKey string, opts ...ClientOption) *Client {
	if endpoint == "" {
		endpoint = config.DefaultAnthropicEndpoint
	}

	c := &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		// No client-level timeout: it would cut streams short. The
		// per-request context deadline below bounds the call instead.
		httpClient: &http.Client{},
		timeout:    config.DefaultUpstreamTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Stream    bool      `json:"stream"`
	Messages  []Message `json:"messages"`
}

// Stream implements Streamer.
func (c *Client) Stream(ctx context.Context, req Request, onDelta func(text string) error) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := utils.MarshalNoEscape(anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Stream:    true,
		Messages:  req.Messages,
	})
	if err != nil {
		return fmt.Errorf("marshaling upstream request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating upstream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", config.AnthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("upstream call timed out after %s", c.timeout)
		}
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return upstreamStatusError(resp)
	}

	return c.relayEvents(ctx, resp.Body, onDelta)
}

// relayEvents parses the upstream SSE body and forwards text deltas.
func (c *Client) relayEvents(ctx context.Context, body io.Reader, onDelta func(text string) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, config.DefaultBufferSize), config.MaxStreamLineSize)

	sawStop := false
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		switch gjson.Get(payload, "type").String() {
		case "content_block_delta":
			delta := gjson.Get(payload, "delta")
			if delta.Get("type").String() != "text_delta" {
				continue
			}
			if err := onDelta(delta.Get("text").String()); err != nil {
				return err
			}
		case "error":
			msg := gjson.Get(payload, "error.message").String()
			if msg == "" {
				msg = "upstream error"
			}
			return fmt.Errorf("upstream error: %s", msg)
		case "message_stop":
			sawStop = true
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("upstream call timed out after %s", c.timeout)
		}
		return fmt.Errorf("reading upstream stream: %w", err)
	}
	if !sawStop {
		log.Debug().Msg("upstream stream ended without message_stop")
		return errors.New("upstream stream ended unexpectedly")
	}
	return nil
}

func upstreamStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if msg := gjson.GetBytes(data, "error.message").String(); msg != "" {
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("upstream returned %d", resp.StatusCode)
}
