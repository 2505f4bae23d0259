// Package gateway - handler.go implements POST /ai.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/admitpath/coach-gateway/internal/auth"
	"github.com/admitpath/coach-gateway/internal/config"
	"github.com/admitpath/coach-gateway/internal/monitoring"
	"github.com/admitpath/coach-gateway/internal/protocol"
	"github.com/admitpath/coach-gateway/internal/tools"
	"github.com/admitpath/coach-gateway/internal/upstream"
	"github.com/admitpath/coach-gateway/internal/utils"
)

// writeError writes a JSON error response.
func (g *Gateway) writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeQuotaExhausted is the 429 shape. Remaining is always zero here
// but spelled out so clients can render the counter without special
// casing.
func (g *Gateway) writeQuotaExhausted(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":     "daily request limit reached, resets at midnight UTC",
		"remaining": 0,
	})
}

// handleAITool validates, authorizes, and quota-checks the request,
// then relays the upstream completion as an SSE event stream. All
// rejections happen before the first byte of the stream; after that
// failures travel as a terminal error frame.
func (g *Gateway) handleAITool(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()

	if r.Method != http.MethodPost {
		g.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		g.writeError(w, "failed to read request", http.StatusBadRequest)
		return
	}

	var req protocol.ToolRequest
	if err := json.Unmarshal(body, &req); err != nil {
		g.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ToolType == "" {
		g.writeError(w, "tool_type is required", http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		g.writeError(w, "messages must not be empty", http.StatusBadRequest)
		return
	}

	tool, err := g.registry.Resolve(req.ToolType)
	if err != nil {
		if errors.Is(err, tools.ErrUnknownTool) {
			g.writeError(w, fmt.Sprintf("unknown tool type: %s", req.ToolType), http.StatusBadRequest)
			return
		}
		g.writeError(w, "internal error", http.StatusInternalServerError)
		return
	}

	session, err := g.resolver.Resolve(r)
	if err != nil {
		g.writeError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if session.Role != auth.RoleStudent {
		g.writeError(w, "AI tools are available to student accounts only", http.StatusForbidden)
		return
	}

	result := g.quota.Check(session.UserID)
	if !result.Allowed {
		log.Info().
			Str("request_id", requestID).
			Str("user_id", session.UserID).
			Str("tool", tool.ID).
			Msg("daily quota exhausted")
		g.recordUsage(&monitoring.UsageEvent{
			RequestID:  requestID,
			Timestamp:  start.UTC(),
			UserID:     session.UserID,
			ToolType:   tool.ID,
			StatusCode: http.StatusTooManyRequests,
			Success:    false,
			Error:      "quota exhausted",
			DurationMs: time.Since(start).Milliseconds(),
		})
		g.writeQuotaExhausted(w)
		return
	}
	g.quota.Increment(session.UserID)

	log.Debug().
		Str("request_id", requestID).
		RawJSON("body", utils.TruncateMessageContents(body, config.MaxLoggedContentLen)).
		Msg("tool request accepted")

	g.streamTool(w, r, requestID, session, tool, req.Messages, result.Remaining, start)
}

// streamTool runs the upstream completion and relays it as frames.
func (g *Gateway) streamTool(w http.ResponseWriter, r *http.Request, requestID string, session *auth.Session, tool tools.Config, messages []protocol.ChatMessage, remaining int, start time.Time) {
	ew, ok := newEventWriter(w)
	if !ok {
		g.writeError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// The remaining count in meta already reflects this request.
	if err := ew.send(protocol.MetaEvent(remaining)); err != nil {
		log.Debug().Str("request_id", requestID).Err(err).Msg("client gone before meta frame")
		return
	}

	upstreamMsgs := toUpstreamMessages(messages)
	var streamed int
	streamErr := g.upstream.Stream(r.Context(), upstream.Request{
		Model:     tool.Model,
		System:    tool.SystemPrompt,
		MaxTokens: tool.MaxTokens,
		Messages:  upstreamMsgs,
	}, func(text string) error {
		streamed += len(text)
		return ew.send(protocol.TextEvent(text))
	})

	ev := &monitoring.UsageEvent{
		RequestID:      requestID,
		Timestamp:      start.UTC(),
		UserID:         session.UserID,
		ToolType:       tool.ID,
		Model:          tool.Model,
		StatusCode:     http.StatusOK,
		InputTokensEst: g.estimateInput(tool.SystemPrompt, upstreamMsgs),
		QuotaRemaining: remaining,
		DurationMs:     time.Since(start).Milliseconds(),
	}

	if streamErr != nil {
		ev.Success = false
		ev.Error = streamErr.Error()
		log.Warn().
			Str("request_id", requestID).
			Str("user_id", session.UserID).
			Str("tool", tool.ID).
			Err(streamErr).
			Msg("stream failed")
		// Best effort: if the failure was the client going away this
		// write fails too, which is fine.
		_ = ew.send(protocol.ErrorEvent("the response could not be completed"))
	} else {
		ev.Success = true
		_ = ew.send(protocol.DoneEvent())
	}
	ev.OutputTokensEst = g.estimateOutputFromChars(streamed)
	ev.DurationMs = time.Since(start).Milliseconds()
	g.recordUsage(ev)

	log.Info().
		Str("request_id", requestID).
		Str("user_id", session.UserID).
		Str("tool", tool.ID).
		Int("remaining", remaining).
		Bool("success", streamErr == nil).
		Dur("duration", time.Since(start)).
		Msg("tool request finished")
}

// toUpstreamMessages keeps only user and assistant turns. Anything
// else in the transcript (client-side notices, future roles) must not
// reach the model.
func toUpstreamMessages(messages []protocol.ChatMessage) []upstream.Message {
	out := make([]upstream.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role != protocol.RoleUser && m.Role != protocol.RoleAssistant {
			continue
		}
		if m.Content == "" {
			continue
		}
		out = append(out, upstream.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func (g *Gateway) estimateInput(system string, messages []upstream.Message) int {
	if g.estimator == nil {
		return 0
	}
	total := g.estimator.Estimate(system)
	for _, m := range messages {
		total += g.estimator.Estimate(m.Content)
	}
	return total
}

// estimateOutputFromChars avoids retokenizing the whole response; the
// chars/4 heuristic is close enough for a usage dashboard.
func (g *Gateway) estimateOutputFromChars(chars int) int {
	return (chars + config.TokenEstimateRatio - 1) / config.TokenEstimateRatio
}

// recordUsage persists and publishes one usage event. Failures are
// logged, never surfaced to the caller: monitoring must not break the
// request path.
func (g *Gateway) recordUsage(ev *monitoring.UsageEvent) {
	if g.store != nil {
		if err := g.store.RecordRequest(ev); err != nil {
			log.Error().Err(err).Str("request_id", ev.RequestID).Msg("failed to record usage event")
		}
	}
	if g.feed != nil {
		g.feed.Publish(ev)
	}
}
