// Package monitoring - types.go defines shared usage types.
//
// DESIGN: UsageEvent is the single record shape flowing through the
// package: the gateway emits one per /ai request, the sqlite store
// persists it, and the live feed fans it out to connected admin
// dashboards. Defined here once so store and feed stay decoupled.
package monitoring

import "time"

// UsageEvent captures one tool request through the gateway.
type UsageEvent struct {
	RequestID       string    `json:"request_id"`
	Timestamp       time.Time `json:"timestamp"`
	UserID          string    `json:"user_id"`
	ToolType        string    `json:"tool_type"`
	Model           string    `json:"model,omitempty"`
	StatusCode      int       `json:"status_code"`
	InputTokensEst  int       `json:"input_tokens_est"`
	OutputTokensEst int       `json:"output_tokens_est"`
	QuotaRemaining  int       `json:"quota_remaining"`
	Success         bool      `json:"success"`
	Error           string    `json:"error,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
}
