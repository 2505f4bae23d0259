// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined here.
// This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// QUOTA
// =============================================================================

// DefaultDailyRequestLimit is the per-user daily cap on AI tool invocations.
const DefaultDailyRequestLimit = 50

// =============================================================================
// TOKEN ESTIMATION
// =============================================================================

// TokenEstimateRatio is the approximate number of characters per token.
// Used for rough token counting when the tokenizer is unavailable.
const TokenEstimateRatio = 4

// =============================================================================
// HTTP AND NETWORKING
// =============================================================================

// DefaultServerPort is the listen port for the gateway.
const DefaultServerPort = 8087

// DefaultServerReadTimeout for the HTTP server.
const DefaultServerReadTimeout = 30 * time.Second

// DefaultServerWriteTimeout for the HTTP server (safe for streaming).
const DefaultServerWriteTimeout = 10 * time.Minute

// DefaultUpstreamTimeout bounds a single upstream model call. A hung
// upstream stream maps to the in-band error event instead of holding
// the response open indefinitely.
const DefaultUpstreamTimeout = 5 * time.Minute

// DefaultBufferSize is the standard I/O buffer size.
const DefaultBufferSize = 4096

// MaxStreamLineSize caps a single SSE line when scanning event streams (1MB).
const MaxStreamLineSize = 1 << 20

// MaxRequestBodySize is the maximum allowed request body (1MB). Conversations
// are bounded by a few thousand tokens, so anything larger is malformed.
const MaxRequestBodySize = 1 << 20

// =============================================================================
// UPSTREAM MODEL API
// =============================================================================

// DefaultAnthropicEndpoint is the Anthropic Messages API URL.
const DefaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"

// AnthropicVersion is the API version header value sent upstream.
const AnthropicVersion = "2023-06-01"

// =============================================================================
// MONITORING
// =============================================================================

// DefaultUsageDBPath is the sqlite usage-log location.
const DefaultUsageDBPath = "data/usage.db"

// DefaultRecentUsageLimit is how many usage records /usage/recent returns.
const DefaultRecentUsageLimit = 100

// MaxLoggedContentLen limits message content in debug logs to prevent bloat.
const MaxLoggedContentLen = 200
