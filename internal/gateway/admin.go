// Package gateway - admin.go serves health and usage endpoints.
//
// GET /healthz is unauthenticated. GET /usage/recent and GET /ws/usage
// require an admin session; coaches and students get 403.
package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/admitpath/coach-gateway/internal/auth"
	"github.com/admitpath/coach-gateway/internal/config"
)

// handleHealth returns gateway health status.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"uptime":      time.Since(g.startTime).Truncate(time.Second).String(),
		"daily_limit": g.cfg.Quota.DailyLimit,
	}
	if g.store != nil {
		if _, err := g.store.Recent(1); err != nil {
			health["status"] = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if health["status"] != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(health)
}

// requireAdmin resolves the session and enforces the admin role.
func (g *Gateway) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	session, err := g.resolver.Resolve(r)
	if err != nil {
		g.writeError(w, "authentication required", http.StatusUnauthorized)
		return false
	}
	if session.Role != auth.RoleAdmin {
		g.writeError(w, "admin access required", http.StatusForbidden)
		return false
	}
	return true
}

// handleRecentUsage returns the most recent usage events as JSON.
func (g *Gateway) handleRecentUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !g.requireAdmin(w, r) {
		return
	}
	if g.store == nil {
		g.writeError(w, "usage store disabled", http.StatusServiceUnavailable)
		return
	}

	limit := config.DefaultRecentUsageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			g.writeError(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := g.store.Recent(limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to query usage events")
		g.writeError(w, "failed to query usage events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"events": events})
}

// handleUsageFeed streams usage events to an admin dashboard over a
// WebSocket, one JSON object per message.
func (g *Gateway) handleUsageFeed(w http.ResponseWriter, r *http.Request) {
	if !g.requireAdmin(w, r) {
		return
	}
	if g.feed == nil {
		g.writeError(w, "usage feed disabled", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket accept failed")
		return
	}
	defer func() { _ = conn.CloseNow() }()

	ch, cancel := g.feed.Subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}
