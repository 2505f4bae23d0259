package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAnthropic serves a scripted SSE stream in Messages API format.
func fakeAnthropic(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func sseBody(deltas []string, stop bool) string {
	body := `event: message_start` + "\n" +
		`data: {"type":"message_start","message":{"usage":{"input_tokens":10}}}` + "\n\n"
	for _, d := range deltas {
		payload, _ := json.Marshal(d)
		body += `event: content_block_delta` + "\n" +
			fmt.Sprintf(`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%s}}`, payload) + "\n\n"
	}
	if stop {
		body += `event: message_stop` + "\n" + `data: {"type":"message_stop"}` + "\n\n"
	}
	return body
}

func TestClient_StreamDeltasInOrder(t *testing.T) {
	var gotReq map[string]any
	srv := fakeAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(sseBody([]string{"Hel", "lo ", "there"}, true)))
	})

	client := NewClient(srv.URL, "test-key")
	var deltas []string
	err := client.Stream(context.Background(), Request{
		Model:     "claude-sonnet-4-5",
		System:    "be helpful",
		MaxTokens: 100,
		Messages:  []Message{{Role: "user", Content: "hi"}},
	}, func(text string) error {
		deltas = append(deltas, text)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo ", "there"}, deltas)
	assert.Equal(t, true, gotReq["stream"])
	assert.Equal(t, "be helpful", gotReq["system"])
	assert.Equal(t, float64(100), gotReq["max_tokens"])
}

func TestClient_UpstreamErrorEvent(t *testing.T) {
	srv := fakeAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		body := sseBody([]string{"partial"}, false) +
			`event: error` + "\n" +
			`data: {"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}` + "\n\n"
		_, _ = w.Write([]byte(body))
	})

	client := NewClient(srv.URL, "test-key")
	var deltas []string
	err := client.Stream(context.Background(), Request{Model: "m", MaxTokens: 10}, func(text string) error {
		deltas = append(deltas, text)
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Overloaded")
	assert.Equal(t, []string{"partial"}, deltas, "deltas before the error still surface")
}

func TestClient_UpstreamHTTPError(t *testing.T) {
	srv := fakeAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})

	client := NewClient(srv.URL, "bad-key")
	err := client.Stream(context.Background(), Request{Model: "m", MaxTokens: 10}, func(string) error { return nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid x-api-key")
	assert.Contains(t, err.Error(), "401")
}

func TestClient_TruncatedStreamIsError(t *testing.T) {
	srv := fakeAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(sseBody([]string{"cut off"}, false)))
	})

	client := NewClient(srv.URL, "test-key")
	err := client.Stream(context.Background(), Request{Model: "m", MaxTokens: 10}, func(string) error { return nil })

	assert.Error(t, err)
}

func TestClient_CallbackErrorAborts(t *testing.T) {
	srv := fakeAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(sseBody([]string{"a", "b", "c"}, true)))
	})

	client := NewClient(srv.URL, "test-key")
	calls := 0
	err := client.Stream(context.Background(), Request{Model: "m", MaxTokens: 10}, func(string) error {
		calls++
		return fmt.Errorf("client went away")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := fakeAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-release
	})
	defer close(release)

	client := NewClient(srv.URL, "test-key", WithTimeout(50*time.Millisecond))
	start := time.Now()
	err := client.Stream(context.Background(), Request{Model: "m", MaxTokens: 10}, func(string) error { return nil })

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
