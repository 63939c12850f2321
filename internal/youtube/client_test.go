package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bluele/gcache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/config"
)

type upstream struct {
	server *httptest.Server
	calls  atomic.Int32
	status int
	body   string
	query  atomic.Value
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{status: status, body: body}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		u.query.Store(r.URL.Query())
		assert.Equal(t, "/videos", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(u.status)
		_, _ = w.Write([]byte(u.body))
	}))
	t.Cleanup(u.server.Close)
	return u
}

func newTestClient(baseURL, key string, ttl time.Duration, opts ...Option) *Client {
	return NewClient(config.YouTube{
		APIKey:    key,
		BaseURL:   baseURL,
		CacheTTL:  ttl,
		CacheSize: 8,
	}, zerolog.Nop(), nil, opts...)
}

func marshal(t *testing.T, d LiveDetails) map[string]any {
	t.Helper()
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestLiveDetails_Live(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"items":[{
		"liveStreamingDetails":{"activeLiveChatId":"chat-1","actualStartTime":"2024-05-01T10:00:00Z","scheduledStartTime":"2024-05-01T09:55:00Z"},
		"status":{"privacyStatus":"unlisted"}}]}`)
	client := newTestClient(up.server.URL, "key-123", 0)

	details := client.LiveDetails(context.Background(), "vid-1")

	assert.True(t, details.IsLive)
	require.NotNil(t, details.ActiveLiveChatID)
	assert.Equal(t, "chat-1", *details.ActiveLiveChatID)
	assert.Equal(t, "unlisted", details.PrivacyStatus)
	assert.Nil(t, details.ActualEndTime)

	q := up.query.Load().(url.Values)
	assert.Equal(t, []string{"liveStreamingDetails,status"}, q["part"])
	assert.Equal(t, []string{"vid-1"}, q["id"])
	assert.Equal(t, []string{"key-123"}, q["key"])

	out := marshal(t, details)
	assert.Equal(t, true, out["isLive"])
	assert.Equal(t, "chat-1", out["activeLiveChatId"])
	assert.Equal(t, "2024-05-01T10:00:00Z", out["actualStartTime"])
	assert.Contains(t, out, "actualEndTime")
	assert.Nil(t, out["actualEndTime"])
	assert.NotContains(t, out, "reason")
}

func TestLiveDetails_Ended(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"items":[{"liveStreamingDetails":{"activeLiveChatId":"chat-1","actualEndTime":"2024-05-01T12:00:00Z"}}]}`)
	client := newTestClient(up.server.URL, "key", 0)

	details := client.LiveDetails(context.Background(), "vid")

	assert.False(t, details.IsLive)
	assert.Equal(t, "public", details.PrivacyStatus)
}

func TestLiveDetails_NoItems(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"items":[]}`)
	client := newTestClient(up.server.URL, "key", 0)

	out := marshal(t, client.LiveDetails(context.Background(), "missing"))

	assert.Equal(t, map[string]any{
		"isLive":             false,
		"activeLiveChatId":   nil,
		"privacyStatus":      "public",
		"scheduledStartTime": nil,
		"actualStartTime":    nil,
		"actualEndTime":      nil,
	}, out)
}

func TestLiveDetails_MissingAPIKey(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	client := newTestClient(up.server.URL, "", 0)

	out := marshal(t, client.LiveDetails(context.Background(), "vid"))

	assert.Equal(t, map[string]any{"isLive": false, "reason": "missing_api_key"}, out)
	assert.Zero(t, up.calls.Load(), "no upstream call without a key")
}

func TestLiveDetails_UpstreamError(t *testing.T) {
	up := newUpstream(t, http.StatusForbidden, `{"error":{"code":403}}`)
	client := newTestClient(up.server.URL, "key", time.Minute)

	out := marshal(t, client.LiveDetails(context.Background(), "vid"))
	assert.Equal(t, map[string]any{"isLive": false, "reason": "http_error", "status": float64(403)}, out)

	// Failures are not cached.
	client.LiveDetails(context.Background(), "vid")
	assert.Equal(t, int32(2), up.calls.Load())
}

func TestLiveDetails_TransportError(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	addr := up.server.URL
	up.server.Close()
	client := newTestClient(addr, "key", 0)

	out := marshal(t, client.LiveDetails(context.Background(), "vid"))

	assert.Equal(t, map[string]any{"isLive": false, "reason": "http_error"}, out)
}

func TestLiveDetails_Cache(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"items":[{"liveStreamingDetails":{"activeLiveChatId":"c"}}]}`)
	clock := gcache.NewFakeClock()
	client := newTestClient(up.server.URL, "key", 15*time.Second, WithClock(clock))

	first := client.LiveDetails(context.Background(), "vid")
	second := client.LiveDetails(context.Background(), "vid")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), up.calls.Load())

	client.LiveDetails(context.Background(), "other")
	assert.Equal(t, int32(2), up.calls.Load())

	clock.Advance(16 * time.Second)
	client.LiveDetails(context.Background(), "vid")
	assert.Equal(t, int32(3), up.calls.Load())
}

func TestLiveDetails_CacheDisabled(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"items":[]}`)
	client := newTestClient(up.server.URL, "key", 0)

	client.LiveDetails(context.Background(), "vid")
	client.LiveDetails(context.Background(), "vid")

	assert.Equal(t, int32(2), up.calls.Load())
}
