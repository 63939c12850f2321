// Package youtube looks up the live-streaming state of YouTube videos
// through the Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/rs/zerolog"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/config"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/metrics"
)

// Reasons reported when no live state could be determined.
const (
	ReasonMissingAPIKey = "missing_api_key"
	ReasonHTTPError     = "http_error"
)

const (
	defaultPrivacyStatus = "public"
	defaultTimeout       = 10 * time.Second
	maxResponseBytes     = 1 << 20
)

// LiveDetails is the live-streaming summary of one video.
// When Reason is set the lookup failed and only IsLive, Reason and Status
// are meaningful.
type LiveDetails struct {
	IsLive             bool
	ActiveLiveChatID   *string
	PrivacyStatus      string
	ScheduledStartTime *string
	ActualStartTime    *string
	ActualEndTime      *string

	Reason string
	Status int // upstream status for ReasonHTTPError; 0 on transport failure
}

// MarshalJSON renders the failure shape or the full shape, never both.
func (d LiveDetails) MarshalJSON() ([]byte, error) {
	if d.Reason != "" {
		failure := struct {
			IsLive bool   `json:"isLive"`
			Reason string `json:"reason"`
			Status int    `json:"status,omitempty"`
		}{false, d.Reason, d.Status}
		return json.Marshal(failure)
	}

	return json.Marshal(struct {
		IsLive             bool    `json:"isLive"`
		ActiveLiveChatID   *string `json:"activeLiveChatId"`
		PrivacyStatus      string  `json:"privacyStatus"`
		ScheduledStartTime *string `json:"scheduledStartTime"`
		ActualStartTime    *string `json:"actualStartTime"`
		ActualEndTime      *string `json:"actualEndTime"`
	}{d.IsLive, d.ActiveLiveChatID, d.PrivacyStatus, d.ScheduledStartTime, d.ActualStartTime, d.ActualEndTime})
}

type videoListResponse struct {
	Items []struct {
		LiveStreamingDetails *struct {
			ActiveLiveChatID   string `json:"activeLiveChatId"`
			ScheduledStartTime string `json:"scheduledStartTime"`
			ActualStartTime    string `json:"actualStartTime"`
			ActualEndTime      string `json:"actualEndTime"`
		} `json:"liveStreamingDetails"`
		Status *struct {
			PrivacyStatus string `json:"privacyStatus"`
		} `json:"status"`
	} `json:"items"`
}

// Client queries the videos endpoint and caches successful answers.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	ttl        time.Duration
	cacheSize  int
	clock      gcache.Clock
	cache      gcache.Cache
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock sets the clock used for cache expiry.
func WithClock(clock gcache.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

func NewClient(cfg config.YouTube, log zerolog.Logger, m *metrics.Metrics, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = strings.TrimRight(config.DefaultYouTubeAPIBaseURL, "/")
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		ttl:        cfg.CacheTTL,
		cacheSize:  cfg.CacheSize,
		clock:      gcache.NewRealClock(),
		log:        log.With().Str("component", "youtube").Logger(),
		metrics:    m,
	}
	if c.cacheSize <= 0 {
		c.cacheSize = 256
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.ttl > 0 {
		c.cache = gcache.New(c.cacheSize).LRU().Expiration(c.ttl).Clock(c.clock).Build()
	}
	return c
}

// LiveDetails reports whether videoID is currently streaming live.
// Failures are folded into the result's Reason; it never returns an error.
func (c *Client) LiveDetails(ctx context.Context, videoID string) LiveDetails {
	if c.apiKey == "" {
		c.metrics.YouTubeLookup(ReasonMissingAPIKey)
		return LiveDetails{Reason: ReasonMissingAPIKey}
	}

	if c.cache != nil {
		if cached, err := c.cache.GetIFPresent(videoID); err == nil {
			c.metrics.YouTubeLookup("cached")
			return cached.(LiveDetails)
		}
	}

	details, err := c.fetch(ctx, videoID)
	if err != nil {
		c.log.Warn().Err(err).Str("video_id", videoID).Msg("YouTube lookup failed")
		c.metrics.YouTubeLookup(ReasonHTTPError)
		return details
	}

	if c.cache != nil {
		_ = c.cache.Set(videoID, details)
	}
	if details.IsLive {
		c.metrics.YouTubeLookup("live")
	} else {
		c.metrics.YouTubeLookup("not_live")
	}
	return details
}

func (c *Client) fetch(ctx context.Context, videoID string) (LiveDetails, error) {
	failed := LiveDetails{Reason: ReasonHTTPError}

	q := url.Values{}
	q.Set("part", "liveStreamingDetails,status")
	q.Set("id", videoID)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos?"+q.Encode(), nil)
	if err != nil {
		return failed, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failed, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		failed.Status = resp.StatusCode
		return failed, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	// An undecodable body is treated like an empty item list.
	var body videoListResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		c.log.Debug().Err(err).Str("video_id", videoID).Msg("Undecodable videos response")
	}

	return summarise(body), nil
}

// summarise maps the first item onto LiveDetails. A missing item or field
// yields nulls and a public privacy status.
func summarise(body videoListResponse) LiveDetails {
	details := LiveDetails{PrivacyStatus: defaultPrivacyStatus}
	if len(body.Items) == 0 {
		return details
	}

	item := body.Items[0]
	if item.Status != nil && item.Status.PrivacyStatus != "" {
		details.PrivacyStatus = item.Status.PrivacyStatus
	}
	if live := item.LiveStreamingDetails; live != nil {
		details.ActiveLiveChatID = optional(live.ActiveLiveChatID)
		details.ScheduledStartTime = optional(live.ScheduledStartTime)
		details.ActualStartTime = optional(live.ActualStartTime)
		details.ActualEndTime = optional(live.ActualEndTime)
	}
	details.IsLive = details.ActiveLiveChatID != nil && details.ActualEndTime == nil

	return details
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
