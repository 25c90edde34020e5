package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reviewpulse/go-review-backend/internal/domain"
)

// Config holds the scraper gateway client settings.
type Config struct {
	// BaseURL is the gateway root, e.g. "http://localhost:3100".
	BaseURL string
	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration
}

// DefaultConfig returns client settings suitable for a local gateway.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:3100",
		Timeout: 30 * time.Second,
	}
}

// Client implements ReviewSource over a JSON HTTP gateway in front of the
// app store. The transport pools connections and honors proxy settings from
// the environment; Play Store access typically runs behind a proxy.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ReviewSource = (*Client)(nil)

// NewClient builds a Client with a pooled transport.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Transport: transport, Timeout: cfg.Timeout},
	}
}

// appDetailWire mirrors the gateway's app detail payload.
type appDetailWire struct {
	AppID    string  `json:"appId"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
	Installs string  `json:"installs"`
	Genre    string  `json:"genre"`
}

// reviewWire mirrors the gateway's review payload. Date strings arrive in
// RFC 3339; a missing or malformed date yields a zero time.
type reviewWire struct {
	ID       string  `json:"id"`
	UserName string  `json:"userName"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Date     string  `json:"date"`
}

// FetchAppDetail implements ReviewSource.
func (c *Client) FetchAppDetail(ctx context.Context, appID, country, lang string) (*domain.AppDetail, error) {
	q := url.Values{}
	q.Set("country", strings.ToLower(country))
	q.Set("lang", strings.ToLower(lang))
	var wire appDetailWire
	if err := c.getJSON(ctx, "/apps/"+url.PathEscape(appID), q, &wire); err != nil {
		return nil, err
	}
	return &domain.AppDetail{
		AppID:    wire.AppID,
		Title:    wire.Title,
		Score:    wire.Score,
		Installs: wire.Installs,
		Genre:    wire.Genre,
	}, nil
}

// SearchApps implements ReviewSource.
func (c *Client) SearchApps(ctx context.Context, term, country, lang string, limit int) ([]domain.AppSummary, error) {
	q := url.Values{}
	q.Set("q", term)
	q.Set("num", strconv.Itoa(limit))
	q.Set("country", strings.ToLower(country))
	q.Set("lang", strings.ToLower(lang))
	var wire []domain.AppSummary
	if err := c.getJSON(ctx, "/apps", q, &wire); err != nil {
		return nil, err
	}
	return wire, nil
}

// FetchReviews implements ReviewSource.
func (c *Client) FetchReviews(ctx context.Context, appID, country, lang string, sort SortOrder, limit int) ([]domain.Review, error) {
	q := url.Values{}
	q.Set("sort", strconv.Itoa(int(sort)))
	q.Set("num", strconv.Itoa(limit))
	q.Set("country", strings.ToLower(country))
	q.Set("lang", strings.ToLower(strings.TrimSpace(lang)))
	var wire []reviewWire
	if err := c.getJSON(ctx, "/apps/"+url.PathEscape(appID)+"/reviews", q, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(wire))
	for _, w := range wire {
		ts, err := time.Parse(time.RFC3339, w.Date)
		if err != nil {
			ts = time.Time{}
		}
		out = append(out, domain.Review{
			ID:       w.ID,
			AppID:    appID,
			UserName: w.UserName,
			Text:     w.Text,
			Score:    int(w.Score),
			Time:     ts,
		})
	}
	return out, nil
}

// getJSON performs a GET against the gateway and decodes the response body.
// Non-2xx statuses become errors carrying the status and a body excerpt so
// upstream transient classification still sees the transport text.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("get %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
