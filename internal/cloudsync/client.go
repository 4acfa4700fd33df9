// Package cloudsync is the Cloud Sync Worker: two cooperative loops that
// drain the Outbox to the remote price-aggregation service (Uplink) and
// pull the community price cache down into the Store (Downlink).
package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lootwatch/lootwatchd/pkg/schema"
)

// remotePageSize is the observed default row cap on the remote's list
// endpoints; both downlink fetches paginate past it explicitly.
const remotePageSize = 1000

// Client talks to the remote price-aggregation service.
type Client struct {
	BaseURL    string
	Key        string
	HTTPClient *http.Client
}

func NewClient(baseURL, key string) *Client {
	return &Client{BaseURL: baseURL, Key: key, HTTPClient: &http.Client{Timeout: 15 * time.Second}}
}

// NewFromEnv builds a Client from the two cloud environment variables. An
// empty url or key means cloud sync stays off for this run.
func NewFromEnv(url, key string) (*Client, bool) {
	if url == "" || key == "" {
		return nil, false
	}
	return NewClient(url, key), true
}

// APIError wraps a non-2xx remote response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cloudsync: remote returned %d: %s", e.StatusCode, e.Body)
}

// isRetryable classifies a submission failure per spec: network errors,
// 5xx, and 429 are retryable; every other 4xx is not.
func isRetryable(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return true
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: buf.String()}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

type submitPriceRequest struct {
	DeviceUuid string        `json:"deviceUuid"`
	TypeId     schema.TypeId `json:"typeId"`
	Value      float64       `json:"value"`
	CapturedTs time.Time     `json:"capturedTs"`
}

// SubmitPrice uploads one observed price point.
func (c *Client) SubmitPrice(ctx context.Context, deviceUUID string, typeID schema.TypeId, value float64, capturedTs time.Time) error {
	return c.do(ctx, http.MethodPost, "/v1/prices", submitPriceRequest{
		DeviceUuid: deviceUUID, TypeId: typeID, Value: value, CapturedTs: capturedTs,
	}, nil)
}

type pricesPage struct {
	Prices []schema.CloudPrice `json:"prices"`
	Next   string              `json:"next,omitempty"`
}

// FetchSeasonPrices downloads the full aggregated price set for a season,
// paginating until the server stops returning a next cursor.
func (c *Client) FetchSeasonPrices(ctx context.Context, seasonID string) ([]schema.CloudPrice, error) {
	var all []schema.CloudPrice
	cursor := ""
	for {
		path := fmt.Sprintf("/v1/seasons/%s/prices?limit=%d", seasonID, remotePageSize)
		if cursor != "" {
			path += "&cursor=" + cursor
		}
		var page pricesPage
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return all, err
		}
		all = append(all, page.Prices...)
		if page.Next == "" || len(page.Prices) == 0 {
			break
		}
		cursor = page.Next
	}
	return all, nil
}

type historyPage struct {
	Rows []schema.PriceHistoryRow `json:"rows"`
	Next string                   `json:"next,omitempty"`
}

// FetchPriceHistory downloads hourly history buckets for one TypeId since
// a cutoff, paginating the same way as FetchSeasonPrices.
func (c *Client) FetchPriceHistory(ctx context.Context, typeID schema.TypeId, since time.Time) ([]schema.PriceHistoryRow, error) {
	var all []schema.PriceHistoryRow
	cursor := ""
	for {
		path := fmt.Sprintf("/v1/prices/%d/history?since=%s&limit=%d", typeID, since.UTC().Format(time.RFC3339), remotePageSize)
		if cursor != "" {
			path += "&cursor=" + cursor
		}
		var page historyPage
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return all, err
		}
		all = append(all, page.Rows...)
		if page.Next == "" || len(page.Rows) == 0 {
			break
		}
		cursor = page.Next
	}
	return all, nil
}
