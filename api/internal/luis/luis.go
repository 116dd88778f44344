// Package luis is a client for a LUIS v2.0 prediction endpoint. One HTTP
// call per query, no retries, no caching; errors go back to the caller.
package luis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	Endpoint        string
	AppID           string
	SubscriptionKey string
	httpc           *http.Client
}

func New(endpoint, appID, subscriptionKey string) *Client {
	return &Client{
		Endpoint:        strings.TrimRight(endpoint, "/"),
		AppID:           appID,
		SubscriptionKey: subscriptionKey,
		httpc:           &http.Client{Timeout: 30 * time.Second},
	}
}

// Classify sends free text to the prediction endpoint and returns the
// scored intents and extracted entities.
func (c *Client) Classify(ctx context.Context, query string) (Result, error) {
	if c.SubscriptionKey == "" {
		return Result{}, fmt.Errorf("LUIS_SUBSCRIPTION_KEY is empty")
	}
	q := url.Values{}
	q.Set("subscription-key", c.SubscriptionKey)
	q.Set("verbose", "true")
	q.Set("timezoneOffset", "0")
	q.Set("q", query)
	u := fmt.Sprintf("%s/luis/v2.0/apps/%s?%s", c.Endpoint, c.AppID, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("luis %d: %s", resp.StatusCode, string(x))
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("luis: decode response: %w", err)
	}
	return out, nil
}
