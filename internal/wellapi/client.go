package wellapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultBaseURL is the personal Well instance this bot posts to.
	DefaultBaseURL = "https://vulkan.sumeetsaini.com/well"

	defaultClientTimeout = 20 * time.Second

	// responses are short JSON payloads; cap the read so a misbehaving
	// server can't balloon a reply message
	maxResponseBody = 64 * 1024
)

type Client struct {
	baseURL string
	apiKey  string

	httpCli *http.Client
}

type Config struct {
	BaseURL     string
	APIKey      string
	HTTPTimeout time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = defaultClientTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpCli: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}
}

// PostEntry submits one entry to the Well API. A PostResult is returned for
// any completed exchange, success or not; an error means the exchange itself
// failed (network, timeout) and no status is known.
func (c *Client) PostEntry(ctx context.Context, entryType, body string) (PostResult, error) {
	payload, err := json.Marshal(entryReq{Type: entryType, Body: body})
	if err != nil {
		return PostResult{}, errors.Wrap(err, "encode entry")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return PostResult{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return PostResult{}, errors.Wrap(err, "post entry")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return PostResult{}, errors.Wrap(err, "read response")
	}

	return PostResult{
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
	}, nil
}
