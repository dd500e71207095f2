package entropy

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	randomOrgEndpoint = "https://api.random.org/json-rpc/4/invoke"
	// random.org caps integer draws at 1e9.
	randomOrgMax = 999_999_999
	poolRefill   = 20
)

// Client draws run seeds from random.org with a local pool of integers.
// Failed requests fall back to crypto/rand.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client

	mu   sync.Mutex
	pool []int64
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: randomOrgEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Seed returns a non-zero seed built from two pooled draws. It falls back to
// CryptoSeed when the pool cannot be refilled.
func (c *Client) Seed() int64 {
	if c == nil {
		return CryptoSeed()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) < 2 {
		c.refill()
	}
	if len(c.pool) < 2 {
		return CryptoSeed()
	}

	hi, lo := c.pool[0], c.pool[1]
	c.pool = c.pool[2:]
	seed := hi*(randomOrgMax+1) + lo
	if seed == 0 {
		seed = 1
	}
	return seed
}

func (c *Client) refill() {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      poolRefill,
			"min":    0,
			"max":    randomOrgMax,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		slog.Debug("random.org marshal failed", "error", err)
		return
	}

	resp, err := c.client.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Debug("random.org fetch failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("random.org bad status", "status", resp.StatusCode)
		return
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("random.org read failed", "error", err)
		return
	}

	var result struct {
		Result struct {
			Random struct {
				Data []int64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		slog.Debug("random.org parse failed", "error", err)
		return
	}

	if result.Error != nil {
		slog.Debug("random.org API error", "error", result.Error.Message)
		return
	}

	for _, v := range result.Result.Random.Data {
		if v >= 0 && v <= randomOrgMax {
			c.pool = append(c.pool, v)
		}
	}
	slog.Debug("random.org pool refilled", "count", len(result.Result.Random.Data))
}

// SeedFromSource returns a seed from the client if available, or crypto/rand.
func SeedFromSource(c *Client) int64 {
	if c.Enabled() {
		seed := c.Seed()
		slog.Info("run seed drawn from random.org", "seed", seed)
		return seed
	}
	return CryptoSeed()
}
