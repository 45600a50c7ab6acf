// Package entropy supplies ambient randomness for unseeded generation runs.
// It prefers a pool of true random numbers from random.org when an API key
// is configured and falls back to crypto/rand otherwise.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	mrand "math/rand/v2"
	"net/http"
	"sync"
	"time"
)

// Client provides true random numbers from random.org with a local pool.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client

	mu   sync.Mutex
	pool []uint64
}

const randomOrgEndpoint = "https://api.random.org/json-rpc/4/invoke"

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

// Uint64 returns a random 64-bit value from the pool, refilling from
// random.org when low. Falls back to crypto/rand on API failure.
func (c *Client) Uint64() uint64 {
	if c == nil {
		return cryptoUint64()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) < 4 {
		c.refill()
	}
	if len(c.pool) == 0 {
		return cryptoUint64()
	}

	val := c.pool[0]
	c.pool = c.pool[1:]
	return val
}

// refill requests 32-bit integers in pairs and packs them into 64-bit values.
func (c *Client) refill() {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey":      c.apiKey,
			"n":           32,
			"min":         0,
			"max":         1<<31 - 1,
			"replacement": true,
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

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("random.org read failed", "error", err)
		return
	}

	var result struct {
		Result struct {
			Random struct {
				Data []uint32 `json:"data"`
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

	data := result.Result.Random.Data
	for i := 0; i+1 < len(data); i += 2 {
		c.pool = append(c.pool, uint64(data[i])<<32|uint64(data[i+1]))
	}
	slog.Debug("random.org pool refilled", "count", len(data)/2)
}

// cryptoUint64 reads 8 bytes from crypto/rand.
func cryptoUint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// NewRand returns a PCG generator seeded from c when enabled, otherwise
// from crypto/rand. Streams built on it are not reproducible.
func NewRand(c *Client) *mrand.Rand {
	if c.Enabled() {
		return mrand.New(mrand.NewPCG(c.Uint64(), c.Uint64()))
	}
	return mrand.New(mrand.NewPCG(cryptoUint64(), cryptoUint64()))
}
