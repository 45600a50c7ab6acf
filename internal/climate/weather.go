package climate

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const openWeatherEndpoint = "https://api.openweathermap.org/data/2.5/weather"

// WeatherClient fetches a real-world temperature from OpenWeatherMap to
// anchor the model's baseline.
type WeatherClient struct {
	apiKey   string
	location string
	endpoint string
	client   *http.Client

	mu          sync.Mutex
	cached      *Conditions
	cachedAt    time.Time
	cacheTTL    time.Duration
	lastFailAt  time.Time
	failBackoff time.Duration
}

// NewWeatherClient creates a weather API client. Returns nil if apiKey is empty.
func NewWeatherClient(apiKey, location string) *WeatherClient {
	if apiKey == "" {
		return nil
	}
	if location == "" {
		location = "Reykjavik,IS"
	}
	return &WeatherClient{
		apiKey:   apiKey,
		location: location,
		endpoint: openWeatherEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		cacheTTL: 10 * time.Minute,
	}
}

// Conditions holds parsed weather data from the API.
type Conditions struct {
	Temp        float64 `json:"temp"` // Celsius
	Description string  `json:"description"`
}

// Fetch retrieves current conditions, using the cache if fresh.
func (c *WeatherClient) Fetch() (*Conditions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.cachedAt) < c.cacheTTL {
		return c.cached, nil
	}

	// Backoff on repeated failures (up to 10 minutes).
	if c.failBackoff > 0 && time.Since(c.lastFailAt) < c.failBackoff {
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, fmt.Errorf("weather API backoff (%s remaining)", c.failBackoff-time.Since(c.lastFailAt))
	}

	conditions, err := c.fetchFromAPI()
	if err != nil {
		c.lastFailAt = time.Now()
		if c.failBackoff == 0 {
			c.failBackoff = time.Minute
		} else if c.failBackoff < 10*time.Minute {
			c.failBackoff *= 2
		}
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, err
	}

	c.cached = conditions
	c.cachedAt = time.Now()
	c.failBackoff = 0
	return conditions, nil
}

func (c *WeatherClient) fetchFromAPI() (*Conditions, error) {
	apiURL := fmt.Sprintf("%s?q=%s&appid=%s&units=metric",
		c.endpoint, url.QueryEscape(c.location), url.QueryEscape(c.apiKey))

	resp, err := c.client.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("weather API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API error %d: %s", resp.StatusCode, string(body))
	}

	var owm struct {
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := json.Unmarshal(body, &owm); err != nil {
		return nil, fmt.Errorf("parse weather: %w", err)
	}

	conditions := &Conditions{Temp: owm.Main.Temp}
	if len(owm.Weather) > 0 {
		conditions.Description = owm.Weather[0].Description
	}
	slog.Debug("weather fetched", "temp", conditions.Temp, "desc", conditions.Description)
	return conditions, nil
}

// Baseline returns the fetched temperature, or fallback when the client is
// nil or the API is unavailable.
func (c *WeatherClient) Baseline(fallback float64) float64 {
	if c == nil {
		return fallback
	}
	cond, err := c.Fetch()
	if err != nil {
		slog.Warn("weather baseline unavailable", "error", err)
		return fallback
	}
	return cond.Temp
}
