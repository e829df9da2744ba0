// Package upstream talks to the external weather and music endpoints.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/zhouzirui/weatherchat/backend/internal/model/weather"
)

const (
	weatherPath = "/api/weather"
	musicPath   = "/api/music"
)

// APIError is returned for non-2xx responses. Its message is the server's
// details field, then its error field, then the HTTP status text.
type APIError struct {
	StatusCode int
	Code       string
	Details    string
}

func (e *APIError) Error() string {
	switch {
	case e.Details != "":
		return e.Details
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// Client calls the weather/music API rooted at baseURL.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client on a pooled transport with the given timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = timeout
	return NewClientWithHTTP(baseURL, hc)
}

// NewClientWithHTTP lets tests inject their own *http.Client.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

type weatherRequest struct {
	City string `json:"city"`
}

type weatherPayload struct {
	City        string  `json:"city"`
	Temp        float64 `json:"temp"`
	Condition   string  `json:"condition"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Description string  `json:"description"`
}

// Weather fetches the current weather for city.
func (c *Client) Weather(ctx context.Context, city string) (weather.Result, error) {
	var payload weatherPayload
	if err := c.post(ctx, weatherPath, weatherRequest{City: city}, &payload); err != nil {
		return weather.Result{}, err
	}

	condition, _ := weather.ParseCondition(payload.Condition)
	result := weather.Result{
		City:        payload.City,
		Temp:        payload.Temp,
		Condition:   condition,
		Humidity:    payload.Humidity,
		WindSpeed:   payload.WindSpeed,
		Description: payload.Description,
	}
	if result.City == "" {
		result.City = city
	}
	return result, nil
}

type musicPayload struct {
	Songs []weather.Song `json:"songs"`
}

// Music fetches song recommendations for the given weather.
func (c *Client) Music(ctx context.Context, req weather.MusicRequest) ([]weather.Song, error) {
	var payload musicPayload
	if err := c.post(ctx, musicPath, req, &payload); err != nil {
		return nil, err
	}
	return payload.Songs, nil
}

type errorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload errorPayload
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Code = strings.TrimSpace(payload.Error)
			apiErr.Details = strings.TrimSpace(payload.Details)
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
