// Package webclient is a Go client for the weather-finder JSON API.
package webclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/weather-finder/internal/models"
	"github.com/kjstillabower/weather-finder/internal/observability"
)

// DefaultErrorMessage is used when a failed response carries no error field.
const DefaultErrorMessage = "Failed to fetch weather data"

const maxBodyBytes = 1 << 20

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client calls /api/weather and /api/history on baseURL.
type Client struct {
	baseURL string
	client  *http.Client
}

// New returns a Client. A zero timeout means none.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Weather fetches and logs current conditions for city.
func (c *Client) Weather(ctx context.Context, city string) (models.Observation, error) {
	var resp models.WeatherResponse
	if err := c.get(ctx, "/api/weather", city, &resp); err != nil {
		return models.Observation{}, err
	}
	return resp.Weather, nil
}

// History returns the recent observations for city, newest first.
func (c *Client) History(ctx context.Context, city string) ([]models.Observation, error) {
	var resp models.HistoryResponse
	if err := c.get(ctx, "/api/history", city, &resp); err != nil {
		return nil, err
	}
	if resp.History == nil {
		resp.History = []models.Observation{}
	}
	return resp.History, nil
}

func (c *Client) get(ctx context.Context, path, city string, out interface{}) error {
	target := c.baseURL + path + "?city=" + url.QueryEscape(city)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func apiError(statusCode int, body []byte) *APIError {
	msg := DefaultErrorMessage
	var e models.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && strings.TrimSpace(e.Error) != "" {
		msg = e.Error
	}
	return &APIError{StatusCode: statusCode, Message: msg}
}
