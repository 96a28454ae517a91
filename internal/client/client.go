package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/weather-finder/internal/models"
	"github.com/kjstillabower/weather-finder/internal/observability"
)

// WeatherClient fetches current conditions for a city and normalizes them for storage.
type WeatherClient interface {
	GetCurrentWeather(ctx context.Context, city string) (models.NewObservation, error)
}

var (
	// ErrAPIKeyMissing is returned before any request when no key is configured.
	ErrAPIKeyMissing    = errors.New("OPENWEATHER_API_KEY not configured")
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
)

// DefaultUpstreamMessage is used when a failed upstream response carries no message.
const DefaultUpstreamMessage = "Failed to fetch weather"

const maxBodyBytes = 1 << 20

// UpstreamError is a non-2xx answer from the provider. The API relays StatusCode and
// Message to its caller unchanged.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status onto the package sentinels so errors.Is and CategorizeError work.
func (e *UpstreamError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrInvalidAPIKey
	case http.StatusNotFound:
		return ErrLocationNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrUpstreamFailure
	}
}

// OpenWeatherClient calls the OpenWeatherMap current-weather endpoint. It never retries.
type OpenWeatherClient struct {
	apiKey  string
	apiURL  string
	country string
	client  *http.Client
}

// NewOpenWeatherClient returns a client scoped to country (ISO 3166 alpha-2). An empty
// apiKey is allowed; calls then fail with ErrAPIKeyMissing. A zero timeout means none.
func NewOpenWeatherClient(apiKey, apiURL, country string, timeout time.Duration) (*OpenWeatherClient, error) {
	if _, err := url.Parse(apiURL); err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	return &OpenWeatherClient{
		apiKey:  strings.TrimSpace(apiKey),
		apiURL:  apiURL,
		country: strings.ToUpper(strings.TrimSpace(country)),
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type openWeatherResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Timezone *int `json:"timezone"`
}

type openWeatherError struct {
	Message string `json:"message"`
}

// GetCurrentWeather performs one upstream call for city and returns the normalized record.
func (c *OpenWeatherClient) GetCurrentWeather(ctx context.Context, city string) (models.NewObservation, error) {
	if c.apiKey == "" {
		return models.NewObservation{}, ErrAPIKeyMissing
	}

	obs, err := c.callAPI(ctx, city)
	if err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return models.NewObservation{}, err
	}
	return obs, nil
}

func (c *OpenWeatherClient) callAPI(ctx context.Context, city string) (models.NewObservation, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, city)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.NewObservation{}, fmt.Errorf("build request: %w", err)
	}

	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		// *url.Error carries the request URL, which includes appid.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.NewObservation{}, fmt.Errorf("request timeout: %w", err)
		}
		return models.NewObservation{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.NewObservation{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.NewObservation{}, upstreamError(resp.StatusCode, body)
	}

	var apiResp openWeatherResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.NewObservation{}, fmt.Errorf("parse response: %w", err)
	}

	return c.normalize(apiResp, city), nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, city string) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	q := city
	if c.country != "" {
		q = city + "," + c.country
	}
	params := baseURL.Query()
	params.Set("q", q)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

// upstreamError builds the relayed error, preferring the provider's own message.
func upstreamError(statusCode int, body []byte) *UpstreamError {
	msg := DefaultUpstreamMessage
	var e openWeatherError
	if err := json.Unmarshal(body, &e); err == nil && strings.TrimSpace(e.Message) != "" {
		msg = e.Message
	}
	return &UpstreamError{StatusCode: statusCode, Message: msg}
}

// normalize applies the field fallbacks: name→query, country→configured default,
// description→"", readings stay nil when the upstream omitted them.
func (c *OpenWeatherClient) normalize(apiResp openWeatherResponse, city string) models.NewObservation {
	description := ""
	if len(apiResp.Weather) > 0 {
		description = apiResp.Weather[0].Description
	}

	name := apiResp.Name
	if name == "" {
		name = city
	}

	country := apiResp.Sys.Country
	if country == "" {
		country = c.country
	}

	return models.NewObservation{
		CityName:    name,
		Country:     country,
		Description: description,
		Temperature: apiResp.Main.Temp,
		Humidity:    apiResp.Main.Humidity,
		Timezone:    apiResp.Timezone,
	}
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
