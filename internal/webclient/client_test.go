package webclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/weather-finder/internal/observability"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", time.Second)
	require.NoError(t, err)
	return c
}

func TestClient_Weather(t *testing.T) {
	var gotPath, gotCity, gotCorr string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCity = r.URL.Query().Get("city")
		gotCorr = r.Header.Get("X-Correlation-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"weather":{"id":"id-1","city_name":"São Paulo","country":"BR","description":"clear sky","temperature":24.5,"humidity":null,"timezone":-10800,"created_at":"2026-10-14T10:00:00Z"}}`))
	})

	ctx := observability.WithCorrelationID(context.Background(), "corr-9")
	obs, err := c.Weather(ctx, "São Paulo & more")
	require.NoError(t, err)

	assert.Equal(t, "/api/weather", gotPath)
	assert.Equal(t, "São Paulo & more", gotCity, "city must be query-escaped")
	assert.Equal(t, "corr-9", gotCorr)
	assert.Equal(t, "id-1", obs.ID)
	assert.Equal(t, "São Paulo", obs.CityName)
	require.NotNil(t, obs.Temperature)
	assert.Equal(t, 24.5, *obs.Temperature)
	assert.Nil(t, obs.Humidity)
	require.NotNil(t, obs.Timezone)
	assert.Equal(t, -10800, *obs.Timezone)
	assert.True(t, obs.CreatedAt.Equal(time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)))
}

func TestClient_History(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/history", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"history":[{"id":"b","city_name":"Pune"},{"id":"a","city_name":"Pune"}]}`))
	})

	rows, err := c.History(context.Background(), "Pune")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].ID)
}

func TestClient_History_NullIsEmpty(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"history":null}`))
	})

	rows, err := c.History(context.Background(), "Pune")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestClient_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error field", http.StatusNotFound, `{"error":"city not found"}`, "city not found"},
		{"insert failure", http.StatusInternalServerError, `{"error":"DB insert failed","details":"boom"}`, "DB insert failed"},
		{"no error field", http.StatusBadGateway, `{}`, DefaultErrorMessage},
		{"not json", http.StatusInternalServerError, `<html>oops</html>`, DefaultErrorMessage},
		{"blank error", http.StatusBadRequest, `{"error":"  "}`, DefaultErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Weather(context.Background(), "Pune")
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "error = %v, want *APIError", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)
	srv.Close()

	_, err = c.Weather(context.Background(), "Pune")
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_InvalidJSONSuccess(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"weather":`))
	})

	_, err := c.Weather(context.Background(), "Pune")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
}

func TestNew_InvalidBaseURL(t *testing.T) {
	for _, in := range []string{"", "localhost:3001", "://bad"} {
		_, err := New(in, time.Second)
		assert.Error(t, err, "New(%q)", in)
	}
}
