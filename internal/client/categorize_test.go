package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"
)

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "net failure" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

func TestCategorizeError(t *testing.T) {
	var syntaxErr error = json.Unmarshal([]byte("{"), &struct{}{})
	var typeErr error = json.Unmarshal([]byte(`{"name":1}`), &openWeatherResponse{})

	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ""},
		{"missing key", ErrAPIKeyMissing, ErrorCategoryConfiguration},
		{"deadline", fmt.Errorf("request timeout: %w", context.DeadlineExceeded), ErrorCategoryTimeout},
		{"canceled", context.Canceled, ErrorCategoryTimeout},
		{"net timeout", fmt.Errorf("http request failed: %w", fakeNetError{timeout: true}), ErrorCategoryTimeout},
		{"connection refused", fmt.Errorf("http request failed: %w", &net.OpError{Op: "dial", Err: errors.New("connection refused")}), ErrorCategoryNetwork},
		{"bad json", fmt.Errorf("parse response: %w", syntaxErr), ErrorCategoryParsing},
		{"wrong json type", fmt.Errorf("parse response: %w", typeErr), ErrorCategoryParsing},
		{"upstream 401", &UpstreamError{StatusCode: 401, Message: "Invalid API key"}, ErrorCategoryInvalidAPIKey},
		{"upstream 404", &UpstreamError{StatusCode: 404, Message: "city not found"}, ErrorCategoryLocationNotFound},
		{"upstream 429", &UpstreamError{StatusCode: 429, Message: "slow down"}, ErrorCategoryRateLimited},
		{"upstream 400", &UpstreamError{StatusCode: 400, Message: "Nothing to geocode"}, ErrorCategoryBadRequest},
		{"upstream 503", &UpstreamError{StatusCode: 503, Message: "unavailable"}, ErrorCategoryUpstream},
		{"wrapped upstream", fmt.Errorf("fetch weather for Pune: %w", &UpstreamError{StatusCode: 404}), ErrorCategoryLocationNotFound},
		{"upstream 500", &UpstreamError{StatusCode: 500}, ErrorCategoryUpstream},
		{"message text ignored", errors.New("connection timeout parse"), ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorizeError(tt.err); got != tt.want {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
