package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
)

// ErrorCategory labels weatherApiErrorsTotal. Values are stable; dashboards key on them.
type ErrorCategory string

const (
	ErrorCategoryTimeout          ErrorCategory = "timeout"
	ErrorCategoryNetwork          ErrorCategory = "network"
	ErrorCategoryConfiguration    ErrorCategory = "configuration"
	ErrorCategoryInvalidAPIKey    ErrorCategory = "invalid_api_key"
	ErrorCategoryLocationNotFound ErrorCategory = "location_not_found"
	ErrorCategoryRateLimited      ErrorCategory = "rate_limited"
	ErrorCategoryBadRequest       ErrorCategory = "bad_request"
	ErrorCategoryUpstream         ErrorCategory = "upstream"
	ErrorCategoryParsing          ErrorCategory = "parsing"
	ErrorCategoryUnknown          ErrorCategory = "unknown"
)

// CategorizeError classifies a GetCurrentWeather failure by type, never by message text.
// Provider answers are classified by status through *UpstreamError.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstreamCategory(upstream.StatusCode)
	}

	var (
		netErr    net.Error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, ErrAPIKeyMissing):
		return ErrorCategoryConfiguration
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorCategoryTimeout
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return ErrorCategoryTimeout
		}
		return ErrorCategoryNetwork
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return ErrorCategoryParsing
	}
	return ErrorCategoryUnknown
}

func upstreamCategory(status int) ErrorCategory {
	switch {
	case status == 401:
		return ErrorCategoryInvalidAPIKey
	case status == 404:
		return ErrorCategoryLocationNotFound
	case status == 429:
		return ErrorCategoryRateLimited
	case status >= 400 && status < 500:
		return ErrorCategoryBadRequest
	default:
		return ErrorCategoryUpstream
	}
}
