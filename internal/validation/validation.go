package validation

import (
	"errors"
	"strings"
)

// ErrCityEmpty is returned when the city is empty or whitespace-only after trim.
// Its text is the exact 400 body the API returns.
var ErrCityEmpty = errors.New("city query parameter is required")

// ValidateCity trims the input and rejects an empty result. Any other text is passed to
// the upstream as-is; it decides what is a real place.
func ValidateCity(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrCityEmpty
	}
	return s, nil
}
