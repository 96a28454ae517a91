// Package ui is the server-rendered weather search page.
package ui

import (
	"sync"
	"time"

	"github.com/kjstillabower/weather-finder/internal/models"
)

// View is what the page shows. At most one of Loading, Error and Weather drives the main
// panel; History is only shown alongside a result.
type View struct {
	Weather   *models.Observation
	Timestamp time.Time
	History   []models.Observation
	Loading   bool
	Error     string
}

// Token identifies one search. Only results carrying the latest token are applied.
type Token uint64

// State is the mutable view state shared by a Controller and its history fetches.
type State struct {
	mu     sync.Mutex
	view   View
	latest Token
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// Begin starts a search: it issues a new token, sets loading and clears the error.
func (s *State) Begin() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	s.view.Loading = true
	s.view.Error = ""
	return s.latest
}

// ResolveWeather stores a successful lookup. Reports false when tok is stale.
func (s *State) ResolveWeather(tok Token, obs models.Observation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.latest {
		return false
	}
	s.view.Weather = &obs
	s.view.Timestamp = obs.CreatedAt
	s.view.Loading = false
	return true
}

// FailWeather stores a failed lookup. The previous history is left in place.
func (s *State) FailWeather(tok Token, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.latest {
		return false
	}
	s.view.Error = msg
	s.view.Weather = nil
	s.view.Loading = false
	return true
}

// ResolveHistory replaces the history rows. Reports false when tok is stale.
func (s *State) ResolveHistory(tok Token, rows []models.Observation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.latest {
		return false
	}
	s.view.History = append([]models.Observation(nil), rows...)
	return true
}

// Snapshot returns a copy safe to read without the lock.
func (s *State) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	if v.Weather != nil {
		w := *v.Weather
		v.Weather = &w
	}
	v.History = append([]models.Observation(nil), s.view.History...)
	return v
}
