package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-finder/internal/client"
	"github.com/kjstillabower/weather-finder/internal/models"
	"github.com/kjstillabower/weather-finder/internal/observability"
	"github.com/kjstillabower/weather-finder/internal/store"
	"github.com/kjstillabower/weather-finder/internal/validation"
)

// ErrPersistence wraps any failure of the observation store.
var ErrPersistence = errors.New("persistence failure")

// WeatherService fetches current conditions from the upstream provider and keeps an
// append-only log of every successful lookup.
type WeatherService struct {
	client client.WeatherClient
	store  store.Store
}

// NewWeatherService creates a new WeatherService with the provided dependencies.
func NewWeatherService(client client.WeatherClient, store store.Store) *WeatherService {
	return &WeatherService{
		client: client,
		store:  store,
	}
}

// FetchAndLog validates city, performs exactly one upstream call and inserts the normalized
// observation. Nothing is written when the upstream call fails. A failed insert after a
// successful upstream call returns ErrPersistence and is not compensated.
func (s *WeatherService) FetchAndLog(ctx context.Context, city string) (models.Observation, error) {
	city, err := validation.ValidateCity(city)
	if err != nil {
		return models.Observation{}, err
	}
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	rec, err := s.client.GetCurrentWeather(ctx, city)
	if err != nil {
		logger.Debug("upstream lookup failed", zap.String("city", city), zap.Error(err))
		return models.Observation{}, fmt.Errorf("fetch weather for %s: %w", city, err)
	}
	observability.RecordWeatherQuery(rec.CityName)

	obs, err := s.store.Insert(ctx, rec)
	if err != nil {
		logger.Warn("observation insert failed", zap.String("city", rec.CityName), zap.Error(err))
		return models.Observation{}, persistenceError(err)
	}

	logger.Debug("weather served",
		zap.String("city", obs.CityName),
		zap.String("id", obs.ID),
		zap.Duration("duration", time.Since(start)))
	return obs, nil
}

// History returns up to store.HistoryLimit observations for city, newest first. The match
// ignores case. An unknown city yields an empty, non-nil slice.
func (s *WeatherService) History(ctx context.Context, city string) ([]models.Observation, error) {
	city, err := validation.ValidateCity(city)
	if err != nil {
		return nil, err
	}
	logger := observability.LoggerFromContext(ctx)

	rows, err := s.store.RecentByCity(ctx, city, store.HistoryLimit)
	if err != nil {
		logger.Warn("history query failed", zap.String("city", city), zap.Error(err))
		return nil, persistenceError(err)
	}
	if rows == nil {
		rows = []models.Observation{}
	}
	logger.Debug("history served", zap.String("city", city), zap.Int("rows", len(rows)))
	return rows, nil
}

// persistenceError keeps the store's message as the error text so it can be relayed.
func persistenceError(err error) error {
	return &storeError{err: err}
}

type storeError struct {
	err error
}

func (e *storeError) Error() string { return e.err.Error() }

func (e *storeError) Is(target error) bool { return target == ErrPersistence }

func (e *storeError) Unwrap() error { return e.err }
