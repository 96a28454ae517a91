package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kjstillabower/weather-finder/internal/models"
	"github.com/kjstillabower/weather-finder/internal/observability"
)

// HistoryLimit caps how many rows a history lookup returns.
const HistoryLimit = 10

const table = "weather_logs"

// ErrNotConfigured is returned by every operation of a store built without a database.
var ErrNotConfigured = errors.New("store not configured: DATABASE_URL missing")

// Store persists observations. Rows are append-only.
type Store interface {
	Insert(ctx context.Context, rec models.NewObservation) (models.Observation, error)
	RecentByCity(ctx context.Context, city string, limit int) ([]models.Observation, error)
	Ping(ctx context.Context) error
}

// DB is the subset of *pgxpool.Pool the store needs. pgxmock.PgxPoolIface satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

var _ Store = (*PostgresStore)(nil)

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	returnColumns = []string{
		"id::text", "city_name", "country", "description",
		"temperature", "humidity", "timezone", "created_at",
	}
)

// PostgresStore implements Store on the weather_logs table.
type PostgresStore struct {
	db     DB
	tracer trace.Tracer
}

// NewPostgresStore wraps db. The caller owns the pool's lifetime.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("github.com/kjstillabower/weather-finder/internal/store"),
	}
}

// NewPool parses dsn and builds a pgx pool. Connections are opened lazily.
// maxConns <= 0 keeps the pgx default.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return pool, nil
}

// Insert writes rec and returns the stored row with its id and created_at.
func (s *PostgresStore) Insert(ctx context.Context, rec models.NewObservation) (models.Observation, error) {
	ctx, span := s.tracer.Start(ctx, "store.Insert", trace.WithAttributes(
		attribute.String("weather.city", rec.CityName),
	))
	defer span.End()
	start := time.Now()

	query, args, err := psql.Insert(table).
		Columns("city_name", "country", "description", "temperature", "humidity", "timezone").
		Values(rec.CityName, rec.Country, rec.Description, rec.Temperature, rec.Humidity, rec.Timezone).
		Suffix("RETURNING " + strings.Join(returnColumns, ", ")).
		ToSql()
	if err != nil {
		return models.Observation{}, spanError(span, fmt.Errorf("build insert: %w", err))
	}

	obs, err := scanObservation(s.db.QueryRow(ctx, query, args...))
	observability.ObserveStoreOperation("insert", time.Since(start).Seconds(), err)
	if err != nil {
		return models.Observation{}, spanError(span, err)
	}
	observability.ObservationsRecordedTotal.Inc()
	span.SetAttributes(attribute.String("weather.observation_id", obs.ID))
	return obs, nil
}

// RecentByCity returns up to limit rows whose city_name equals city ignoring case, newest
// first. An empty result is an empty slice, never nil.
func (s *PostgresStore) RecentByCity(ctx context.Context, city string, limit int) ([]models.Observation, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	ctx, span := s.tracer.Start(ctx, "store.RecentByCity", trace.WithAttributes(
		attribute.String("weather.city", city),
		attribute.Int("weather.limit", limit),
	))
	defer span.End()
	start := time.Now()

	query, args, err := psql.Select(returnColumns...).
		From(table).
		Where(sq.Expr("lower(city_name) = lower(?)", city)).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, spanError(span, fmt.Errorf("build history query: %w", err))
	}

	out, err := s.queryObservations(ctx, query, args...)
	observability.ObserveStoreOperation("history", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.Int("weather.rows", len(out)))
	return out, nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.db.Ping(ctx)
	observability.ObserveStoreOperation("ping", time.Since(start).Seconds(), err)
	return err
}

func (s *PostgresStore) queryObservations(ctx context.Context, query string, args ...any) ([]models.Observation, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Observation, error) {
		return scanObservation(row)
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Observation{}
	}
	return out, nil
}

func scanObservation(row pgx.Row) (models.Observation, error) {
	var o models.Observation
	err := row.Scan(
		&o.ID, &o.CityName, &o.Country, &o.Description,
		&o.Temperature, &o.Humidity, &o.Timezone, &o.CreatedAt,
	)
	return o, err
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// NotConfigured is the Store used when no database is configured. Every call fails with
// ErrNotConfigured so the API reports a persistence error instead of crashing.
type NotConfigured struct{}

var _ Store = NotConfigured{}

func (NotConfigured) Insert(context.Context, models.NewObservation) (models.Observation, error) {
	return models.Observation{}, ErrNotConfigured
}

func (NotConfigured) RecentByCity(context.Context, string, int) ([]models.Observation, error) {
	return nil, ErrNotConfigured
}

func (NotConfigured) Ping(context.Context) error { return ErrNotConfigured }
