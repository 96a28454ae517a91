package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kjstillabower/weather-finder/internal/client"
	"github.com/kjstillabower/weather-finder/internal/models"
	"github.com/kjstillabower/weather-finder/internal/store"
	"github.com/kjstillabower/weather-finder/internal/validation"
)

type mockWeatherClient struct {
	weather models.NewObservation
	err     error
	calls   int
	cities  []string
}

func (m *mockWeatherClient) GetCurrentWeather(ctx context.Context, city string) (models.NewObservation, error) {
	m.calls++
	m.cities = append(m.cities, city)
	return m.weather, m.err
}

type mockStore struct {
	rows        []models.Observation
	insertErr   error
	historyErr  error
	inserts     []models.NewObservation
	lastLimit   int
	lastCity    string
	historyCall int
}

func (m *mockStore) Insert(ctx context.Context, rec models.NewObservation) (models.Observation, error) {
	if m.insertErr != nil {
		return models.Observation{}, m.insertErr
	}
	m.inserts = append(m.inserts, rec)
	return models.Observation{
		ID:          "id-1",
		CityName:    rec.CityName,
		Country:     rec.Country,
		Description: rec.Description,
		Temperature: rec.Temperature,
		Humidity:    rec.Humidity,
		Timezone:    rec.Timezone,
		CreatedAt:   time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC),
	}, nil
}

func (m *mockStore) RecentByCity(ctx context.Context, city string, limit int) ([]models.Observation, error) {
	m.historyCall++
	m.lastCity = city
	m.lastLimit = limit
	return m.rows, m.historyErr
}

func (m *mockStore) Ping(ctx context.Context) error { return nil }

func ptrFloat(v float64) *float64 { return &v }

func TestFetchAndLog_Success(t *testing.T) {
	c := &mockWeatherClient{weather: models.NewObservation{
		CityName: "Pune", Country: "IN", Description: "haze", Temperature: ptrFloat(27.4),
	}}
	st := &mockStore{}
	svc := NewWeatherService(c, st)

	got, err := svc.FetchAndLog(context.Background(), "  Pune ")
	if err != nil {
		t.Fatalf("FetchAndLog() error = %v", err)
	}
	if c.calls != 1 || c.cities[0] != "Pune" {
		t.Errorf("client calls = %d %v, want one call with trimmed city", c.calls, c.cities)
	}
	if len(st.inserts) != 1 {
		t.Fatalf("inserts = %d, want 1", len(st.inserts))
	}
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Errorf("FetchAndLog() = %+v, want stored row with id and created_at", got)
	}
	if got.CityName != "Pune" || got.Country != "IN" || *got.Temperature != 27.4 {
		t.Errorf("FetchAndLog() = %+v, want normalized fields copied", got)
	}
}

func TestFetchAndLog_EmptyCity(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		c := &mockWeatherClient{}
		st := &mockStore{}
		_, err := NewWeatherService(c, st).FetchAndLog(context.Background(), in)
		if !errors.Is(err, validation.ErrCityEmpty) {
			t.Errorf("FetchAndLog(%q) error = %v, want ErrCityEmpty", in, err)
		}
		if c.calls != 0 || len(st.inserts) != 0 {
			t.Errorf("FetchAndLog(%q) made %d calls and %d inserts, want none", in, c.calls, len(st.inserts))
		}
	}
}

func TestFetchAndLog_UpstreamErrorSkipsInsert(t *testing.T) {
	upstream := &client.UpstreamError{StatusCode: 404, Message: "city not found"}
	c := &mockWeatherClient{err: upstream}
	st := &mockStore{}

	_, err := NewWeatherService(c, st).FetchAndLog(context.Background(), "NoSuchPlaceXYZ")
	var ue *client.UpstreamError
	if !errors.As(err, &ue) || ue.StatusCode != 404 {
		t.Fatalf("error = %v, want wrapped *UpstreamError 404", err)
	}
	if len(st.inserts) != 0 {
		t.Errorf("inserts = %d, want 0", len(st.inserts))
	}
}

func TestFetchAndLog_APIKeyMissing(t *testing.T) {
	c := &mockWeatherClient{err: client.ErrAPIKeyMissing}
	st := &mockStore{}

	_, err := NewWeatherService(c, st).FetchAndLog(context.Background(), "Pune")
	if !errors.Is(err, client.ErrAPIKeyMissing) {
		t.Errorf("error = %v, want ErrAPIKeyMissing", err)
	}
	if len(st.inserts) != 0 {
		t.Errorf("inserts = %d, want 0", len(st.inserts))
	}
}

func TestFetchAndLog_InsertFailure(t *testing.T) {
	c := &mockWeatherClient{weather: models.NewObservation{CityName: "Pune", Country: "IN"}}
	st := &mockStore{insertErr: errors.New("duplicate key value")}

	_, err := NewWeatherService(c, st).FetchAndLog(context.Background(), "Pune")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("error = %v, want ErrPersistence", err)
	}
	if err.Error() != "duplicate key value" {
		t.Errorf("error text = %q, want store message", err.Error())
	}
	if c.calls != 1 {
		t.Errorf("client calls = %d, want 1", c.calls)
	}
}

func TestFetchAndLog_NotConfiguredStore(t *testing.T) {
	c := &mockWeatherClient{weather: models.NewObservation{CityName: "Pune", Country: "IN"}}

	_, err := NewWeatherService(c, store.NotConfigured{}).FetchAndLog(context.Background(), "Pune")
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, store.ErrNotConfigured) {
		t.Errorf("error = %v, want ErrPersistence wrapping ErrNotConfigured", err)
	}
}

func TestHistory_Success(t *testing.T) {
	rows := []models.Observation{{ID: "b", CityName: "Pune"}, {ID: "a", CityName: "Pune"}}
	st := &mockStore{rows: rows}

	got, err := NewWeatherService(&mockWeatherClient{}, st).History(context.Background(), " pune ")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" {
		t.Errorf("History() = %+v, want store order kept", got)
	}
	if st.lastCity != "pune" || st.lastLimit != store.HistoryLimit {
		t.Errorf("RecentByCity(%q, %d), want (pune, %d)", st.lastCity, st.lastLimit, store.HistoryLimit)
	}
}

func TestHistory_EmptyIsNotNil(t *testing.T) {
	got, err := NewWeatherService(&mockWeatherClient{}, &mockStore{}).History(context.Background(), "Atlantis")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("History() = %#v, want empty non-nil slice", got)
	}
}

func TestHistory_EmptyCity(t *testing.T) {
	st := &mockStore{}
	_, err := NewWeatherService(&mockWeatherClient{}, st).History(context.Background(), " ")
	if !errors.Is(err, validation.ErrCityEmpty) {
		t.Errorf("error = %v, want ErrCityEmpty", err)
	}
	if st.historyCall != 0 {
		t.Errorf("store calls = %d, want 0", st.historyCall)
	}
}

func TestHistory_StoreError(t *testing.T) {
	st := &mockStore{historyErr: errors.New("connection refused")}
	_, err := NewWeatherService(&mockWeatherClient{}, st).History(context.Background(), "Pune")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("error = %v, want ErrPersistence", err)
	}
	if err.Error() != "connection refused" {
		t.Errorf("error text = %q, want store message", err.Error())
	}
}
