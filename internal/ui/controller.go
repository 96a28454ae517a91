package ui

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-finder/internal/models"
	"github.com/kjstillabower/weather-finder/internal/webclient"
)

// API is the part of the JSON API the page uses. *webclient.Client implements it.
type API interface {
	Weather(ctx context.Context, city string) (models.Observation, error)
	History(ctx context.Context, city string) ([]models.Observation, error)
}

var _ API = (*webclient.Client)(nil)

// Controller runs searches against the API and applies the results to a State.
type Controller struct {
	api    API
	state  *State
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewController returns a Controller writing into state.
func NewController(api API, state *State, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{api: api, state: state, logger: logger}
}

// Search looks up city. Blank input is ignored. On success the history for the
// server-resolved city name is fetched in the background; see Wait.
func (c *Controller) Search(ctx context.Context, city string) {
	city = strings.TrimSpace(city)
	if city == "" {
		return
	}
	tok := c.state.Begin()

	obs, err := c.api.Weather(ctx, city)
	if err != nil {
		c.logger.Debug("weather lookup failed", zap.String("city", city), zap.Error(err))
		c.state.FailWeather(tok, errorMessage(err))
		return
	}
	if !c.state.ResolveWeather(tok, obs) {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.loadHistory(context.WithoutCancel(ctx), tok, obs.CityName)
	}()
}

// Wait blocks until every history fetch started by Search has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// loadHistory never surfaces a failure in the view.
func (c *Controller) loadHistory(ctx context.Context, tok Token, city string) {
	rows, err := c.api.History(ctx, city)
	if err != nil {
		c.logger.Warn("history fetch failed", zap.String("city", city), zap.Error(err))
		return
	}
	if !c.state.ResolveHistory(tok, rows) {
		c.logger.Debug("discarded stale history", zap.String("city", city))
	}
}

// errorMessage shows the API's own message; transport failures get the generic one.
func errorMessage(err error) string {
	var apiErr *webclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return webclient.DefaultErrorMessage
}
