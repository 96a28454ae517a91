package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Env names of the required secrets. Readiness reports these when absent.
const (
	EnvWeatherAPIKey = "OPENWEATHER_API_KEY"
	EnvDatabaseURL   = "DATABASE_URL"
)

// Config holds service configuration loaded from YAML, .env and the environment.
type Config struct {
	ServerPort string `validate:"required,numeric"`

	Secrets Secrets `validate:"-"`

	WeatherAPIURL     string `validate:"required,url"`
	WeatherAPITimeout time.Duration
	// DefaultCountry scopes upstream queries and fills rows the upstream returns without one.
	DefaultCountry string `validate:"required,len=2,alpha"`

	RequestTimeout time.Duration

	DatabaseMaxConns    int32 `validate:"gte=0"`
	DatabaseAutoMigrate bool

	UIAPIBaseURL string `validate:"required,url"`
	UITimeout    time.Duration

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	TrackedLocations []string
}

// Secrets are the keys the service needs at call time. Missing values never fail Load;
// they are reported through Readiness.
type Secrets struct {
	WeatherAPIKey string `env:"OPENWEATHER_API_KEY" validate:"required"`
	DatabaseURL   string `env:"DATABASE_URL" validate:"required"`
}

// Readiness is the typed result of validating Secrets.
type Readiness struct {
	Ready   bool
	Missing []string
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
		Country string `yaml:"country"`
	} `yaml:"weather_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Database struct {
		MaxConns    int32 `yaml:"max_conns"`
		AutoMigrate *bool `yaml:"auto_migrate"`
	} `yaml:"database"`

	UI struct {
		APIBaseURL string `yaml:"api_base_url"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"ui"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Metrics struct {
		TrackedLocations []string `yaml:"tracked_locations"`
	} `yaml:"metrics"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
	DatabaseURL   string `yaml:"database_url"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Load reads .env (if present), config/{ENV_NAME}.yaml (default dev, optional) and
// config/secrets.yaml (optional), then applies environment overrides. Call from project root.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadFrom(filepath.Join(cwd, "config"))
}

// LoadFrom is Load with an explicit config directory.
func LoadFrom(dir string) (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig
	configPath := filepath.Join(dir, env+".yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read config file: %w", err)
	}

	sec, err := readSecrets(filepath.Join(dir, "secrets.yaml"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("PORT"), fc.Server.Port, "3001")

	cfg.Secrets.WeatherAPIKey = firstNonEmpty(os.Getenv(EnvWeatherAPIKey), sec.WeatherAPIKey)
	cfg.Secrets.DatabaseURL = firstNonEmpty(os.Getenv(EnvDatabaseURL), sec.DatabaseURL)

	cfg.WeatherAPIURL = firstNonEmpty(os.Getenv("WEATHER_API_URL"), fc.WeatherAPI.URL, "https://api.openweathermap.org/data/2.5/weather")
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 10*time.Second)
	cfg.DefaultCountry = strings.ToUpper(firstNonEmpty(fc.WeatherAPI.Country, "IN"))

	cfg.RequestTimeout = parseDurationOrZero(fc.Request.Timeout, 15*time.Second)

	cfg.DatabaseMaxConns = fc.Database.MaxConns
	if v := strings.TrimSpace(os.Getenv("DB_MAX_CONNS")); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("DB_MAX_CONNS: %w", err)
		}
		cfg.DatabaseMaxConns = int32(n)
	}
	cfg.DatabaseAutoMigrate = true
	if fc.Database.AutoMigrate != nil {
		cfg.DatabaseAutoMigrate = *fc.Database.AutoMigrate
	}
	if v := strings.TrimSpace(os.Getenv("DB_AUTO_MIGRATE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("DB_AUTO_MIGRATE: %w", err)
		}
		cfg.DatabaseAutoMigrate = b
	}

	// An explicit PORT moves the listener, so the page follows it unless UI_API_BASE_URL says otherwise.
	uiBase := fc.UI.APIBaseURL
	if strings.TrimSpace(os.Getenv("PORT")) != "" {
		uiBase = ""
	}
	cfg.UIAPIBaseURL = strings.TrimRight(firstNonEmpty(os.Getenv("UI_API_BASE_URL"), uiBase, "http://localhost:"+cfg.ServerPort), "/")
	cfg.UITimeout = parseDurationOrZero(fc.UI.Timeout, 20*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.TrackedLocations = fc.Metrics.TrackedLocations

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Readiness validates Secrets and lists the env names of the missing ones.
func (c *Config) Readiness() Readiness {
	err := validate.Struct(c.Secrets)
	if err == nil {
		return Readiness{Ready: true, Missing: []string{}}
	}
	missing := []string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
	}
	return Readiness{Ready: false, Missing: missing}
}

func readSecrets(path string) (secretsFile, error) {
	var sec secretsFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sec, nil
		}
		return sec, fmt.Errorf("read secrets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return sec, fmt.Errorf("parse secrets file: %w", err)
	}
	return sec, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string, parse
// error or a negative value. Zero is kept and means no timeout.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

// validate checks field constraints and keeps RequestTimeout above WeatherAPITimeout so a
// slow upstream surfaces as an upstream error rather than a cancelled request.
func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.RequestTimeout > 0 && c.WeatherAPITimeout > 0 && c.RequestTimeout <= c.WeatherAPITimeout {
		c.RequestTimeout = c.WeatherAPITimeout + time.Second
	}
	return nil
}
