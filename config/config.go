package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port       string `env:"REPORT_PORT" envDefault:"5250"`
	DBPath     string `env:"REPORT_DB_PATH" envDefault:"database/report.db"`
	OutputDir  string `env:"REPORT_OUTPUT_DIR" envDefault:"reports"`
	LogLevel   string `env:"REPORT_LOG_LEVEL" envDefault:"info"`
	CitiesFile string `env:"REPORT_CITIES_FILE"`

	// Origins allowed to call the API; empty allows all
	CORSOrigins []string `env:"REPORT_CORS_ORIGINS" envSeparator:","`

	// Extra place names for the city image rule, comma separated
	PlaceNames []string `env:"REPORT_PLACE_NAMES" envSeparator:","`

	Brand struct {
		Title    string `env:"REPORT_BRAND_TITLE" envDefault:"Property Report"`
		Tagline  string `env:"REPORT_BRAND_TAGLINE" envDefault:"Professional Investment Analysis"`
		LogoPath string `env:"REPORT_LOGO_PATH"`
	}

	// Lookup configures the optional location lookup
	Lookup struct {
		NominatimURL string        `env:"REPORT_NOMINATIM_URL" envDefault:"https://nominatim.openstreetmap.org"`
		OverpassURL  string        `env:"REPORT_OVERPASS_URL" envDefault:"https://overpass-api.de/api/interpreter"`
		UserAgent    string        `env:"REPORT_USER_AGENT" envDefault:"PropertyReport/1.0"`
		Timeout      time.Duration `env:"REPORT_LOOKUP_TIMEOUT" envDefault:"10s"`
		MinInterval  time.Duration `env:"REPORT_LOOKUP_INTERVAL" envDefault:"1s"`
		CacheTTL     time.Duration `env:"REPORT_LOOKUP_CACHE_TTL" envDefault:"720h"`

		// Search radius for stations and bus routes, in meters
		SearchRadius float64 `env:"REPORT_SEARCH_RADIUS" envDefault:"1500"`

		CarSpeedMPH     float64 `env:"REPORT_CAR_SPEED_MPH" envDefault:"18"`
		WalkSpeedMPH    float64 `env:"REPORT_WALK_SPEED_MPH" envDefault:"3"`
		TransitSpeedMPH float64 `env:"REPORT_TRANSIT_SPEED_MPH" envDefault:"10"`
	}

	// Jobs configures background report generation
	Jobs struct {
		// Number of concurrent workers
		Workers int `env:"REPORT_JOB_WORKERS" envDefault:"2"`

		// Maximum number of jobs waiting in the queue
		QueueSize int `env:"REPORT_JOB_QUEUE_SIZE" envDefault:"16"`

		// Maximum number of retries for a failed write
		MaxRetries int `env:"REPORT_JOB_MAX_RETRIES" envDefault:"2"`

		// Delay between retries in seconds
		RetryDelay int `env:"REPORT_JOB_RETRY_DELAY" envDefault:"2"`

		// How often expired lookups and old job records are purged
		CleanupInterval time.Duration `env:"REPORT_CLEANUP_INTERVAL" envDefault:"1h"`

		// Finished job records older than this are removed
		RecordTTL time.Duration `env:"REPORT_JOB_RECORD_TTL" envDefault:"168h"`
	}

	Telegram struct {
		Enabled  bool   `env:"REPORT_TELEGRAM_ENABLED" envDefault:"false"`
		BotToken string `env:"REPORT_TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"REPORT_TELEGRAM_CHAT_ID"`
		APIURL   string `env:"REPORT_TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	}
}

// LoadConfig reads the optional .env files (".env" when none are given) and
// then parses the environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Level returns the configured log level, falling back to info.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// NewLogger returns the JSON logger used by both binaries.
func (c *Config) NewLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(out)
	logger.SetLevel(c.Level())
	return logger
}
