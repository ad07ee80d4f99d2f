package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Calendar sources
const (
	SourceFile       = "file"
	SourceHTTP       = "http"
	SourceIsDayOff   = "isdayoff"
	SourceProduction = "production"
	SourceGenerated  = "generated"
	SourceICS        = "ics"
	SourceSQLite     = "sqlite"
	SourcePostgres   = "postgres"
)

// Country codes used when calendar.country is empty
const (
	defaultCountry    = "USA"
	productionCountry = "ru"  // production-calendar.ru path segment
	isdayoffCountry   = "RUS" // xmlcalendar.ru data is Russian only
)

// Sources lists every accepted calendar.source value
var Sources = []string{
	SourceFile, SourceHTTP, SourceIsDayOff, SourceProduction,
	SourceGenerated, SourceICS, SourceSQLite, SourcePostgres,
}

// Config represents application configuration
type Config struct {
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Store     StoreConfig     `mapstructure:"store"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
	Watch     WatchConfig     `mapstructure:"watch"`
}

// CalendarConfig selects and configures the holiday source
type CalendarConfig struct {
	Source       string `mapstructure:"source"`
	File         string `mapstructure:"file"`
	FallbackFile string `mapstructure:"fallback_file"` // optional, wraps the source in a composite
	CacheTTL     string `mapstructure:"cache_ttl"`
	Country      string `mapstructure:"country"` // empty picks one per source, see CountryFor

	// http source
	APIURL   string `mapstructure:"api_url"`
	APIToken string `mapstructure:"api_token"`

	// ics source: file path or URL
	ICSURL string `mapstructure:"ics_url"`

	// isdayoff source (xmlcalendar.ru)
	IsDayOffFallbackURL string `mapstructure:"isdayoff_fallback_url"`

	// production source (production-calendar.ru)
	ProductionURL   string `mapstructure:"production_url"`
	ProductionToken string `mapstructure:"production_token"`

	// generated source; zero means one year around the current one
	YearFrom int `mapstructure:"year_from"`
	YearTo   int `mapstructure:"year_to"`
}

// CacheConfig configures the optional redis cache
type CacheConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"` // empty disables the cache
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	TTL           string `mapstructure:"ttl"`
}

// StoreConfig configures the database-backed holiday stores
type StoreConfig struct {
	SQLitePath string         `mapstructure:"sqlite_path"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig is the PostgreSQL connection
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	Timezone string `mapstructure:"timezone"`
}

// DSN builds the PostgreSQL connection string
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// SchedulerConfig configures estimate conversion
type SchedulerConfig struct {
	HoursPerDay float64 `mapstructure:"hours_per_day"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	File   string `mapstructure:"file"`   // rotated with lumberjack when set
}

// WatchConfig configures the snapshot refresher
type WatchConfig struct {
	Interval  string `mapstructure:"interval"`
	StateFile string `mapstructure:"state_file"`
}

// Load loads configuration from file, environment and defaults.
// Environment variables use the WDS_ prefix: WDS_CALENDAR_SOURCE=http.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.workday-scheduler")
		v.AddConfigPath("/etc/workday-scheduler")
	}

	v.SetEnvPrefix("WDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Only a searched-for config may be absent
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key, including empty ones: AutomaticEnv only
// overrides keys viper already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("calendar.source", SourceFile)
	v.SetDefault("calendar.file", "holidays.txt")
	v.SetDefault("calendar.fallback_file", "")
	v.SetDefault("calendar.cache_ttl", "24h")
	v.SetDefault("calendar.country", "")
	v.SetDefault("calendar.api_url", "")
	v.SetDefault("calendar.api_token", "")
	v.SetDefault("calendar.ics_url", "")
	v.SetDefault("calendar.isdayoff_fallback_url", "https://xmlcalendar.ru/data/ru/{year}/calendar.json")
	v.SetDefault("calendar.production_url", "https://production-calendar.ru")
	v.SetDefault("calendar.production_token", "")
	v.SetDefault("calendar.year_from", 0)
	v.SetDefault("calendar.year_to", 0)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "1h")

	v.SetDefault("store.sqlite_path", "data/holidays.db")
	v.SetDefault("store.postgres.host", "localhost")
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.name", "workday")
	v.SetDefault("store.postgres.user", "postgres")
	v.SetDefault("store.postgres.password", "")
	v.SetDefault("store.postgres.sslmode", "disable")
	v.SetDefault("store.postgres.timezone", "UTC")

	v.SetDefault("scheduler.hours_per_day", 8)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetDefault("watch.interval", "1h")
	v.SetDefault("watch.state_file", "")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	cal := c.Calendar

	switch cal.Source {
	case SourceFile:
		if cal.File == "" {
			return fmt.Errorf("calendar.file is required for file source")
		}
	case SourceHTTP:
		if cal.APIURL == "" {
			return fmt.Errorf("calendar.api_url is required for http source")
		}
	case SourceIsDayOff:
		if cal.IsDayOffFallbackURL == "" {
			return fmt.Errorf("calendar.isdayoff_fallback_url is required for isdayoff source")
		}
	case SourceProduction:
		if cal.ProductionURL == "" {
			return fmt.Errorf("calendar.production_url is required for production source")
		}
		if cal.ProductionToken == "" {
			return fmt.Errorf("calendar.production_token is required for production source")
		}
	case SourceGenerated:
		if cal.YearFrom != 0 && cal.YearTo != 0 && cal.YearTo < cal.YearFrom {
			return fmt.Errorf("calendar.year_to must not precede calendar.year_from")
		}
	case SourceICS:
		if cal.ICSURL == "" {
			return fmt.Errorf("calendar.ics_url is required for ics source")
		}
	case SourceSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for sqlite source")
		}
	case SourcePostgres:
		if c.Store.Postgres.Host == "" || c.Store.Postgres.Name == "" {
			return fmt.Errorf("store.postgres.host and store.postgres.name are required for postgres source")
		}
	default:
		return fmt.Errorf("calendar.source must be one of %s, got '%s'",
			strings.Join(Sources, ", "), cal.Source)
	}

	if c.Scheduler.HoursPerDay <= 0 || c.Scheduler.HoursPerDay > 24 {
		return fmt.Errorf("scheduler.hours_per_day must be in (0, 24]")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be 'json' or 'console', got '%s'", c.Log.Format)
	}

	return nil
}

// CountryFor returns the country code records of a source are stamped with.
// An explicit calendar.country wins; otherwise the Russian sources get their
// own code and everything else falls back to USA.
func (c *CalendarConfig) CountryFor(source string) string {
	if c.Country != "" {
		return c.Country
	}
	switch source {
	case SourceProduction:
		return productionCountry
	case SourceIsDayOff:
		return isdayoffCountry
	default:
		return defaultCountry
	}
}

// GetCacheTTL returns the provider cache TTL
func (c *CalendarConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 24*time.Hour)
}

// GetTTL returns the redis cache TTL
func (c *CacheConfig) GetTTL() time.Duration {
	return parseDuration(c.TTL, time.Hour)
}

// GetInterval returns the refresh interval
func (c *WatchConfig) GetInterval() time.Duration {
	return parseDuration(c.Interval, time.Hour)
}

// ExpandEnvVars expands environment variables in secrets
func (c *Config) ExpandEnvVars() {
	c.Calendar.APIToken = os.ExpandEnv(c.Calendar.APIToken)
	c.Calendar.ProductionToken = os.ExpandEnv(c.Calendar.ProductionToken)
	c.Cache.RedisPassword = os.ExpandEnv(c.Cache.RedisPassword)
	c.Store.Postgres.Password = os.ExpandEnv(c.Store.Postgres.Password)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	duration, err := time.ParseDuration(s)
	if err != nil || duration < 0 {
		return def
	}
	return duration
}
