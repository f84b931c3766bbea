// Package config loads and validates application configuration from
// environment variables and an optional TOML rules file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // HOS_TIMEZONE must resolve on hosts without a zoneinfo database

	"github.com/BurntSushi/toml"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/hos"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MigrateOnStart runs the embedded goose migrations before serving.
	MigrateOnStart bool

	// ORSAPIKey enables the OpenRouteService provider. When empty, trips are
	// routed with the straight-line provider.
	ORSAPIKey  string
	ORSProfile string

	// RouteCachePath is the SQLite file for cached routes. Empty disables the cache.
	RouteCachePath string
	// RouteCacheTTL bounds the age of cached routes. Zero keeps them forever.
	RouteCacheTTL time.Duration

	// Rules is the HOS rule set: file values first, then HOS_* env overrides.
	Rules hos.Rules

	// Carrier is the report header, only settable from the rules file.
	Carrier domain.Carrier
}

// rulesFile is the shape of the TOML file named by RULES_FILE.
//
//	daily_driving_limit = 11
//	default_cycle = "70_8"
//	cycle_window = "rolling"
//	timezone = "America/Chicago"
//	rest_interval_hours = 4
//
//	[cycles.60_7]
//	max_hours = 60
//	window_days = 7
//
//	[carrier]
//	name = "Prairie Freight"
type rulesFile struct {
	DailyDrivingLimit float64                     `toml:"daily_driving_limit"`
	DefaultCycle      string                      `toml:"default_cycle"`
	CycleWindow       string                      `toml:"cycle_window"`
	Timezone          string                      `toml:"timezone"`
	RestIntervalHours float64                     `toml:"rest_interval_hours"`
	Cycles            map[string]domain.CycleRule `toml:"cycles"`
	Carrier           domain.Carrier              `toml:"carrier"`
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first invalid value.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		ORSAPIKey:      os.Getenv("ORS_API_KEY"),
		ORSProfile:     getEnv("ORS_PROFILE", "driving-hgv"),
		RouteCachePath: getEnv("ROUTE_CACHE_PATH", "data/routes.db"),
		Rules:          hos.DefaultRules(),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.MigrateOnStart, err = parseBool("MIGRATE_ON_START", false); err != nil {
		return Config{}, err
	}
	if cfg.RouteCacheTTL, err = parseDuration("ROUTE_CACHE_TTL", 0); err != nil {
		return Config{}, err
	}

	if path := os.Getenv("RULES_FILE"); path != "" {
		if err := applyRulesFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyRuleEnv(&cfg.Rules); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyRulesFile(cfg *Config, path string) error {
	var rf rulesFile
	md, err := toml.DecodeFile(path, &rf)
	if err != nil {
		return fmt.Errorf("config: read rules file %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config: rules file %q: unknown key %q", path, undecoded[0].String())
	}

	r := &cfg.Rules
	if rf.DailyDrivingLimit != 0 {
		if rf.DailyDrivingLimit < 0 {
			return fmt.Errorf("config: rules file: daily_driving_limit must be positive")
		}
		r.DailyDrivingLimit = rf.DailyDrivingLimit
	}
	if rf.RestIntervalHours != 0 {
		if rf.RestIntervalHours < 0 {
			return fmt.Errorf("config: rules file: rest_interval_hours must be positive")
		}
		r.RestIntervalHours = rf.RestIntervalHours
	}
	for name, rule := range rf.Cycles {
		c, err := domain.ParseCycleType(name)
		if err != nil {
			return fmt.Errorf("config: rules file: %w", err)
		}
		if rule.MaxHours <= 0 || rule.WindowDays < 1 {
			return fmt.Errorf("config: rules file: cycle %s needs max_hours > 0 and window_days >= 1", name)
		}
		r.Cycles[c] = rule
	}
	if rf.DefaultCycle != "" {
		if r.DefaultCycle, err = domain.ParseCycleType(rf.DefaultCycle); err != nil {
			return fmt.Errorf("config: rules file: %w", err)
		}
	}
	if rf.CycleWindow != "" {
		if r.WindowMode, err = hos.ParseWindowMode(rf.CycleWindow); err != nil {
			return fmt.Errorf("config: rules file: %w", err)
		}
	}
	if rf.Timezone != "" {
		if r.Location, err = time.LoadLocation(rf.Timezone); err != nil {
			return fmt.Errorf("config: rules file: timezone: %w", err)
		}
	}
	cfg.Carrier = rf.Carrier
	return nil
}

// applyRuleEnv lets HOS_* variables override the defaults and the file.
func applyRuleEnv(r *hos.Rules) error {
	var err error
	if v := os.Getenv("HOS_TIMEZONE"); v != "" {
		if r.Location, err = time.LoadLocation(v); err != nil {
			return fmt.Errorf("config: HOS_TIMEZONE: %w", err)
		}
	}
	if v := os.Getenv("HOS_DEFAULT_CYCLE"); v != "" {
		if r.DefaultCycle, err = domain.ParseCycleType(v); err != nil {
			return fmt.Errorf("config: HOS_DEFAULT_CYCLE: %w", err)
		}
	}
	if v := os.Getenv("HOS_CYCLE_WINDOW"); v != "" {
		if r.WindowMode, err = hos.ParseWindowMode(v); err != nil {
			return fmt.Errorf("config: HOS_CYCLE_WINDOW: %w", err)
		}
	}
	if r.RestIntervalHours, err = parsePositiveFloat("HOS_REST_INTERVAL_HOURS", r.RestIntervalHours); err != nil {
		return err
	}
	if r.DailyDrivingLimit, err = parsePositiveFloat("HOS_DAILY_DRIVING_LIMIT", r.DailyDrivingLimit); err != nil {
		return err
	}
	return nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func parsePositiveFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %v", key, f)
	}
	return f, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
