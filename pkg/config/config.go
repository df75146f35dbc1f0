// Package config loads the explorer settings from YAML, .env files and the
// process environment, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPaths are tried in order when no config file is given.
var DefaultPaths = []string{"config.yaml", "config.yaml.example"}

// Config is the full explorer configuration.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Map struct {
		DefaultLat   float64 `yaml:"default_lat"`
		DefaultLon   float64 `yaml:"default_lon"`
		DefaultZoom  float64 `yaml:"default_zoom"`
		ZoneDelayMs  int     `yaml:"zone_delay_ms"`
		MaxGridCells int     `yaml:"max_grid_cells"`
	} `yaml:"map"`
	Prefs struct {
		Backend string `yaml:"backend"`
		File    string `yaml:"file"`
	} `yaml:"prefs"`
	Postgres struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Geocode struct {
		MapsCoURL string `yaml:"maps_co_url"`
		MapsCoKey string `yaml:"maps_co_key"`
		PhotonURL string `yaml:"photon_url"`
		TimeoutMs int    `yaml:"timeout_ms"`
		LocalOnly bool   `yaml:"local_only"`
		UserAgent string `yaml:"user_agent"`
	} `yaml:"geocode"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.Map.DefaultLat = 36.5625
	c.Map.DefaultLon = -118.125
	c.Map.DefaultZoom = 6
	c.Map.ZoneDelayMs = 20
	c.Map.MaxGridCells = 2500
	c.Prefs.Backend = "file"
	c.Prefs.File = "geohash-prefs.yaml"
	c.Postgres.Host = "localhost"
	c.Postgres.Port = 5432
	c.Postgres.User = "postgres"
	c.Postgres.Database = "geohash"
	c.Postgres.SSLMode = "disable"
	c.Redis.Addr = "localhost:6379"
	c.Redis.Prefix = "geohash:prefs:"
	c.Geocode.MapsCoURL = "https://geocode.maps.co/search"
	c.Geocode.PhotonURL = "https://photon.komoot.io/api/"
	c.Geocode.TimeoutMs = 5000
	c.Geocode.UserAgent = "geohash-zones/1.0"
	c.Server.Addr = ":8080"
	return c
}

// ZoneDelay returns the zone redraw debounce window.
func (c Config) ZoneDelay() time.Duration {
	return time.Duration(c.Map.ZoneDelayMs) * time.Millisecond
}

// GeocodeTimeout returns the per-request geocoding timeout.
func (c Config) GeocodeTimeout() time.Duration {
	return time.Duration(c.Geocode.TimeoutMs) * time.Millisecond
}

// PostgresDSN builds a lib/pq connection string.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password, c.Postgres.Database, c.Postgres.SSLMode)
}

// Load reads path (or the first of DefaultPaths that exists when path is
// empty) over Default and then applies GEOHASH_* environment overrides. A
// missing default file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := readConfigFile(path)
	if err != nil {
		return cfg, err
	}
	if data != nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return data, nil
	}
	for _, p := range DefaultPaths {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", p, err)
		}
	}
	return nil, nil
}

func applyEnv(c *Config) {
	c.Log.Level = GetEnv("GEOHASH_LOG_LEVEL", c.Log.Level)
	c.Log.Format = GetEnv("GEOHASH_LOG_FORMAT", c.Log.Format)
	c.Map.ZoneDelayMs = GetEnvInt("GEOHASH_ZONE_DELAY_MS", c.Map.ZoneDelayMs)
	c.Map.MaxGridCells = GetEnvInt("GEOHASH_MAX_GRID_CELLS", c.Map.MaxGridCells)
	c.Prefs.Backend = GetEnv("GEOHASH_PREFS_BACKEND", c.Prefs.Backend)
	c.Prefs.File = GetEnv("GEOHASH_PREFS_FILE", c.Prefs.File)
	c.Postgres.Host = GetEnv("GEOHASH_PG_HOST", c.Postgres.Host)
	c.Postgres.Port = GetEnvInt("GEOHASH_PG_PORT", c.Postgres.Port)
	c.Postgres.User = GetEnv("GEOHASH_PG_USER", c.Postgres.User)
	c.Postgres.Password = GetEnv("GEOHASH_PG_PASSWORD", c.Postgres.Password)
	c.Postgres.Database = GetEnv("GEOHASH_PG_DATABASE", c.Postgres.Database)
	c.Redis.Addr = GetEnv("GEOHASH_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = GetEnv("GEOHASH_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = GetEnvInt("GEOHASH_REDIS_DB", c.Redis.DB)
	c.Geocode.MapsCoKey = GetEnv("GEOHASH_MAPS_CO_KEY", c.Geocode.MapsCoKey)
	c.Geocode.LocalOnly = GetEnvBool("GEOHASH_GEOCODE_LOCAL_ONLY", c.Geocode.LocalOnly)
	c.Server.Addr = GetEnv("GEOHASH_ADDR", c.Server.Addr)
}

// LoadEnv loads .env files from the working directory into the process
// environment. Missing files are skipped.
func LoadEnv(logger *logrus.Logger) {
	files := []string{".env", ".env.local"}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("Failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if logger != nil && len(loaded) > 0 {
		logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
	}
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvBool gets a boolean environment variable with a default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
