package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Map       MapConfig       `mapstructure:"map"`
	Tiles     TilesConfig     `mapstructure:"tiles"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	StaticDir    string `mapstructure:"static_dir"`
}

// MapConfig drives the bootstrap sequence.
type MapConfig struct {
	Containers  []string `mapstructure:"containers"`
	Container   string   `mapstructure:"container"`
	Projection  string   `mapstructure:"projection"`
	Lon         float64  `mapstructure:"lon"`
	Lat         float64  `mapstructure:"lat"`
	Zoom        int      `mapstructure:"zoom"`
	MarkerLayer string   `mapstructure:"marker_layer"`
	MarkerLabel string   `mapstructure:"marker_label"`
}

// TilesConfig describes the base tile layer and the tile warmer.
type TilesConfig struct {
	Name         string   `mapstructure:"name"`
	URLTemplate  string   `mapstructure:"url_template"`
	Subdomains   []string `mapstructure:"subdomains"`
	Attribution  string   `mapstructure:"attribution"`
	MaxZoom      int      `mapstructure:"max_zoom"`
	WarmRadius   int      `mapstructure:"warm_radius"`
	FetchTimeout int      `mapstructure:"fetch_timeout"`
	UserAgent    string   `mapstructure:"user_agent"`
}

// FetchTimeoutDuration returns the per-tile fetch timeout.
func (t TilesConfig) FetchTimeoutDuration() time.Duration {
	return time.Duration(t.FetchTimeout) * time.Second
}

// StorageConfig selects the view repository.
type StorageConfig struct {
	Driver     string `mapstructure:"driver"` // memory or postgres
	MemorySize int    `mapstructure:"memory_size"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Prefix  string `mapstructure:"prefix"`
	Enabled bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.static_dir", "./web/static")
	v.SetDefault("map.containers", []string{"map"})
	v.SetDefault("map.container", "map")
	v.SetDefault("map.projection", "EPSG:3857")
	v.SetDefault("map.lon", 10.9689)
	v.SetDefault("map.lat", 52.13695)
	v.SetDefault("map.zoom", 13)
	v.SetDefault("map.marker_layer", "Markers")
	v.SetDefault("map.marker_label", "")
	v.SetDefault("tiles.name", "OpenStreetMap")
	v.SetDefault("tiles.url_template", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("tiles.subdomains", []string{"a", "b", "c"})
	v.SetDefault("tiles.attribution", "© OpenStreetMap contributors")
	v.SetDefault("tiles.max_zoom", 19)
	v.SetDefault("tiles.warm_radius", 1)
	v.SetDefault("tiles.fetch_timeout", 10)
	v.SetDefault("tiles.user_agent", "mapboot-tilewarmer/1.0")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.memory_size", 1024)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mapboot")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "mapboot")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "mapboot:")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "tile-warming")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MAPBOOT_MAP_ZOOM → map.zoom
	v.SetEnvPrefix("MAPBOOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Map.Container == "" {
		errs = append(errs, "map.container is required")
	}
	if c.Map.Projection == "" {
		errs = append(errs, "map.projection is required")
	}
	if c.Map.Lon < -180 || c.Map.Lon > 180 {
		errs = append(errs, fmt.Sprintf("map.lon must be within [-180, 180], got %g", c.Map.Lon))
	}
	if c.Map.Lat < -90 || c.Map.Lat > 90 {
		errs = append(errs, fmt.Sprintf("map.lat must be within [-90, 90], got %g", c.Map.Lat))
	}
	if c.Tiles.MaxZoom < 1 || c.Tiles.MaxZoom > 22 {
		errs = append(errs, fmt.Sprintf("tiles.max_zoom must be 1-22, got %d", c.Tiles.MaxZoom))
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > c.Tiles.MaxZoom {
		errs = append(errs, fmt.Sprintf("map.zoom must be 0-%d, got %d", c.Tiles.MaxZoom, c.Map.Zoom))
	}
	if c.Tiles.URLTemplate == "" {
		errs = append(errs, "tiles.url_template is required")
	}
	if strings.Contains(c.Tiles.URLTemplate, "{s}") && len(c.Tiles.Subdomains) == 0 {
		errs = append(errs, "tiles.subdomains is required when url_template uses {s}")
	}
	switch c.Storage.Driver {
	case "memory":
		if c.Storage.MemorySize <= 0 {
			errs = append(errs, "storage.memory_size must be positive")
		}
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.driver must be memory or postgres, got %q", c.Storage.Driver))
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
