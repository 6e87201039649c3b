package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "WORLDHOST_CONFIG"

// DefaultPath is used when EnvPath is unset.
const DefaultPath = "config/server.toml"

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Network   NetworkConfig   `toml:"network"`
	Logging   LoggingConfig   `toml:"logging"`
	Data      DataConfig      `toml:"data"`
	Scene     SceneConfig     `toml:"scene"`
	Account   AccountConfig   `toml:"account"`
	Client    ClientConfig    `toml:"client"`
	Nats      NatsConfig      `toml:"nats"`
	Metrics   MetricsConfig   `toml:"metrics"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	ID        int    `toml:"id"`
	StartTime int64  // set at boot, not from config
}

type DatabaseConfig struct {
	DSN               string        `toml:"dsn"` // empty = run without a database
	MaxOpenConns      int           `toml:"max_open_conns"`
	MaxIdleConns      int           `toml:"max_idle_conns"`
	ConnMaxLifetime   time.Duration `toml:"conn_max_lifetime"`
	JournalFlushTicks int           `toml:"journal_flush_ticks"` // session journal write interval
}

type NetworkConfig struct {
	BindAddress       string        `toml:"bind_address"`      // TCP clients; empty disables
	HTTPBindAddress   string        `toml:"http_bind_address"` // websocket clients and /metrics
	TickRate          time.Duration `toml:"tick_rate"`
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	MaxPacketsPerTick int           `toml:"max_packets_per_tick"`
	WriteTimeout      time.Duration `toml:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type DataConfig struct {
	WorldLevelPath string `toml:"world_level_path"`
	ScriptDir      string `toml:"script_dir"`       // shared Lua helpers under core/
	SceneScriptDir string `toml:"scene_script_dir"` // one Lua file per scene
}

type SceneConfig struct {
	DefaultSceneID       uint32  `toml:"default_scene_id"`
	WorldLevel           int32   `toml:"world_level"`
	GroupLoadRange       float64 `toml:"group_load_range"`
	GroupUnloadRange     float64 `toml:"group_unload_range"`
	RefreshIntervalTicks int     `toml:"refresh_interval_ticks"`
	CleanupIntervalTicks int     `toml:"cleanup_interval_ticks"`
}

type AccountConfig struct {
	AutoCreate bool `toml:"auto_create"`
}

type ClientConfig struct {
	Charset string `toml:"charset"` // WHATWG label of the client string encoding
}

type NatsConfig struct {
	Enabled       bool   `toml:"enabled"`
	Embedded      bool   `toml:"embedded"` // run an in-process server
	URL           string `toml:"url"`      // used when not embedded
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	SubjectPrefix string `toml:"subject_prefix"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type RateLimitConfig struct {
	Enabled          bool `toml:"enabled"`
	PacketsPerSecond int  `toml:"packets_per_second"`
}

// Path returns the config path from the environment or the default.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Network.TickRate <= 0 {
		return fmt.Errorf("network.tick_rate must be positive")
	}
	if c.Scene.GroupLoadRange <= 0 {
		return fmt.Errorf("scene.group_load_range must be positive")
	}
	if c.Scene.GroupUnloadRange < c.Scene.GroupLoadRange {
		return fmt.Errorf("scene.group_unload_range (%v) is below group_load_range (%v)",
			c.Scene.GroupUnloadRange, c.Scene.GroupLoadRange)
	}
	if c.Network.BindAddress == "" && c.Network.HTTPBindAddress == "" {
		return fmt.Errorf("no client listener: set network.bind_address or network.http_bind_address")
	}
	return nil
}

// PacketsPerSecond returns the per-session limit, 0 when disabled.
func (c *Config) PacketsPerSecond() int {
	if !c.RateLimit.Enabled {
		return 0
	}
	return c.RateLimit.PacketsPerSecond
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "worldhost",
			ID:   1,
		},
		Database: DatabaseConfig{
			MaxOpenConns:      20,
			MaxIdleConns:      5,
			ConnMaxLifetime:   30 * time.Minute,
			JournalFlushTicks: 100,
		},
		Network: NetworkConfig{
			BindAddress:       "0.0.0.0:22102",
			HTTPBindAddress:   "0.0.0.0:8080",
			TickRate:          50 * time.Millisecond,
			InQueueSize:       128,
			OutQueueSize:      256,
			MaxPacketsPerTick: 32,
			WriteTimeout:      10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Data: DataConfig{
			WorldLevelPath: "data/yaml/world_level.yaml",
			ScriptDir:      "scripts",
			SceneScriptDir: "scripts/scene",
		},
		Scene: SceneConfig{
			DefaultSceneID:       3,
			WorldLevel:           0,
			GroupLoadRange:       250,
			GroupUnloadRange:     300,
			RefreshIntervalTicks: 10,
			CleanupIntervalTicks: 20,
		},
		Account: AccountConfig{
			AutoCreate: true,
		},
		Client: ClientConfig{
			Charset: "utf-8",
		},
		Nats: NatsConfig{
			Enabled:       false,
			Embedded:      true,
			URL:           "nats://127.0.0.1:4222",
			Host:          "127.0.0.1",
			Port:          4222,
			SubjectPrefix: "worldhost",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			PacketsPerSecond: 60,
		},
	}
}
