package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port                 int           `yaml:"port" default:"3100"`
		ReadTimeout          time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout         time.Duration `yaml:"write_timeout" default:"40s"`
		ShutdownTimeout      time.Duration `yaml:"shutdown_timeout" default:"30s"`
		SlowRequestThreshold time.Duration `yaml:"slow_request_threshold" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Worker WorkerConfig `yaml:"worker"`
	Cache  struct {
		Type          string `yaml:"type" default:"none"` // none, memory, redis, layered
		MemoryMaxSize int    `yaml:"memory_max_size" default:"1000"`
		TTL           struct {
			Signal   time.Duration `yaml:"signal" default:"1m"`
			OHLC     time.Duration `yaml:"ohlc" default:"5m"`
			Backtest time.Duration `yaml:"backtest" default:"5m"`
		} `yaml:"ttl"`
		Redis struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"stocksignal"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Events struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"stocksignal.invocations"`
		Compression  string        `yaml:"compression" default:"snappy"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		Async        bool          `yaml:"async"`
	} `yaml:"events"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled"`
		Capacity     float64 `yaml:"capacity" default:"20"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"2"`
	} `yaml:"rate_limit"`
	Client ClientConfig `yaml:"client"`
}

// WorkerConfig describes how worker processes are launched.
type WorkerConfig struct {
	// Python overrides the interpreter path; PYTHON_PATH takes precedence.
	Python        string `yaml:"python"`
	RootDir       string `yaml:"root_dir" default:"."`
	MaxConcurrent int64  `yaml:"max_concurrent"`
	Deadlines     struct {
		Signal   time.Duration `yaml:"signal" default:"15s"`
		OHLC     time.Duration `yaml:"ohlc" default:"20s"`
		Backtest time.Duration `yaml:"backtest" default:"25s"`
	} `yaml:"deadlines"`
	// Programs replaces the built-in program text per kind (signal, ohlc, backtest).
	Programs map[string]string `yaml:"programs"`
}

// ClientConfig is read by the terminal client.
type ClientConfig struct {
	APIBase       string        `yaml:"api_base" default:"http://localhost:3100"`
	Timeout       time.Duration `yaml:"timeout" default:"30s"`
	Debounce      time.Duration `yaml:"debounce" default:"500ms"`
	RetryAttempts int           `yaml:"retry_attempts" default:"1"`
}

// Default returns a config populated only from struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads .env (if present), then the YAML file (defaults only when
// path is empty or missing), then overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	var c *Config
	if path == "" {
		c = Default()
	} else if _, err := os.Stat(path); os.IsNotExist(err) {
		c = Default()
	} else {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		c = loaded
	}

	if v := os.Getenv("PYTHON_PATH"); v != "" {
		c.Worker.Python = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("API_BASE"); v != "" {
		c.Client.APIBase = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Host = host
		if ok {
			p, err := strconv.Atoi(port)
			if err != nil {
				return nil, fmt.Errorf("REDIS_ADDR: %w", err)
			}
			c.Cache.Redis.Port = p
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Cache.Type {
	case "none", "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.type must be one of none, memory, redis, layered, got '%s'", c.Cache.Type)
	}
	if c.Worker.Deadlines.Signal <= 0 || c.Worker.Deadlines.OHLC <= 0 || c.Worker.Deadlines.Backtest <= 0 {
		return fmt.Errorf("worker.deadlines must be positive")
	}
	if c.Worker.MaxConcurrent < 0 {
		return fmt.Errorf("worker.max_concurrent cannot be negative")
	}
	for kind := range c.Worker.Programs {
		switch kind {
		case "signal", "ohlc", "backtest":
		default:
			return fmt.Errorf("worker.programs: unknown kind '%s'", kind)
		}
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers required when events are enabled")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity < 1 || c.RateLimit.RefillPerSec <= 0) {
		return fmt.Errorf("rate_limit needs capacity >= 1 and refill_per_sec > 0")
	}
	return nil
}
