package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		BodyLimit       string        `yaml:"body_limit"`
		CORS            struct {
			Enabled      bool     `yaml:"enabled"`
			AllowOrigins []string `yaml:"allow_origins"`
		} `yaml:"cors"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		// Ship aggregated error logs to the events topic.
		Collect bool `yaml:"collect"`
	} `yaml:"log"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled"`
		Path          string        `yaml:"path"`
		SlowThreshold time.Duration `yaml:"slow_threshold"`
	} `yaml:"metrics"`
	LLM struct {
		APIKey          string        `yaml:"api_key"`
		Model           string        `yaml:"model"`
		BaseURL         string        `yaml:"base_url"`
		Transport       string        `yaml:"transport"`
		Timeout         time.Duration `yaml:"timeout"`
		Temperature     float64       `yaml:"temperature"`
		TopP            float64       `yaml:"top_p"`
		TopK            int           `yaml:"top_k"`
		MaxOutputTokens int           `yaml:"max_output_tokens"`
		Retry           struct {
			Attempts int           `yaml:"attempts"`
			Backoff  time.Duration `yaml:"backoff"`
		} `yaml:"retry"`
	} `yaml:"llm"`
	Upload struct {
		MaxFiles          int      `yaml:"max_files"`
		MaxFileBytes      int64    `yaml:"max_file_bytes"`
		AllowedExtensions []string `yaml:"allowed_extensions"`
	} `yaml:"upload"`
	Session struct {
		Backend    string        `yaml:"backend"`
		TTL        time.Duration `yaml:"ttl"`
		MemorySize int           `yaml:"memory_size"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"session"`
	Events struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"events"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled"`
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"ratelimit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Session.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.5-flash-preview-09-2025"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.LLM.Transport == "" {
		c.LLM.Transport = "rest"
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 120 * time.Second
	}
	if c.LLM.Retry.Attempts == 0 {
		c.LLM.Retry.Attempts = 3
	}
	if c.LLM.Retry.Backoff == 0 {
		c.LLM.Retry.Backoff = time.Second
	}
	if c.Upload.MaxFiles == 0 {
		c.Upload.MaxFiles = 10
	}
	if c.Upload.MaxFileBytes == 0 {
		c.Upload.MaxFileBytes = 10 << 20
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = []string{".md", ".txt", ".docx"}
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "memory"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = time.Hour
	}
	if c.Session.MemorySize == 0 {
		c.Session.MemorySize = 1000
	}
	if c.Session.Redis.Prefix == "" {
		c.Session.Redis.Prefix = "ganttgen"
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "ganttgen.events"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if c.LLM.Transport != "rest" && c.LLM.Transport != "sdk" {
		return fmt.Errorf("llm.transport must be 'rest' or 'sdk', got '%s'", c.LLM.Transport)
	}
	if c.LLM.Retry.Attempts < 1 {
		return fmt.Errorf("llm.retry.attempts must be at least 1")
	}
	switch c.Session.Backend {
	case "memory":
	case "redis", "layered":
		if _, _, err := net.SplitHostPort(c.Session.Redis.Addr); err != nil {
			return fmt.Errorf("session.redis.addr must be host:port: %w", err)
		}
	default:
		return fmt.Errorf("session.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Session.Backend)
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers cannot be empty when events are enabled")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity < 1 || c.RateLimit.RefillPerSec <= 0) {
		return fmt.Errorf("ratelimit.capacity must be >= 1 and refill_per_sec > 0")
	}
	return nil
}

// RedisHostPort splits session.redis.addr for the cache client.
func (c *Config) RedisHostPort() (string, int, error) {
	host, p, err := net.SplitHostPort(c.Session.Redis.Addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("redis port %q: %w", p, err)
	}
	return host, port, nil
}
