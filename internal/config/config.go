package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Fanout   FanoutConfig   `yaml:"fanout"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

// FanoutConfig tunes the copy-trade propagation engine.
type FanoutConfig struct {
	// Concurrency bounds the number of subscribers evaluated in parallel.
	Concurrency int `yaml:"concurrency"`
	// SubscriberTimeout caps one subscriber's evaluation and writes so a
	// stuck I/O call cannot stall the whole fan-out.
	SubscriberTimeout time.Duration `yaml:"subscriber_timeout"`
	// SkipNegativeValue skips trades with a negative USD value instead of
	// propagating the sign through the sizing formulas.
	SkipNegativeValue bool `yaml:"skip_negative_value"`
}

// UnmarshalYAML accepts Go duration strings ("3s", "500ms") for
// subscriber_timeout.
func (f *FanoutConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Concurrency       int    `yaml:"concurrency"`
		SubscriberTimeout string `yaml:"subscriber_timeout"`
		SkipNegativeValue bool   `yaml:"skip_negative_value"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	f.Concurrency = raw.Concurrency
	f.SkipNegativeValue = raw.SkipNegativeValue
	if raw.SubscriberTimeout != "" {
		d, err := time.ParseDuration(raw.SubscriberTimeout)
		if err != nil {
			return fmt.Errorf("fanout.subscriber_timeout: %w", err)
		}
		f.SubscriberTimeout = d
	}
	return nil
}

// Load loads configuration from file and environment variables
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Override with environment variables if present
	cfg.loadFromEnv()
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SERVER_MODE"); v != "" {
		c.Server.Mode = v
	}

	// Database
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.DBName = v
	}

	// Redis
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	// JWT
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("JWT_EXPIRE_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.JWT.ExpireHours = hours
		}
	}

	// Fanout
	if v := os.Getenv("FANOUT_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Fanout.Concurrency = n
		}
	}
	if v := os.Getenv("FANOUT_SUBSCRIBER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Fanout.SubscriberTimeout = d
		}
	}
	if v := os.Getenv("FANOUT_SKIP_NEGATIVE_VALUE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Fanout.SkipNegativeValue = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Fanout.Concurrency <= 0 {
		c.Fanout.Concurrency = 8
	}
	if c.Fanout.SubscriberTimeout <= 0 {
		c.Fanout.SubscriberTimeout = 10 * time.Second
	}
	if c.JWT.ExpireHours <= 0 {
		c.JWT.ExpireHours = 24
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}
