package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/errandly/errandly/internal/blob"
	"github.com/errandly/errandly/internal/lock"
	"github.com/errandly/errandly/internal/logging"
	"github.com/errandly/errandly/internal/payment"
	"github.com/errandly/errandly/internal/service"
)

// Duration decodes yaml values like "10s" or "24h"; bare integers are
// taken as seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var secs int64
	if err := value.Decode(&secs); err != nil {
		return fmt.Errorf("invalid duration node %q", value.Value)
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	GracefulTimeout Duration `yaml:"graceful_timeout"`
}

func (s ServerConfig) Address() string { return s.Host + ":" + strconv.FormatInt(int64(s.Port), 10) }

type DatabaseConfig struct {
	Driver         string `yaml:"driver"` // mysql | postgres
	DSN            string `yaml:"dsn"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
	MaxIdleConns   int    `yaml:"max_idle_conns"`
	ConnMaxLifeSec int    `yaml:"conn_max_lifetime"`
}

type PaymentConfig struct {
	Stripe   payment.StripeConfig `yaml:"stripe"`
	Currency string               `yaml:"currency"`
}

type SweepLockConfig struct {
	Enabled bool     `yaml:"enabled"`
	Key     string   `yaml:"key"`
	TTL     Duration `yaml:"ttl"`
}

type SweeperConfig struct {
	Interval    Duration `yaml:"interval"`
	Expiration  Duration `yaml:"expiration"`
	BatchLimit  int      `yaml:"batch_limit"`
	Parallelism int      `yaml:"parallelism"`
}

// Std converts to the sweeper's own config type.
func (s SweeperConfig) Std() service.SweeperConfig {
	return service.SweeperConfig{
		Interval:    s.Interval.Std(),
		Expiration:  s.Expiration.Std(),
		BatchLimit:  s.BatchLimit,
		Parallelism: s.Parallelism,
	}
}

type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
	Log       logging.Config   `yaml:"log"`
	Sweeper   SweeperConfig    `yaml:"sweeper"`
	SweepLock SweepLockConfig  `yaml:"sweep_lock"`
	Redis     lock.RedisConfig `yaml:"redis"`
	Payment   PaymentConfig    `yaml:"payment"`
	Blob      blob.S3Config    `yaml:"blob"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return defaultConfig(), nil // fallback to defaults if file missing
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8080, GracefulTimeout: Duration(10 * time.Second)},
		Database: DatabaseConfig{Driver: "mysql", DSN: "root:root@tcp(127.0.0.1:3306)/errandly?parseTime=true&loc=Local", MaxOpenConns: 50, MaxIdleConns: 10, ConnMaxLifeSec: 300},
		Log:      logging.Config{Level: "info", Format: "console", Output: "stdout"},
		Sweeper: SweeperConfig{
			Interval:    Duration(time.Minute),
			Expiration:  Duration(24 * time.Hour),
			BatchLimit:  500,
			Parallelism: 4,
		},
		SweepLock: SweepLockConfig{Enabled: false, Key: "errandly:sweep", TTL: Duration(time.Minute)},
		Redis:     lock.RedisConfig{Addr: "127.0.0.1:6379"},
		Payment:   PaymentConfig{Currency: "usd"},
		Blob:      blob.S3Config{Bucket: "errandly-uploads", Region: "us-east-1"},
	}
}
