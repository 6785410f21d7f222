// Package config loads the application configuration from YAML with
// environment overrides and supports hot reload of the mutable sections.
package config

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Config is the application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Ticket     TicketConfig     `mapstructure:"ticket"`
	SLA        SLAConfig        `mapstructure:"sla"`
	Escalation EscalationConfig `mapstructure:"escalation"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer"`
	JWTLifetime time.Duration `mapstructure:"jwt_lifetime"`
}

type TicketConfig struct {
	NumberGenerator string `mapstructure:"number_generator"`
	SystemID        string `mapstructure:"system_id"`
}

type SLAConfig struct {
	NearBreachWindow time.Duration `mapstructure:"near_breach_window"`
}

type EscalationConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	CalendarFile  string        `mapstructure:"calendar_file"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "godesk")
	v.SetDefault("app.env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "godesk.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("auth.jwt_issuer", "godesk")
	v.SetDefault("auth.jwt_lifetime", 12*time.Hour)
	v.SetDefault("ticket.number_generator", "Date")
	v.SetDefault("ticket.system_id", "10")
	v.SetDefault("sla.near_breach_window", 2*time.Hour)
	v.SetDefault("escalation.sweep_interval", 5*time.Minute)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads configuration from configPath (a directory holding config.yaml)
// and starts watching it for changes. Safe to call more than once; only the
// first call loads.
func Load(configPath string) error {
	var err error
	once.Do(func() {
		v := viper.New()
		v.SetConfigType("yaml")
		v.SetConfigName("config")
		v.AddConfigPath(configPath)
		setDefaults(v)

		if readErr := v.ReadInConfig(); readErr != nil {
			// Defaults plus environment are a valid configuration.
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read config: %w", readErr)
				return
			}
		}

		v.SetEnvPrefix("GODESK")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		next := &Config{}
		if err = v.Unmarshal(next); err != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}
		mu.Lock()
		cfg = next
		mu.Unlock()

		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			reloaded := &Config{}
			if err := v.Unmarshal(reloaded); err != nil {
				log.Printf("config reload failed for %s: %v", e.Name, err)
				return
			}
			mu.Lock()
			cfg = reloaded
			mu.Unlock()
			log.Printf("configuration reloaded from %s", e.Name)
		})
	})
	return err
}

// LoadFromFile loads a specific config file without watching. Used by tests
// and one-shot CLI commands.
func LoadFromFile(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	mu.Lock()
	cfg = next
	mu.Unlock()
	return nil
}

// Get returns the current configuration. Callers must not hold the pointer
// across reloads; re-read it where freshness matters.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if cfg == nil {
		return &Config{}
	}
	return cfg
}

// Set replaces the configuration. Test hook.
func Set(c *Config) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
}
