package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Host     string `yaml:"host"`
	TCPPort  int    `yaml:"tcp_port"`
	HTTPPort int    `yaml:"http_port"`

	Log      LogConfig      `yaml:"log"`
	Mongo    MongoConfig    `yaml:"mongodb"`
	Redis    RedisConfig    `yaml:"redis"`
	NATS     NATSConfig     `yaml:"nats"`
	Auth     AuthConfig     `yaml:"auth"`
	Protocol ProtocolConfig `yaml:"protocol"`

	// AlarmCatalog is a YAML or TOML file; empty loads the catalog from MongoDB.
	AlarmCatalog string `yaml:"alarm_catalog"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	StateTTL time.Duration `yaml:"state_ttl"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	APIKey    string        `yaml:"api_key"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type ProtocolConfig struct {
	VerifyChecksum   bool `yaml:"verify_checksum"`
	IgnitionOnAlarm  int  `yaml:"ignition_on_alarm"`
	IgnitionOffAlarm int  `yaml:"ignition_off_alarm"`
}

func defaults() *Config {
	return &Config{
		Host:     "0.0.0.0",
		TCPPort:  5023,
		HTTPPort: 8000,
		Log:      LogConfig{Level: "info", Format: "json"},
		Mongo:    MongoConfig{Database: "tracking"},
		Redis:    RedisConfig{StateTTL: 24 * time.Hour},
		NATS:     NATSConfig{SubjectPrefix: "telematics"},
		Auth:     AuthConfig{TokenTTL: 15 * time.Minute},
		Protocol: ProtocolConfig{
			VerifyChecksum:   false,
			IgnitionOnAlarm:  0xFE,
			IgnitionOffAlarm: 0xFF,
		},
	}
}

// LoadConfig reads the file named by CONFIG_FILE, if any, then applies
// environment overrides.
func LoadConfig() (*Config, error) {
	return Load(getEnv("CONFIG_FILE", ""))
}

// Load builds the configuration from defaults, the optional YAML file at path
// and the environment, in that order.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error

	c.Host = getEnv("HOST", c.Host)
	if c.TCPPort, err = getEnvInt("TCP_PORT", c.TCPPort); err != nil {
		return err
	}
	if c.HTTPPort, err = getEnvInt("HTTP_PORT", c.HTTPPort); err != nil {
		return err
	}

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Mongo.URI = getEnv("MONGODB_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGODB_DATABASE", c.Mongo.Database)

	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	if c.Redis.StateTTL, err = getEnvDuration("STATE_CACHE_TTL", c.Redis.StateTTL); err != nil {
		return err
	}

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.APIKey = getEnv("API_KEY", c.Auth.APIKey)
	if c.Auth.TokenTTL, err = getEnvDuration("TOKEN_TTL", c.Auth.TokenTTL); err != nil {
		return err
	}

	if c.Protocol.VerifyChecksum, err = getEnvBool("GT06_VERIFY_CHECKSUM", c.Protocol.VerifyChecksum); err != nil {
		return err
	}
	if c.Protocol.IgnitionOnAlarm, err = getEnvInt("IGNITION_ON_ALARM", c.Protocol.IgnitionOnAlarm); err != nil {
		return err
	}
	if c.Protocol.IgnitionOffAlarm, err = getEnvInt("IGNITION_OFF_ALARM", c.Protocol.IgnitionOffAlarm); err != nil {
		return err
	}

	c.AlarmCatalog = getEnv("ALARM_CATALOG", c.AlarmCatalog)
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.TCPPort <= 0 || c.TCPPort > 65535 {
		return fmt.Errorf("invalid tcp port %d", c.TCPPort)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTPPort)
	}
	if c.Protocol.IgnitionOnAlarm == c.Protocol.IgnitionOffAlarm {
		return fmt.Errorf("ignition on and off alarms must differ, both are %d", c.Protocol.IgnitionOnAlarm)
	}
	if c.Protocol.IgnitionOnAlarm == 0 || c.Protocol.IgnitionOffAlarm == 0 {
		return fmt.Errorf("ignition alarms must not be 0")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}

func (c *Config) TCPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.TCPPort)
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

// getEnvInt accepts decimal or 0x-prefixed values.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(value, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return int(v), nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
