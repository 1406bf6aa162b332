package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Store   StoreConfig   `mapstructure:"store"`
	Etcd    EtcdConfig    `mapstructure:"etcd"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Kiosk   KioskConfig   `mapstructure:"kiosk"`
	Cart    CartConfig    `mapstructure:"cart"`
	Push    PushConfig    `mapstructure:"push"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Log     LogConfig     `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Tenant  string        `mapstructure:"tenant"`
	Timeout time.Duration `mapstructure:"timeout"`
	// DiscoverService, when set, resolves BaseURL through etcd.
	DiscoverService string        `mapstructure:"discover_service"`
	Breaker         BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout"`
}

type StoreConfig struct {
	Backend   string `mapstructure:"backend"` // memory, redis, mysql
	KeyPrefix string `mapstructure:"key_prefix"`
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Prefix      string        `mapstructure:"prefix"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type MongoDBConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type KioskConfig struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type CartConfig struct {
	TaxRate string `mapstructure:"tax_rate"`
}

type PushConfig struct {
	// AutoGrant is the answer the local provider gives to permission prompts:
	// granted, denied or default.
	AutoGrant string `mapstructure:"auto_grant"`
}

type BridgeConfig struct {
	Icon           string        `mapstructure:"icon"`
	Badge          string        `mapstructure:"badge"`
	DefaultURL     string        `mapstructure:"default_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.breaker.consecutive_failures", 5)
	v.SetDefault("api.breaker.open_timeout", 30*time.Second)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("etcd.dial_timeout", 5)
	v.SetDefault("etcd.prefix", "/tableorder/")
	v.SetDefault("kafka.topic", "push-relay")
	v.SetDefault("kafka.group_id", "tableorder-bridge")
	v.SetDefault("kiosk.name", "kiosk")
	v.SetDefault("kiosk.host", "0.0.0.0")
	v.SetDefault("kiosk.port", 8080)
	v.SetDefault("cart.tax_rate", "0.08")
	v.SetDefault("push.auto_grant", "granted")
	v.SetDefault("bridge.icon", "/logo192.png")
	v.SetDefault("bridge.badge", "/badge-72x72.png")
	v.SetDefault("bridge.default_url", "/")
	v.SetDefault("bridge.request_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stdout"})
}

// Load reads the YAML file at configPath. Any key can be overridden with a
// TABLEORDER_ environment variable, e.g. TABLEORDER_API_BASE_URL.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("tableorder")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" && c.API.DiscoverService == "" {
		return fmt.Errorf("api.base_url or api.discover_service must be set")
	}
	switch c.Store.Backend {
	case "memory", "redis", "mysql":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

func (c *KioskConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
