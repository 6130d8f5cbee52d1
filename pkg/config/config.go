package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Scylla   ScyllaConfig   `mapstructure:"scylla"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Push     PushConfig     `mapstructure:"push"`
	Presence PresenceConfig `mapstructure:"presence"`
	Log      LogConfig      `mapstructure:"log"`
}

type ScyllaConfig struct {
	Hosts    []string `mapstructure:"hosts"`
	Keyspace string   `mapstructure:"keyspace"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	CommandsTopic string   `mapstructure:"commands_topic"`
	ChangesTopic  string   `mapstructure:"changes_topic"`
	GroupID       string   `mapstructure:"group_id"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type GatewayConfig struct {
	Addr   string `mapstructure:"addr"`
	NodeID int64  `mapstructure:"node_id"` // snowflake node, unique per instance
}

type APIConfig struct {
	Addr string `mapstructure:"addr"`
}

type AuthConfig struct {
	Secret        string        `mapstructure:"secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
}

type BlobConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type PushConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type PresenceConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	OnlineWindow      time.Duration `mapstructure:"online_window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config.yaml (optional) and GUESTLINE_* environment overrides,
// e.g. GUESTLINE_KAFKA_BROKERS, GUESTLINE_SCYLLA_HOSTS.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("guestline")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/guestline")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine; env vars and defaults carry the
		// config. An explicitly named file must exist and parse.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scylla.hosts", []string{"localhost:9042"})
	v.SetDefault("scylla.keyspace", "guestline")
	v.SetDefault("kafka.brokers", []string{"localhost:19092"})
	v.SetDefault("kafka.commands_topic", "chat-commands")
	v.SetDefault("kafka.changes_topic", "chat-changes")
	v.SetDefault("kafka.group_id", "messaging-service-group")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("gateway.addr", ":8080")
	v.SetDefault("gateway.node_id", 1)
	v.SetDefault("api.addr", ":8081")
	v.SetDefault("auth.secret", "dev_secret_change_me")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password", "admin")
	v.SetDefault("blob.endpoint", "")
	v.SetDefault("push.endpoint", "")
	v.SetDefault("presence.heartbeat_interval", "30s")
	v.SetDefault("presence.online_window", "2m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
