package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	NATS    NATSConfig    `mapstructure:"nats"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Auction AuctionConfig `mapstructure:"auction"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Address string        `mapstructure:"address"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type JWTConfig struct {
	Secret   string        `mapstructure:"secret"`
	Duration time.Duration `mapstructure:"duration"`
}

// AuctionConfig holds the default auction timing knobs. Durations are what an
// owner gets when the request omits them.
type AuctionConfig struct {
	DefaultDuration   time.Duration `mapstructure:"default_duration"`
	DefaultExtension  time.Duration `mapstructure:"default_extension"`
	MaxChatMessageLen int           `mapstructure:"max_chat_message_len"`
}

// Load reads configuration from config.yaml (if present) with AUCTION_*
// environment variables taking precedence over file values.
func Load(path string) (*Config, error) {
	viper.SetDefault("http.port", "8080")
	viper.SetDefault("http.mode", "release")

	viper.SetDefault("mongo.uri", "")
	viper.SetDefault("mongo.database", "auction_service")
	viper.SetDefault("mongo.connect_timeout", "10s")

	viper.SetDefault("redis.address", "")
	viper.SetDefault("redis.ttl", "1h")

	viper.SetDefault("nats.url", "")

	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("jwt.duration", "24h")

	viper.SetDefault("auction.default_duration", "24h")
	viper.SetDefault("auction.default_extension", "24h")
	viper.SetDefault("auction.max_chat_message_len", 500)

	viper.SetEnvPrefix("AUCTION")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults plus env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
