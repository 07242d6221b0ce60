package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	BiddingServer ServerConfig       `mapstructure:"bidding_server"`
	Redis         RedisConfig        `mapstructure:"redis"`
	MySQL         MySQLConfig        `mapstructure:"mysql"`
	Leader        LeaderConfig       `mapstructure:"leader"`
	Instance      InstanceConfig     `mapstructure:"instance"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Scheduler     SchedulerConfig    `mapstructure:"scheduler"`
	Verification  VerificationConfig `mapstructure:"verification"`
	Log           LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
	Key string        `mapstructure:"key"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type SchedulerConfig struct {
	Spec string `mapstructure:"spec"`
}

type VerificationConfig struct {
	OTPTTL time.Duration `mapstructure:"otp_ttl"`
	// Store is "redis" or "memory".
	Store     string `mapstructure:"store"`
	CacheSize int    `mapstructure:"cache_size"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("bidding_server.port", 8081)
	v.SetDefault("bidding_server.host", "0.0.0.0")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "auction_events")
	v.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true&loc=UTC&multiStatements=true")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("mysql.auto_migrate", true)
	v.SetDefault("leader.ttl", 30*time.Second)
	v.SetDefault("leader.key", "auction_leader")
	v.SetDefault("instance.id", "auction-service-1")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("scheduler.spec", "@every 10s")
	v.SetDefault("verification.otp_ttl", 5*time.Minute)
	v.SetDefault("verification.store", "redis")
	v.SetDefault("verification.cache_size", 10*1024*1024)
	v.SetDefault("log.level", "info")
}

func bindEnv(v *viper.Viper) {
	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.host", "SERVER_HOST")
	_ = v.BindEnv("bidding_server.port", "BIDDING_SERVER_PORT")
	_ = v.BindEnv("bidding_server.host", "BIDDING_SERVER_HOST")
	_ = v.BindEnv("redis.address", "REDIS_ADDRESS")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("redis.channel", "REDIS_CHANNEL")
	_ = v.BindEnv("mysql.dsn", "MYSQL_DSN")
	_ = v.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	_ = v.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	_ = v.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	_ = v.BindEnv("mysql.auto_migrate", "MYSQL_AUTO_MIGRATE")
	_ = v.BindEnv("leader.ttl", "LEADER_TTL")
	_ = v.BindEnv("leader.key", "LEADER_KEY")
	_ = v.BindEnv("instance.id", "INSTANCE_ID")
	_ = v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET")
	_ = v.BindEnv("auth.token_ttl", "AUTH_TOKEN_TTL")
	_ = v.BindEnv("scheduler.spec", "SCHEDULER_SPEC")
	_ = v.BindEnv("verification.otp_ttl", "VERIFICATION_OTP_TTL")
	_ = v.BindEnv("verification.store", "VERIFICATION_STORE")
	_ = v.BindEnv("verification.cache_size", "VERIFICATION_CACHE_SIZE")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/auction-marketplace/")

	bindEnv(v)

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Verification.Store {
	case "redis", "memory":
	default:
		return fmt.Errorf("verification.store must be redis or memory, got %q", c.Verification.Store)
	}
	if c.Verification.OTPTTL <= 0 {
		return fmt.Errorf("verification.otp_ttl must be positive")
	}
	if c.Leader.TTL < 3*time.Second {
		return fmt.Errorf("leader.ttl must be at least 3s, got %s", c.Leader.TTL)
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Bidding: %s:%d, Redis: %s, Instance: %s, Scheduler: %s, OTP store: %s",
		c.Server.Host,
		c.Server.Port,
		c.BiddingServer.Host,
		c.BiddingServer.Port,
		c.Redis.Address,
		c.Instance.ID,
		c.Scheduler.Spec,
		c.Verification.Store,
	)
}
