package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var ErrMissingJWTSecret = errors.New("security.jwtsecret is required")

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RecordsConfig struct {
	// Backend is "file" or "postgres".
	Backend string
	DataDir string
	// SeedDir holds <collection>.json files copied into collections that
	// are still empty when the store is opened.
	SeedDir string
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	BucketSnapshots string
	UseSSL          bool
	Region          string
}

func (c StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

type SecurityConfig struct {
	JWTSecret      string
	TokenTTL       time.Duration
	SnapshotSecret string
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type JobsConfig struct {
	SnapshotSpec string
	DigestSpec   string
}

type WorkerConfig struct {
	ClaimInterval time.Duration
}

type AppConfig struct {
	Environment      string
	LogLevel         string
	HTTP             HTTPConfig
	Records          RecordsConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Admin            AdminConfig
	Jobs             JobsConfig
	Worker           WorkerConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("COURSEMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("security.jwtsecret", "COURSEMARKET_SECURITY_JWTSECRET", "SECRET_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.Security.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("security.tokenttl must be positive")
	}
	if c.Worker.ClaimInterval <= 0 {
		return fmt.Errorf("worker.claiminterval must be positive")
	}
	if c.Security.SnapshotSecret == "" {
		c.Security.SnapshotSecret = c.Security.JWTSecret
	}
	switch c.Records.Backend {
	case "file":
		if c.Records.DataDir == "" {
			return fmt.Errorf("records.datadir is required for the file backend")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown records backend %q", c.Records.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("loglevel", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("records.backend", "file")
	v.SetDefault("records.datadir", "./data")
	v.SetDefault("records.seeddir", "./data")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 10)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "records.events")
	v.SetDefault("redis.group", "coursemarket-workers")
	v.SetDefault("redis.consumer", "worker-1")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucketsnapshots", "coursemarket-snapshots")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtsecret", "")
	v.SetDefault("security.tokenttl", "1h")
	v.SetDefault("security.snapshotsecret", "")

	v.SetDefault("admin.name", "Administrator")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")

	v.SetDefault("jobs.snapshotspec", "0 0 * * * *")
	v.SetDefault("jobs.digestspec", "0 0 8 * * *")

	v.SetDefault("worker.claiminterval", "30s")

	v.SetDefault("allowcorsorigins", "")
}
