package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMongo    = "mongo"

	VideoStoreLocal = "local"
	VideoStoreS3    = "s3"
)

// Config is resolved from defaults, then an optional YAML file (CONFIG_FILE),
// then environment variables. A .env file in the working directory is loaded first.
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	StoreDriver      string `yaml:"store_driver"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`
	SQLitePath       string `yaml:"sqlite_path"`
	MongoURI         string `yaml:"mongo_uri"`
	MongoDBName      string `yaml:"mongo_db_name"`

	// empty disables the lifecycle pub/sub flow
	RedisAddr string `yaml:"redis_addr"`

	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	HeartbeatTimeout  time.Duration `yaml:"heartbeat_timeout"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`

	VideoStore string `yaml:"video_store"`
	VideoDir   string `yaml:"video_dir"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`

	RecordingTempDir       string        `yaml:"recording_temp_dir"`
	RecordingSweepSchedule string        `yaml:"recording_sweep_schedule"`
	RecordingMaxIdle       time.Duration `yaml:"recording_max_idle"`
	MaxChunkBytes          int64         `yaml:"max_chunk_bytes"`
}

func defaults() *Config {
	return &Config{
		Port:                   "5000",
		LogLevel:               "info",
		StoreDriver:            StoreDriverPostgres,
		PostgresHost:           "localhost",
		PostgresPort:           "5432",
		PostgresUser:           "postgres",
		PostgresDB:             "proctoring",
		PostgresSSLMode:        "disable",
		SQLitePath:             "proctoring.db",
		MongoDBName:            "proctoring",
		JWTSecret:              "dev-secret-change-me",
		TokenTTL:               12 * time.Hour,
		HeartbeatInterval:      25 * time.Second,
		HeartbeatTimeout:       60 * time.Second,
		AllowedOrigins:         []string{"*"},
		VideoStore:             VideoStoreLocal,
		VideoDir:               "videos",
		S3Prefix:               "recordings/",
		AWSRegion:              "us-east-1",
		RecordingTempDir:       os.TempDir(),
		RecordingSweepSchedule: "@every 5m",
		RecordingMaxIdle:       10 * time.Minute,
		MaxChunkBytes:          50 << 20,
	}
}

// loads configuration from .env, CONFIG_FILE and environment variables
func LoadConfig() (*Config, error) {
	// missing .env is fine
	_ = godotenv.Load()

	config := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, config); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func loadYAML(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config) error {
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.StoreDriver = strings.ToLower(getEnvOrDefault("STORE_DRIVER", c.StoreDriver))
	c.PostgresHost = getEnvOrDefault("POSTGRES_HOST", c.PostgresHost)
	c.PostgresPort = getEnvOrDefault("POSTGRES_PORT", c.PostgresPort)
	c.PostgresUser = getEnvOrDefault("POSTGRES_USER", c.PostgresUser)
	c.PostgresPassword = getEnvOrDefault("POSTGRES_PASSWORD", c.PostgresPassword)
	c.PostgresDB = getEnvOrDefault("POSTGRES_DB", c.PostgresDB)
	c.PostgresSSLMode = getEnvOrDefault("POSTGRES_SSLMODE", c.PostgresSSLMode)
	c.SQLitePath = getEnvOrDefault("SQLITE_PATH", c.SQLitePath)
	c.MongoURI = getEnvOrDefault("MONGO_URI", c.MongoURI)
	c.MongoDBName = getEnvOrDefault("MONGO_DB_NAME", c.MongoDBName)
	c.RedisAddr = getEnvOrDefault("REDIS_ADDR", c.RedisAddr)
	c.JWTSecret = getEnvOrDefault("JWT_SECRET", c.JWTSecret)
	c.VideoStore = strings.ToLower(getEnvOrDefault("VIDEO_STORE", c.VideoStore))
	c.VideoDir = getEnvOrDefault("VIDEO_DIR", c.VideoDir)
	c.S3Bucket = getEnvOrDefault("S3_BUCKET", c.S3Bucket)
	c.S3Prefix = getEnvOrDefault("S3_PREFIX", c.S3Prefix)
	c.AWSRegion = getEnvOrDefault("AWS_REGION", c.AWSRegion)
	c.RecordingTempDir = getEnvOrDefault("RECORDING_TEMP_DIR", c.RecordingTempDir)
	c.RecordingSweepSchedule = getEnvOrDefault("RECORDING_SWEEP_SCHEDULE", c.RecordingSweepSchedule)

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	var err error
	if c.TokenTTL, err = getDurationOrDefault("TOKEN_TTL", c.TokenTTL); err != nil {
		return err
	}
	if c.HeartbeatInterval, err = getDurationOrDefault("HEARTBEAT_INTERVAL", c.HeartbeatInterval); err != nil {
		return err
	}
	if c.HeartbeatTimeout, err = getDurationOrDefault("HEARTBEAT_TIMEOUT", c.HeartbeatTimeout); err != nil {
		return err
	}
	if c.RecordingMaxIdle, err = getDurationOrDefault("RECORDING_MAX_IDLE", c.RecordingMaxIdle); err != nil {
		return err
	}
	if v := os.Getenv("MAX_CHUNK_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_CHUNK_BYTES: %w", err)
		}
		c.MaxChunkBytes = n
	}
	return nil
}

func validateConfig(config *Config) error {
	switch config.StoreDriver {
	case StoreDriverPostgres, StoreDriverSQLite:
	case StoreDriverMongo:
		if config.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return errors.New("unsupported store driver: " + config.StoreDriver + ". Supported: postgres, sqlite, mongo")
	}
	switch config.VideoStore {
	case VideoStoreLocal:
	case VideoStoreS3:
		if config.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when VIDEO_STORE=s3")
		}
	default:
		return errors.New("unsupported video store: " + config.VideoStore + ". Supported: local, s3")
	}
	if config.HeartbeatInterval <= 0 || config.HeartbeatTimeout <= 0 {
		return errors.New("heartbeat interval and timeout must be positive")
	}
	if config.HeartbeatTimeout <= config.HeartbeatInterval {
		return errors.New("heartbeat timeout must exceed the interval")
	}
	if config.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if config.MaxChunkBytes <= 0 {
		return errors.New("MAX_CHUNK_BYTES must be positive")
	}
	if config.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	return nil
}

// PostgresDSN renders the gorm postgres DSN.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
