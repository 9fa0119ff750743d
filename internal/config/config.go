package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envDBHost                = "DB_HOST"
	envDBPort                = "DB_PORT"
	envDBName                = "DB_NAME"
	envDBUser                = "DB_USER"
	envDBPassword            = "DB_PASSWORD"
	envDBSSLMode             = "DB_SSL_MODE"
	envDBMaxConns            = "DB_MAX_CONNS"
	envDBMinConns            = "DB_MIN_CONNS"
	envAWSRegion             = "REGION"
	envAWSAccessKeyID        = "AWS_ACCESS_KEY_ID"
	envAWSSecretAccessKey    = "AWS_SECRET_ACCESS_KEY"
	envAssetBucket           = "ASSET_BUCKET"
	envRedisAddr             = "REDIS_ADDR"
	envRedisPassword         = "REDIS_PASSWORD"
	envRedisTopicPrefix      = "REDIS_TOPIC_PREFIX"
	envJWTSecret             = "JWT_SECRET"
	envSysadminChannels      = "SYSADMIN_MANAGES_CHANNELS"
	envMaxUploadSize         = "MAX_UPLOAD_SIZE"
	envTranscodeWorkers      = "TRANSCODE_WORKERS"
	envTranscodeTimeout      = "TRANSCODE_TIMEOUT"
	envFFmpegPath            = "FFMPEG_PATH"
	envFFprobePath           = "FFPROBE_PATH"
	envMediaWorkDir          = "MEDIA_WORK_DIR"
	envDownloadURLTimeLimit  = "DOWNLOAD_URL_TIME_LIMIT"
)

const (
	defaultServerPort         = "8080"
	defaultServerReadTimeout  = 10 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerShutdown     = 10 * time.Second
	defaultDBHost             = "localhost"
	defaultDBPort             = 5432
	defaultDBName             = "overlayservice"
	defaultDBUser             = "overlayservice_app"
	defaultDBSSLMode          = "disable"
	defaultDBMaxConns         = 25
	defaultDBMinConns         = 5
	defaultRedisTopicPrefix   = "channel."
	defaultMaxUploadSize      = int64(50 * 1024 * 1024)
	defaultTranscodeWorkers   = 2
	defaultTranscodeTimeout   = 2 * time.Minute
	defaultFFmpegPath         = "ffmpeg"
	defaultFFprobePath        = "ffprobe"
	defaultMediaWorkDir       = "/tmp/overlay-media"
	defaultPresignedURLExpiry = 15 * time.Minute
	minJWTSecretLength        = 32
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	AWS      AWSConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Media    MediaConfig
	App      AppConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MinConns int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	AssetBucket     string
}

type RedisConfig struct {
	Addr        string
	Password    string
	TopicPrefix string
}

type AuthConfig struct {
	JWTSecret string
	// SysadminManagesChannels gates whether system administrators may mutate
	// arbitrary channels in addition to their own.
	SysadminManagesChannels bool
}

type MediaConfig struct {
	MaxUploadSize    int64
	TranscodeWorkers int
	TranscodeTimeout time.Duration
	FFmpegPath       string
	FFprobePath      string
	WorkDir          string
}

type AppConfig struct {
	PresignedURLExpiry time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
		},
		Database: DatabaseConfig{
			Host:     getEnv(envDBHost, defaultDBHost),
			Port:     getIntEnv(envDBPort, defaultDBPort),
			Database: getEnv(envDBName, defaultDBName),
			User:     getEnv(envDBUser, defaultDBUser),
			Password: requireEnv(envDBPassword),
			SSLMode:  getEnv(envDBSSLMode, defaultDBSSLMode),
			MaxConns: getIntEnv(envDBMaxConns, defaultDBMaxConns),
			MinConns: getIntEnv(envDBMinConns, defaultDBMinConns),
		},
		AWS: AWSConfig{
			Region:          requireEnv(envAWSRegion),
			AccessKeyID:     requireEnv(envAWSAccessKeyID),
			SecretAccessKey: requireEnv(envAWSSecretAccessKey),
			AssetBucket:     requireEnv(envAssetBucket),
		},
		Redis: RedisConfig{
			Addr:        requireEnv(envRedisAddr),
			Password:    os.Getenv(envRedisPassword),
			TopicPrefix: getEnv(envRedisTopicPrefix, defaultRedisTopicPrefix),
		},
		Auth: AuthConfig{
			JWTSecret:               requireEnv(envJWTSecret),
			SysadminManagesChannels: getBoolEnv(envSysadminChannels, false),
		},
		Media: MediaConfig{
			MaxUploadSize:    getInt64Env(envMaxUploadSize, defaultMaxUploadSize),
			TranscodeWorkers: getIntEnv(envTranscodeWorkers, defaultTranscodeWorkers),
			TranscodeTimeout: getDurationEnv(envTranscodeTimeout, defaultTranscodeTimeout),
			FFmpegPath:       getEnv(envFFmpegPath, defaultFFmpegPath),
			FFprobePath:      getEnv(envFFprobePath, defaultFFprobePath),
			WorkDir:          getEnv(envMediaWorkDir, defaultMediaWorkDir),
		},
		App: AppConfig{
			PresignedURLExpiry: getDurationEnv(envDownloadURLTimeLimit, defaultPresignedURLExpiry),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT must be set")
	}

	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD must be set")
	}

	if c.AWS.Region == "" {
		return fmt.Errorf("REGION must be set")
	}

	if c.AWS.AssetBucket == "" {
		return fmt.Errorf("ASSET_BUCKET must be set")
	}

	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}

	if c.Media.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	if c.Media.TranscodeWorkers <= 0 {
		return fmt.Errorf("TRANSCODE_WORKERS must be positive")
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(messages.requiredEnvNotSet(key))
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}
