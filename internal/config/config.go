package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPort                = "PORT"
	envReadTimeout         = "SERVER_READ_TIMEOUT"
	envWriteTimeout        = "SERVER_WRITE_TIMEOUT"
	envShutdownTimeout     = "SERVER_SHUTDOWN_TIMEOUT"
	envStoreDriver         = "STORE_DRIVER"
	envAWSRegion           = "REGION"
	envAWSAccessKeyID      = "AWS_ACCESS_KEY_ID"
	envAWSSecretAccessKey  = "AWS_SECRET_ACCESS_KEY"
	envBucketName          = "BUCKET_NAME"
	envObjectTable         = "OBJECT_TABLE"
	envJWTSecret           = "JWT_SECRET"
	envAdminRoles          = "ADMIN_ROLES"
	envDownloadSyncTimeout = "DOWNLOAD_SYNC_TIMEOUT"
	envDownloadJobTTL      = "DOWNLOAD_JOB_TTL"
	envCleanupWorkers      = "CLEANUP_WORKERS"
	envCleanupQueueSize    = "CLEANUP_QUEUE_SIZE"
	envArchiveWorkers      = "ARCHIVE_WORKERS"
)

const (
	// Store drivers.
	DriverAWS    = "aws"
	DriverMemory = "memory"

	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultObjectTable     = "resource-objects"
	defaultAdminRoles      = "resource_admin"

	// Bound on how long a download caller waits synchronously before the
	// reply degrades to accepted+token.
	defaultDownloadSyncTimeout = 20 * time.Second
	defaultDownloadJobTTL      = 15 * time.Minute

	defaultCleanupWorkers   = 4
	defaultCleanupQueueSize = 256
	defaultArchiveWorkers   = 4
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Auth     AuthConfig
	Download DownloadConfig
	Workers  WorkerConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Driver          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	ObjectTable     string
}

type AuthConfig struct {
	JWTSecret  string
	AdminRoles []string
}

type DownloadConfig struct {
	SyncTimeout time.Duration
	JobTTL      time.Duration
}

type WorkerConfig struct {
	CleanupWorkers   int
	CleanupQueueSize int
	ArchiveWorkers   int
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultPort),
			ReadTimeout:     getDurationEnv(envReadTimeout, defaultReadTimeout),
			WriteTimeout:    getDurationEnv(envWriteTimeout, defaultWriteTimeout),
			ShutdownTimeout: getDurationEnv(envShutdownTimeout, defaultShutdownTimeout),
		},
		Store: StoreConfig{
			Driver:          getEnv(envStoreDriver, DriverAWS),
			Region:          os.Getenv(envAWSRegion),
			AccessKeyID:     os.Getenv(envAWSAccessKeyID),
			SecretAccessKey: os.Getenv(envAWSSecretAccessKey),
			Bucket:          os.Getenv(envBucketName),
			ObjectTable:     getEnv(envObjectTable, defaultObjectTable),
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv(envJWTSecret),
			AdminRoles: splitList(getEnv(envAdminRoles, defaultAdminRoles)),
		},
		Download: DownloadConfig{
			SyncTimeout: getDurationEnv(envDownloadSyncTimeout, defaultDownloadSyncTimeout),
			JobTTL:      getDurationEnv(envDownloadJobTTL, defaultDownloadJobTTL),
		},
		Workers: WorkerConfig{
			CleanupWorkers:   getIntEnv(envCleanupWorkers, defaultCleanupWorkers),
			CleanupQueueSize: getIntEnv(envCleanupQueueSize, defaultCleanupQueueSize),
			ArchiveWorkers:   getIntEnv(envArchiveWorkers, defaultArchiveWorkers),
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
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	switch c.Store.Driver {
	case DriverMemory:
		return nil
	case DriverAWS:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", DriverAWS, DriverMemory)
	}

	if c.Store.Region == "" {
		return fmt.Errorf("REGION must be set")
	}
	if c.Store.AccessKeyID == "" {
		return fmt.Errorf("AWS_ACCESS_KEY_ID must be set")
	}
	if c.Store.SecretAccessKey == "" {
		return fmt.Errorf("AWS_SECRET_ACCESS_KEY must be set")
	}
	if c.Store.Bucket == "" {
		return fmt.Errorf("BUCKET_NAME must be set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
