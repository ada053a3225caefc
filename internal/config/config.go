package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envRequestTimeout        = "REQUEST_TIMEOUT"
	envIdentityBaseURL       = "IDENTITY_BASE_URL"
	envIdentityTimeout       = "IDENTITY_TIMEOUT"
	envIdentityMaxIdleConns  = "IDENTITY_MAX_IDLE_CONNS"
	envRoutesFile            = "ROUTES_FILE"
	envRoutesWatch           = "ROUTES_WATCH"
	envLogLevel              = "LOG_LEVEL"
	envLogFormat             = "LOG_FORMAT"
	envLogFile               = "LOG_FILE"
	envLogMaxSizeMB          = "LOG_MAX_SIZE_MB"
	envLogMaxBackups         = "LOG_MAX_BACKUPS"
	envLogMaxAgeDays         = "LOG_MAX_AGE_DAYS"
	envRateLimitRPS          = "RATE_LIMIT_RPS"
	envRateLimitBurst        = "RATE_LIMIT_BURST"
	envAuditDatabaseURL      = "AUDIT_DATABASE_URL"
	envAuditMaxConns         = "AUDIT_MAX_CONNS"
	envMetricsEnabled        = "METRICS_ENABLED"
	envMetricsPath           = "METRICS_PATH"
	envProfilingEnabled      = "PROFILING_ENABLED"
)

const (
	defaultServerPort          = "8080"
	defaultServerReadTimeout   = 10 * time.Second
	defaultServerWriteTimeout  = 60 * time.Second
	defaultServerShutdown      = 10 * time.Second
	defaultRequestTimeout      = 30 * time.Second
	defaultIdentityTimeout     = 5 * time.Second
	defaultIdentityMaxIdle     = 32
	defaultRoutesFile          = "routes.yaml"
	defaultLogLevel            = "info"
	defaultLogFormat           = "json"
	defaultLogMaxSizeMB        = 100
	defaultLogMaxBackups       = 5
	defaultLogMaxAgeDays       = 28
	defaultRateLimitRPS        = 20.0
	defaultRateLimitBurst      = 40
	defaultAuditMaxConns       = 4
	defaultMetricsPath         = "/metrics"
	errPortRequiredFmt         = "PORT must be set"
	errTimeoutPositiveFmt      = "%s must be positive"
	errRequestTimeoutFmt       = "REQUEST_TIMEOUT must not exceed SERVER_WRITE_TIMEOUT"
	errRoutesFileRequiredFmt   = "ROUTES_FILE must be set"
	errRateLimitNegativeFmt    = "RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative"
	errRateLimitBurstFmt       = "RATE_LIMIT_BURST must be positive when RATE_LIMIT_RPS is set"
	errMetricsPathFmt          = "METRICS_PATH must start with /"
	errInvalidConfigurationFmt = "invalid configuration: %w"
)

type Config struct {
	Server    ServerConfig
	Identity  IdentityConfig
	Routes    RoutesConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Profiling ProfilingConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

type IdentityConfig struct {
	BaseURL             string
	Timeout             time.Duration
	MaxIdleConnsPerHost int
}

type RoutesConfig struct {
	File  string
	Watch bool
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// RateLimitConfig applies per account on protected routes and per client IP
// elsewhere. An RPS of zero disables limiting.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// AuditConfig enables the Postgres decision log when DatabaseURL is set.
type AuditConfig struct {
	DatabaseURL string
	MaxConns    int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// ProfilingConfig exposes pprof to ADMIN accounts when enabled.
type ProfilingConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
			RequestTimeout:  getDurationEnv(envRequestTimeout, defaultRequestTimeout),
		},
		Identity: IdentityConfig{
			BaseURL:             getEnv(envIdentityBaseURL, ""),
			Timeout:             getDurationEnv(envIdentityTimeout, defaultIdentityTimeout),
			MaxIdleConnsPerHost: getIntEnv(envIdentityMaxIdleConns, defaultIdentityMaxIdle),
		},
		Routes: RoutesConfig{
			File:  getEnv(envRoutesFile, defaultRoutesFile),
			Watch: getBoolEnv(envRoutesWatch, false),
		},
		Log: LogConfig{
			Level:      getEnv(envLogLevel, defaultLogLevel),
			Format:     getEnv(envLogFormat, defaultLogFormat),
			File:       getEnv(envLogFile, ""),
			MaxSizeMB:  getIntEnv(envLogMaxSizeMB, defaultLogMaxSizeMB),
			MaxBackups: getIntEnv(envLogMaxBackups, defaultLogMaxBackups),
			MaxAgeDays: getIntEnv(envLogMaxAgeDays, defaultLogMaxAgeDays),
		},
		RateLimit: RateLimitConfig{
			RPS:   getFloatEnv(envRateLimitRPS, defaultRateLimitRPS),
			Burst: getIntEnv(envRateLimitBurst, defaultRateLimitBurst),
		},
		Audit: AuditConfig{
			DatabaseURL: getEnv(envAuditDatabaseURL, ""),
			MaxConns:    getIntEnv(envAuditMaxConns, defaultAuditMaxConns),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv(envMetricsEnabled, true),
			Path:    getEnv(envMetricsPath, defaultMetricsPath),
		},
		Profiling: ProfilingConfig{
			Enabled: getBoolEnv(envProfilingEnabled, false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New(errPortRequiredFmt)
	}

	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{envServerReadTimeout, c.Server.ReadTimeout},
		{envServerWriteTimeout, c.Server.WriteTimeout},
		{envServerShutdownTimeout, c.Server.ShutdownTimeout},
		{envRequestTimeout, c.Server.RequestTimeout},
		{envIdentityTimeout, c.Identity.Timeout},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			return fmt.Errorf(errTimeoutPositiveFmt, t.name)
		}
	}

	if c.Server.RequestTimeout > c.Server.WriteTimeout {
		return errors.New(errRequestTimeoutFmt)
	}

	if c.Identity.BaseURL == "" {
		return errors.New(messages.requiredEnvNotSet(envIdentityBaseURL))
	}

	if c.Routes.File == "" {
		return errors.New(errRoutesFileRequiredFmt)
	}

	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New(errRateLimitNegativeFmt)
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		return errors.New(errRateLimitBurstFmt)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New(errMetricsPathFmt)
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

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

// getDurationEnv accepts Go durations ("750ms", "1m") or bare seconds.
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
