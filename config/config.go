package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/opd-ai/streamcore/limits"
	"github.com/sirupsen/logrus"
)

// Validation constants for configuration bounds checking.
const (
	// MinTimeoutMillis is the smallest non-zero timeout accepted from the environment
	MinTimeoutMillis = 10
	// MaxTimeoutMillis is the largest timeout accepted from the environment (10 minutes)
	MaxTimeoutMillis = 600000
	// MaxIPCPermissions is the largest file mode accepted for IPC sockets
	MaxIPCPermissions = 0o777
)

// Config holds the defaults applied to newly allocated dialers and listeners.
type Config struct {
	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
	NoDelay          bool
	KeepAlive        bool
	RecvMaxSize      int
	IPCPermissions   int32
}

// New returns the built-in defaults without consulting the environment.
//
// Default Value Rationale:
//   - DialTimeout: 0 - Connection attempts are bounded by the operation's own timeout
//   - HandshakeTimeout: 10s - Stops a silent peer from pinning an accepted connection
//   - NoDelay: true - Messaging traffic is latency sensitive
//   - KeepAlive: false - Matches the operating system default
//   - RecvMaxSize: 1MB - Bounds memory used by a single WebSocket message
//   - IPCPermissions: 0 - Leave socket file modes to the process umask
func New() *Config {
	return &Config{
		DialTimeout:      0,
		HandshakeTimeout: 10 * time.Second,
		NoDelay:          true,
		KeepAlive:        false,
		RecvMaxSize:      limits.DefaultRecvMax,
		IPCPermissions:   0,
	}
}

// Load returns the built-in defaults with environment overrides applied.
func Load() *Config {
	cfg := New()
	applyEnvironmentOverrides(cfg)
	logConfigurationInfo(cfg)
	return cfg
}

var (
	defaultsOnce sync.Once
	defaults     Config
)

// Defaults returns the process-wide defaults. The environment is read
// once, on first use.
func Defaults() Config {
	defaultsOnce.Do(func() {
		defaults = *Load()
	})
	return defaults
}

// applyEnvironmentOverrides updates configuration based on environment variables.
func applyEnvironmentOverrides(cfg *Config) {
	parseMillis("STREAMCORE_DIAL_TIMEOUT_MS", &cfg.DialTimeout)
	parseMillis("STREAMCORE_HANDSHAKE_TIMEOUT_MS", &cfg.HandshakeTimeout)
	parseBool("STREAMCORE_TCP_NODELAY", &cfg.NoDelay)
	parseBool("STREAMCORE_TCP_KEEPALIVE", &cfg.KeepAlive)
	parseRecvMax(cfg)
	parsePermissions(cfg)
}

// parseMillis reads a millisecond timeout. Zero disables the timeout;
// other values must fall in [MinTimeoutMillis, MaxTimeoutMillis].
func parseMillis(envVar string, target *time.Duration) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseMillis",
			"env_var":     envVar,
			"value":       raw,
			"error":       err.Error(),
			"using_value": *target,
		}).Warn("Failed to parse timeout environment variable, using default")
		return
	}
	if ms != 0 && (ms < MinTimeoutMillis || ms > MaxTimeoutMillis) {
		logrus.WithFields(logrus.Fields{
			"function":    "parseMillis",
			"env_var":     envVar,
			"value":       ms,
			"min":         MinTimeoutMillis,
			"max":         MaxTimeoutMillis,
			"using_value": *target,
		}).Warn("Timeout environment variable out of bounds, using default")
		return
	}
	*target = time.Duration(ms) * time.Millisecond
}

// parseBool reads a boolean flag and only updates target if parsing succeeds.
func parseBool(envVar string, target *bool) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseBool",
			"env_var":     envVar,
			"value":       raw,
			"error":       err.Error(),
			"using_value": *target,
		}).Warn("Failed to parse boolean environment variable, using default")
		return
	}
	*target = v
}

// parseRecvMax updates RecvMaxSize from STREAMCORE_RECV_MAX.
func parseRecvMax(cfg *Config) {
	raw := os.Getenv("STREAMCORE_RECV_MAX")
	if raw == "" {
		return
	}
	n, err := strconv.Atoi(raw)
	if err == nil {
		err = limits.ValidateRecvSize(n)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseRecvMax",
			"env_var":     "STREAMCORE_RECV_MAX",
			"value":       raw,
			"error":       err.Error(),
			"using_value": cfg.RecvMaxSize,
		}).Warn("Invalid STREAMCORE_RECV_MAX environment variable, using default")
		return
	}
	cfg.RecvMaxSize = n
}

// parsePermissions updates IPCPermissions from the octal STREAMCORE_IPC_PERMISSIONS.
func parsePermissions(cfg *Config) {
	raw := os.Getenv("STREAMCORE_IPC_PERMISSIONS")
	if raw == "" {
		return
	}
	mode, err := strconv.ParseInt(raw, 8, 32)
	if err != nil || mode < 0 || mode > MaxIPCPermissions {
		fields := logrus.Fields{
			"function":    "parsePermissions",
			"env_var":     "STREAMCORE_IPC_PERMISSIONS",
			"value":       raw,
			"using_value": cfg.IPCPermissions,
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		logrus.WithFields(fields).Warn("Invalid STREAMCORE_IPC_PERMISSIONS environment variable, using default")
		return
	}
	cfg.IPCPermissions = int32(mode)
}

// logConfigurationInfo logs the final configuration settings for debugging purposes.
func logConfigurationInfo(cfg *Config) {
	logrus.WithFields(logrus.Fields{
		"function":          "Load",
		"dial_timeout":      cfg.DialTimeout,
		"handshake_timeout": cfg.HandshakeTimeout,
		"tcp_nodelay":       cfg.NoDelay,
		"tcp_keepalive":     cfg.KeepAlive,
		"recv_max":          cfg.RecvMaxSize,
		"ipc_permissions":   strconv.FormatInt(int64(cfg.IPCPermissions), 8),
	}).Debug("Loaded stream configuration")
}
