// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	Auth   AuthConfig
	PubSub PubSubConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds database storage configuration.
type DataConfig struct {
	// Path is the directory holding the Badger database and the signing key.
	Path string
	// BackupInterval is how often a database snapshot is taken. Zero
	// disables periodic backups.
	BackupInterval time.Duration
	// BackupKeep is how many snapshots are retained.
	BackupKeep int
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port             string        // Server port (default: 4000)
	ReadTimeout      time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout     time.Duration // HTTP write timeout, 0 for none (default: 0)
	IdleTimeout      time.Duration // HTTP idle timeout (default: 60s)
	EnablePlayground bool          // Serve the GraphQL playground on / (default: true outside production)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// TokenKey is the PASETO v4 symmetric key for access tokens (32 bytes).
	// Loaded or generated from disk at startup, never hardcoded.
	TokenKey []byte
	// TokenDuration is the access token lifetime. Zero means tokens never
	// expire, which matches what existing clients were issued.
	TokenDuration time.Duration
	// SharedPassword is the login password accepted for every account.
	// Supplied externally; the server only ever holds a hash of it.
	SharedPassword string
}

// PubSubConfig holds event broker configuration.
type PubSubConfig struct {
	// SubscriberBuffer is the per-subscriber event queue size. A subscriber
	// that falls this far behind starts losing events.
	SubscriberBuffer int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Directory for the database and signing key")
	backupInterval := flag.String("backup-interval", "", "Database snapshot interval, 0 disables (default: 0)")
	backupKeep := flag.String("backup-keep", "", "Number of database snapshots to retain (default: 7)")
	serverPort := flag.String("port", "", "Server port (default: 4000)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout, 0 keeps websocket subscriptions open (default: 0)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	playground := flag.String("playground", "", "Serve the GraphQL playground (default: true outside production)")
	tokenDuration := flag.String("token-duration", "", "Access token lifetime, 0 for no expiry (default: 0)")
	sharedPassword := flag.String("library-password", "", "Shared login password for all accounts")
	subscriberBuffer := flag.String("subscriber-buffer", "", "Per-subscriber event queue size (default: 256)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	environment := getConfigValue(*env, "ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Environment: environment,
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			Path:       getConfigValue(*dataPath, "DATA_PATH", ""),
			BackupKeep: getIntConfigValue(*backupKeep, "BACKUP_KEEP", 7),
		},
		Server: ServerConfig{
			Port:             getConfigValue(*serverPort, "SERVER_PORT", "4000"),
			EnablePlayground: getBoolConfigValue(*playground, "ENABLE_PLAYGROUND", environment != "production"),
		},
		Auth: AuthConfig{
			SharedPassword: getConfigValue(*sharedPassword, "LIBRARY_PASSWORD", ""),
		},
		PubSub: PubSubConfig{
			SubscriberBuffer: getIntConfigValue(*subscriberBuffer, "SUBSCRIBER_BUFFER", 256),
		},
	}

	// Parse backup interval. Zero disables periodic snapshots.
	backupIntervalStr := getConfigValue(*backupInterval, "BACKUP_INTERVAL", "0")
	parsedBackupInterval, err := time.ParseDuration(backupIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid backup interval %q: %w", backupIntervalStr, err)
	}
	cfg.Data.BackupInterval = parsedBackupInterval

	// Parse token duration. Zero disables the expiry claim.
	tokenDurationStr := getConfigValue(*tokenDuration, "AUTH_TOKEN_DURATION", "0")
	parsedTokenDuration, err := time.ParseDuration(tokenDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid token duration %q: %w", tokenDurationStr, err)
	}
	cfg.Auth.TokenDuration = parsedTokenDuration

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	// Write timeout defaults to zero. A positive value would cut off
	// long-lived subscription websockets.
	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "0")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Expand and validate the data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.Path == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Auth.SharedPassword == "" {
		return errors.New("LIBRARY_PASSWORD is required")
	}

	if c.PubSub.SubscriberBuffer < 1 {
		return fmt.Errorf("subscriber buffer must be positive, got %d", c.PubSub.SubscriberBuffer)
	}

	if c.Data.BackupKeep < 1 {
		return fmt.Errorf("backup keep count must be positive, got %d", c.Data.BackupKeep)
	}

	return nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/library-server/data when unset.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "library-server", "data")

	expanded, err := expandPath(c.Data.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Data.Path = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
