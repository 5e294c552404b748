// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
	Security   SecurityConfig   `json:"security"`
	JWT        JWTConfig        `json:"jwt"`
	PBX        PBXConfig        `json:"pbx"`
	SIP        SIPConfig        `json:"sip"`
	Firewall   FirewallConfig   `json:"firewall"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Cache      CacheConfig      `json:"cache"`
	Deployment DeploymentConfig `json:"deployment"`
	Admin      AdminConfig      `json:"admin"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryLog    bool          `json:"slow_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
}

type ServerConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout"`
	BodyLimit         int           `json:"body_limit"`
	EnableMetrics     bool          `json:"enable_metrics"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	ProxyHeader       string        `json:"proxy_header"`
	EnableCompression bool          `json:"enable_compression"`
}

type SecurityConfig struct {
	// TLS/HTTPS
	TLSEnabled  bool   `json:"tls_enabled"`
	TLSCertFile string `json:"tls_cert_file"`
	TLSKeyFile  string `json:"tls_key_file"`

	// CORS
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	CORSMaxAge       int      `json:"cors_max_age"`

	// Rate Limiting
	AuthRateLimit   int           `json:"auth_rate_limit"`   // requests per window
	GlobalRateLimit int           `json:"global_rate_limit"` // requests per window
	RateLimitWindow time.Duration `json:"rate_limit_window"`

	// API Security
	RequireAPIKey  bool     `json:"require_api_key"`
	APIKeyHeader   string   `json:"api_key_header"`
	AllowedAPIKeys []string `json:"allowed_api_keys"`
	IPBlacklist    []string `json:"ip_blacklist"`

	// Password & Auth
	PasswordMinLength int `json:"password_min_length"`
	BcryptCost        int `json:"bcrypt_cost"`
}

type JWTConfig struct {
	SecretKey      string        `json:"secret_key"`
	AccessTokenTTL time.Duration `json:"access_token_ttl"`
	AdminTokenTTL  time.Duration `json:"admin_token_ttl"`
	Issuer         string        `json:"issuer"`
	Audience       string        `json:"audience"`
	Algorithm      string        `json:"algorithm"`
}

// PBXConfig describes the external telephony server used for extension provisioning.
type PBXConfig struct {
	Provider       string        `json:"provider"` // freepbx, mock
	BaseURL        string        `json:"base_url"`
	APIUser        string        `json:"api_user"`
	APIPassword    string        `json:"api_password"`
	RequestTimeout time.Duration `json:"request_timeout"` // per attempt
	ReloadTimeout  time.Duration `json:"reload_timeout"`
	OverallTimeout time.Duration `json:"overall_timeout"` // shared across all attempts
	MaxAttempts    int           `json:"max_attempts"`
	RetryBackoff   time.Duration `json:"retry_backoff"`
}

// SIPConfig holds the values handed to softphone clients.
type SIPConfig struct {
	Domain         string `json:"domain"`
	Port           int    `json:"port"`
	Transport      string `json:"transport"` // udp, tcp, tls
	ExtensionStart int    `json:"extension_start"`
}

// FirewallConfig controls SSH access to the PBX host firewall.
type FirewallConfig struct {
	Enabled         bool          `json:"enabled"`
	SSHHost         string        `json:"ssh_host"`
	SSHPort         int           `json:"ssh_port"`
	SSHUser         string        `json:"ssh_user"`
	SSHPassword     string        `json:"ssh_password"`
	SSHPrivateKey   string        `json:"ssh_private_key"` // PEM content
	SSHTimeout      time.Duration `json:"ssh_timeout"`
	TrustTTL        time.Duration `json:"trust_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

type LoggingConfig struct {
	Level      string `json:"level"`  // debug, info, warn, error
	Format     string `json:"format"` // json, text
	Output     string `json:"output"` // stdout, file, both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	Provider        string        `json:"provider"` // redis, memory
	RedisURL        string        `json:"redis_url"`
	RedisDB         int           `json:"redis_db"`
	RedisPrefix     string        `json:"redis_prefix"`
	DefaultTTL      time.Duration `json:"default_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

type DeploymentConfig struct {
	// Domain Configuration
	Domain    string `json:"domain"`
	APIDomain string `json:"api_domain"`

	// Build Information
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// AdminConfig holds the bootstrap operator credentials ensured at startup.
type AdminConfig struct {
	BootstrapUsername string `json:"bootstrap_username"`
	BootstrapPassword string `json:"bootstrap_password"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "postgres"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryLog:    getEnvBool("DB_SLOW_QUERY_LOG", true),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 1*time.Second),
		},
		Server: ServerConfig{
			Host:              getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:         getEnvInt("SERVER_BODY_LIMIT", 1*1024*1024), // 1MB
			EnableMetrics:     getEnvBool("SERVER_ENABLE_METRICS", true),
			TrustedProxies:    getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			ProxyHeader:       getEnvString("SERVER_PROXY_HEADER", "X-Real-IP"),
			EnableCompression: getEnvBool("SERVER_ENABLE_COMPRESSION", true),
		},
		Security: SecurityConfig{
			TLSEnabled:        getEnvBool("TLS_ENABLED", false),
			TLSCertFile:       getEnvString("TLS_CERT_FILE", "/etc/ssl/certs/susanoo.crt"),
			TLSKeyFile:        getEnvString("TLS_KEY_FILE", "/etc/ssl/private/susanoo.key"),
			AllowedOrigins:    getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"https://susanoo-voip.com", "https://api.susanoo-voip.com", "https://admin.susanoo-voip.com"}),
			AllowedMethods:    getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:    getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID", "X-API-Key"}),
			AllowCredentials:  getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			CORSMaxAge:        getEnvInt("CORS_MAX_AGE", 86400),
			AuthRateLimit:     getEnvInt("AUTH_RATE_LIMIT", 20),
			GlobalRateLimit:   getEnvInt("GLOBAL_RATE_LIMIT", 2000),
			RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
			RequireAPIKey:     getEnvBool("REQUIRE_API_KEY", false),
			APIKeyHeader:      getEnvString("API_KEY_HEADER", "X-API-Key"),
			AllowedAPIKeys:    getEnvStringSlice("ALLOWED_API_KEYS", []string{}),
			IPBlacklist:       getEnvStringSlice("IP_BLACKLIST", []string{}),
			PasswordMinLength: getEnvInt("PASSWORD_MIN_LENGTH", 8),
			BcryptCost:        getEnvInt("BCRYPT_COST", 12),
		},
		JWT: JWTConfig{
			SecretKey:      getEnvString("JWT_SECRET_KEY", ""),
			AccessTokenTTL: getEnvDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
			AdminTokenTTL:  getEnvDuration("JWT_ADMIN_TOKEN_TTL", 8*time.Hour),
			Issuer:         getEnvString("JWT_ISSUER", "susanoo"),
			Audience:       getEnvString("JWT_AUDIENCE", "susanoo-api"),
			Algorithm:      getEnvString("JWT_ALGORITHM", "HS256"),
		},
		PBX: PBXConfig{
			Provider:       getEnvString("PBX_PROVIDER", "mock"),
			BaseURL:        getEnvString("PBX_BASE_URL", ""),
			APIUser:        getEnvString("PBX_API_USER", "admin"),
			APIPassword:    getEnvString("PBX_API_PASSWORD", ""),
			RequestTimeout: getEnvDuration("PBX_REQUEST_TIMEOUT", 10*time.Second),
			ReloadTimeout:  getEnvDuration("PBX_RELOAD_TIMEOUT", 60*time.Second),
			OverallTimeout: getEnvDuration("PBX_OVERALL_TIMEOUT", 30*time.Second),
			MaxAttempts:    getEnvInt("PBX_MAX_ATTEMPTS", 3),
			RetryBackoff:   getEnvDuration("PBX_RETRY_BACKOFF", 500*time.Millisecond),
		},
		SIP: SIPConfig{
			Domain:         getEnvString("SIP_DOMAIN", "sip.susanoo-voip.com"),
			Port:           getEnvInt("SIP_PORT", 5060),
			Transport:      getEnvString("SIP_TRANSPORT", "udp"),
			ExtensionStart: getEnvInt("SIP_EXTENSION_START", 1000),
		},
		Firewall: FirewallConfig{
			Enabled:         getEnvBool("FIREWALL_ENABLED", false),
			SSHHost:         getEnvString("FIREWALL_SSH_HOST", ""),
			SSHPort:         getEnvInt("FIREWALL_SSH_PORT", 22),
			SSHUser:         getEnvString("FIREWALL_SSH_USER", "root"),
			SSHPassword:     getEnvString("FIREWALL_SSH_PASSWORD", ""),
			SSHPrivateKey:   getEnvString("FIREWALL_SSH_PRIVATE_KEY", ""),
			SSHTimeout:      getEnvDuration("FIREWALL_SSH_TIMEOUT", 15*time.Second),
			TrustTTL:        getEnvDuration("FIREWALL_TRUST_TTL", 2*time.Hour),
			CleanupInterval: getEnvDuration("FIREWALL_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			Format:     getEnvString("LOG_FORMAT", "json"),
			Output:     getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:   getEnvString("LOG_FILE_PATH", "/var/log/susanoo/app.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:         getEnvBool("CACHE_ENABLED", true),
			Provider:        getEnvString("CACHE_PROVIDER", "redis"),
			RedisURL:        getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:         getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix:     getEnvString("CACHE_REDIS_PREFIX", "susanoo:"),
			DefaultTTL:      getEnvDuration("CACHE_DEFAULT_TTL", 1*time.Hour),
			CleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Deployment: DeploymentConfig{
			Domain:      getEnvString("DOMAIN", "susanoo-voip.com"),
			APIDomain:   getEnvString("API_DOMAIN", "api.susanoo-voip.com"),
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
		Admin: AdminConfig{
			BootstrapUsername: getEnvString("ADMIN_BOOTSTRAP_USERNAME", ""),
			BootstrapPassword: getEnvString("ADMIN_BOOTSTRAP_PASSWORD", ""),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads environment variables from .env file if it exists
func loadEnvFile() error {
	envFile := ".env"

	// Check if .env file exists
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// .env file doesn't exist, continue with environment variables
		return nil
	}

	// Open .env file
	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	// Read file line by line
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value pairs
		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				// Remove quotes if present
				if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
					(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`)) {
					value = value[1 : len(value)-1]
				}

				// Set environment variable if not already set
				if os.Getenv(key) == "" {
					os.Setenv(key, value)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Validate database configuration
	if cfg.Database.Host == "" {
		errors = append(errors, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errors = append(errors, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errors = append(errors, "DB_USER is required")
	}
	if cfg.Database.Password == "" {
		errors = append(errors, "DB_PASSWORD is required")
	}

	// Validate JWT configuration
	if cfg.JWT.SecretKey == "" {
		errors = append(errors, "JWT_SECRET_KEY is required")
	}
	if len(cfg.JWT.SecretKey) < 32 {
		errors = append(errors, "JWT_SECRET_KEY must be at least 32 characters long")
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		errors = append(errors, "JWT_ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.JWT.AccessTokenTTL > 24*time.Hour {
		errors = append(errors, "JWT_ACCESS_TOKEN_TTL must not exceed 24 hours")
	}
	if cfg.JWT.AdminTokenTTL <= 0 {
		errors = append(errors, "JWT_ADMIN_TOKEN_TTL must be positive")
	}
	if cfg.JWT.Issuer == "" {
		errors = append(errors, "JWT_ISSUER is required")
	}
	if cfg.JWT.Audience == "" {
		errors = append(errors, "JWT_AUDIENCE is required")
	}
	if cfg.JWT.Algorithm != "HS256" {
		errors = append(errors, "JWT_ALGORITHM must be HS256")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}
	if cfg.Server.IdleTimeout <= 0 {
		errors = append(errors, "SERVER_IDLE_TIMEOUT must be positive")
	}

	// Validate security configuration
	if cfg.Security.PasswordMinLength < 6 {
		errors = append(errors, "PASSWORD_MIN_LENGTH must be at least 6")
	}
	if cfg.Security.BcryptCost < 10 || cfg.Security.BcryptCost > 14 {
		errors = append(errors, "BCRYPT_COST must be between 10 and 14")
	}

	// Validate PBX configuration if a real provider is configured
	if cfg.PBX.Provider != "mock" {
		if cfg.PBX.Provider != "freepbx" {
			errors = append(errors, "PBX_PROVIDER must be one of: freepbx, mock")
		}
		if cfg.PBX.BaseURL == "" {
			errors = append(errors, "PBX_BASE_URL is required for PBX provider")
		}
		if cfg.PBX.APIUser == "" {
			errors = append(errors, "PBX_API_USER is required for PBX provider")
		}
		if cfg.PBX.APIPassword == "" {
			errors = append(errors, "PBX_API_PASSWORD is required for PBX provider")
		}
	}
	if cfg.PBX.MaxAttempts < 1 {
		errors = append(errors, "PBX_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.PBX.RequestTimeout <= 0 {
		errors = append(errors, "PBX_REQUEST_TIMEOUT must be positive")
	}
	if cfg.PBX.OverallTimeout <= 0 {
		errors = append(errors, "PBX_OVERALL_TIMEOUT must be positive")
	}
	if cfg.PBX.RetryBackoff <= 0 {
		errors = append(errors, "PBX_RETRY_BACKOFF must be positive")
	}

	// Validate SIP configuration
	if cfg.SIP.Domain == "" {
		errors = append(errors, "SIP_DOMAIN is required")
	}
	if cfg.SIP.Port <= 0 || cfg.SIP.Port > 65535 {
		errors = append(errors, "SIP_PORT must be between 1 and 65535")
	}
	if cfg.SIP.Transport != "udp" && cfg.SIP.Transport != "tcp" && cfg.SIP.Transport != "tls" {
		errors = append(errors, "SIP_TRANSPORT must be one of: udp, tcp, tls")
	}
	if cfg.SIP.ExtensionStart <= 0 {
		errors = append(errors, "SIP_EXTENSION_START must be positive")
	}

	// Validate firewall configuration if enabled
	if cfg.Firewall.Enabled {
		if cfg.Firewall.SSHHost == "" {
			errors = append(errors, "FIREWALL_SSH_HOST is required when firewall is enabled")
		}
		if cfg.Firewall.SSHUser == "" {
			errors = append(errors, "FIREWALL_SSH_USER is required when firewall is enabled")
		}
		if cfg.Firewall.SSHPassword == "" && cfg.Firewall.SSHPrivateKey == "" {
			errors = append(errors, "FIREWALL_SSH_PASSWORD or FIREWALL_SSH_PRIVATE_KEY is required when firewall is enabled")
		}
		if cfg.Firewall.TrustTTL <= 0 {
			errors = append(errors, "FIREWALL_TRUST_TTL must be positive")
		}
		if cfg.Firewall.CleanupInterval <= 0 {
			errors = append(errors, "FIREWALL_CLEANUP_INTERVAL must be positive")
		}
	}

	// Validate TLS configuration if enabled
	if cfg.Security.TLSEnabled {
		if cfg.Security.TLSCertFile == "" {
			errors = append(errors, "TLS_CERT_FILE is required when TLS is enabled")
		}
		if cfg.Security.TLSKeyFile == "" {
			errors = append(errors, "TLS_KEY_FILE is required when TLS is enabled")
		}
	}

	// Validate logging configuration
	if cfg.Logging.Level != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		valid := false
		for _, level := range validLevels {
			if cfg.Logging.Level == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
		}
	}

	// Validate cache configuration if enabled
	if cfg.Cache.Enabled {
		if cfg.Cache.Provider == "redis" && cfg.Cache.RedisURL == "" {
			errors = append(errors, "CACHE_REDIS_URL is required when cache is enabled with redis provider")
		}
	}

	// Return validation errors if any
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
