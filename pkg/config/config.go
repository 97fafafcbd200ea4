package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Store drivers
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Authentication modes
const (
	AuthHMAC = "hmac"
	AuthOIDC = "oidc"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Driver string
}

// MongoConfig holds the document store connection settings
type MongoConfig struct {
	ConnectionString string
	DatabaseName     string
	ConnectTimeout   time.Duration
}

// DBConfig holds PostgreSQL configuration for the postgres store driver
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// AuthConfig holds bearer token verification settings.
// Mode "oidc" verifies tokens against an external issuer (Keycloak),
// mode "hmac" verifies locally signed HS256 tokens.
type AuthConfig struct {
	Mode            string
	SigningKey      string
	ExpirationHours int
	Authority       string
	Audience        string
	RequireHTTPS    bool
}

// AppConfig holds the use case settings
type AppConfig struct {
	AllowEmailsCreateTenant []string
	AdminEquip              string
	DefaultThreads          []string
	AddCreatorToAdminEquip  bool
	NormalizeLookupEmail    bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	ServiceName string
}

// Config holds all configuration
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Mongo   MongoConfig
	DB      DBConfig
	Auth    AuthConfig
	App     AppConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		},
		Mongo: MongoConfig{
			ConnectionString: getEnv("MONGO_CONNECTION_STRING", "mongodb://localhost:27017"),
			DatabaseName:     getEnv("MONGO_DATABASE_NAME", "howyoufell"),
			ConnectTimeout:   getEnvAsDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "howyoufell"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Auth: AuthConfig{
			Mode:            strings.ToLower(getEnv("AUTH_MODE", AuthHMAC)),
			SigningKey:      getEnv("JWT_SIGNING_KEY", "howyoufellsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
			Authority:       getEnv("KEYCLOAK_AUTHORITY", ""),
			Audience:        getEnv("KEYCLOAK_AUDIENCE", ""),
			RequireHTTPS:    getEnvAsBool("KEYCLOAK_REQUIRE_HTTPS", true),
		},
		App: AppConfig{
			AllowEmailsCreateTenant: getEnvAsSlice("APP_ALLOW_EMAILS_CREATE_TENANT", nil),
			AdminEquip:              getEnv("APP_ADMIN_EQUIP", "Admins"),
			DefaultThreads:          getEnvAsSlice("APP_DEFAULT_THREADS", []string{"Me", "Team", "Company", "Proccess"}),
			AddCreatorToAdminEquip:  getEnvAsBool("APP_ADD_CREATOR_TO_ADMIN_EQUIP", false),
			NormalizeLookupEmail:    getEnvAsBool("APP_NORMALIZE_LOOKUP_EMAIL", false),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			ServiceName: getEnv("METRICS_SERVICE_NAME", "howyoufell"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings that would otherwise fail at first use
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMongo:
		if c.Mongo.ConnectionString == "" || c.Mongo.DatabaseName == "" {
			return errors.New("mongo store requires MONGO_CONNECTION_STRING and MONGO_DATABASE_NAME")
		}
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Auth.Mode {
	case AuthHMAC:
		if c.Auth.SigningKey == "" {
			return errors.New("hmac auth requires JWT_SIGNING_KEY")
		}
	case AuthOIDC:
		if c.Auth.Authority == "" || c.Auth.Audience == "" {
			return errors.New("oidc auth requires KEYCLOAK_AUTHORITY and KEYCLOAK_AUDIENCE")
		}
		if c.Auth.RequireHTTPS && !strings.HasPrefix(c.Auth.Authority, "https://") {
			return fmt.Errorf("authority %q is not https while KEYCLOAK_REQUIRE_HTTPS is set", c.Auth.Authority)
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}

	if len(c.App.DefaultThreads) == 0 {
		return errors.New("APP_DEFAULT_THREADS must name at least one thread")
	}

	return nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	fields := []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("server_port", c.Server.Port),
		zap.String("store_driver", c.Store.Driver),
		zap.String("auth_mode", c.Auth.Mode),
		zap.Int("tenant_creators", len(c.App.AllowEmailsCreateTenant)),
	}

	switch c.Store.Driver {
	case StoreMongo:
		fields = append(fields, zap.String("mongo_database", c.Mongo.DatabaseName))
	case StorePostgres:
		fields = append(fields,
			zap.String("db_host", c.DB.Host),
			zap.String("db_port", c.DB.Port),
			zap.String("db_user", c.DB.User),
			zap.String("db_name", c.DB.DBName))
	}

	if c.Auth.Mode == AuthOIDC {
		fields = append(fields,
			zap.String("authority", c.Auth.Authority),
			zap.String("audience", c.Auth.Audience))
	}

	return fields
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as booleans
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get comma separated environment variables; blank items are dropped
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	var values []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			values = append(values, item)
		}
	}
	return values
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
