package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Access      AccessConfig
	PaymentRuns PaymentRunConfig
	Exports     ExportsConfig
	RateLimit   RateLimitConfig
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MigrateOnStart bool

	ConnectTimeout   time.Duration
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AccessConfig holds the role allowlists for the privileged workflows.
type AccessConfig struct {
	VerifyRoles     []string
	PaymentRunRoles []string
	AuditViewRoles  []string
	DashboardRoles  []string
}

// PaymentRunConfig tunes batch commits.
type PaymentRunConfig struct {
	ReferencePrefix string
	FilePrefix      string
	LockTTL         time.Duration
}

// ExportsConfig controls the spool directory used while a batch file is streamed.
type ExportsConfig struct {
	SpoolDir        string
	SpoolTTL        time.Duration
	CleanupSchedule string
}

// RateLimitConfig uses the limiter "<limit>-<period>" notation, e.g. "5-M".
type RateLimitConfig struct {
	Login string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetInt("DB_PORT"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Name:           v.GetString("DB_NAME"),
		SSLMode:        v.GetString("DB_SSL_MODE"),
		MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
		MigrateOnStart: v.GetBool("DB_MIGRATE_ON_START"),

		ConnectTimeout:   parseDuration(v.GetString("DB_CONNECT_TIMEOUT"), 5*time.Second),
		LockTimeout:      parseDuration(v.GetString("DB_LOCK_TIMEOUT"), 5*time.Second),
		StatementTimeout: parseDuration(v.GetString("DB_STATEMENT_TIMEOUT"), 30*time.Second),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 8*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Access = AccessConfig{
		VerifyRoles:     splitAndTrim(v.GetString("VERIFY_ROLES")),
		PaymentRunRoles: splitAndTrim(v.GetString("PAYMENT_RUN_ROLES")),
		AuditViewRoles:  splitAndTrim(v.GetString("AUDIT_VIEW_ROLES")),
		DashboardRoles:  splitAndTrim(v.GetString("DASHBOARD_ROLES")),
	}

	cfg.PaymentRuns = PaymentRunConfig{
		ReferencePrefix: v.GetString("PAYMENT_REF_PREFIX"),
		FilePrefix:      v.GetString("BATCH_FILE_PREFIX"),
		LockTTL:         parseDuration(v.GetString("RUN_LOCK_TTL"), 2*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		SpoolDir:        v.GetString("EXPORTS_SPOOL_DIR"),
		SpoolTTL:        parseDuration(v.GetString("EXPORTS_SPOOL_TTL"), time.Hour),
		CleanupSchedule: v.GetString("EXPORTS_CLEANUP_SCHEDULE"),
	}

	cfg.RateLimit = RateLimitConfig{Login: v.GetString("LOGIN_RATE_LIMIT")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "anab_disbursement")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATE_ON_START", true)
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")
	v.SetDefault("DB_LOCK_TIMEOUT", "5s")
	v.SetDefault("DB_STATEMENT_TIMEOUT", "30s")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "8h")
	v.SetDefault("JWT_ISSUER", "anab-disbursement-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("VERIFY_ROLES", "SuperAdmin,Finance,Reviewer")
	v.SetDefault("PAYMENT_RUN_ROLES", "SuperAdmin,Finance")
	v.SetDefault("AUDIT_VIEW_ROLES", "SuperAdmin")
	v.SetDefault("DASHBOARD_ROLES", "SuperAdmin,Finance")

	v.SetDefault("PAYMENT_REF_PREFIX", "TRX")
	v.SetDefault("BATCH_FILE_PREFIX", "ANAB_DISB")
	v.SetDefault("RUN_LOCK_TTL", "2m")

	v.SetDefault("EXPORTS_SPOOL_DIR", "./spool")
	v.SetDefault("EXPORTS_SPOOL_TTL", "1h")
	v.SetDefault("EXPORTS_CLEANUP_SCHEDULE", "@every 15m")

	v.SetDefault("LOGIN_RATE_LIMIT", "5-M")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
