package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultJWTSecret is only meant for local development.
	DefaultJWTSecret = "change-me"
	// DefaultMFASecret is the documented otplib example secret.
	DefaultMFASecret = "JBSWY3DPEHPK3PXP"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	DataFile    string
	SeedFile    string
	CORSOrigins []string
	SwaggerHost string

	JWTSecret  string
	SessionTTL time.Duration

	MFASecret      string
	MFAIssuer      string
	MFAAllowShared bool
	MFAPendingTTL  time.Duration

	// BootstrapPasswords maps a seed email to the password hashed for it on first start.
	BootstrapPasswords map[string]string

	RedisAddr string
	RedisDB   int
	RedisPass string

	LogLevel       string
	LogDevelopment bool

	Backup BackupConfig
}

// BackupConfig configures the optional S3 snapshot of the data file.
type BackupConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Enabled reports whether a bucket was configured.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionTTL, err := getEnvDuration("SESSION_TTL", 8*time.Hour)
	if err != nil {
		return nil, err
	}
	pendingTTL, err := getEnvDuration("MFA_PENDING_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	passwords, err := parsePasswords(os.Getenv("BOOTSTRAP_PASSWORDS"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		DataFile:           getEnv("DATA_FILE", "data/data.json"),
		SeedFile:           os.Getenv("SEED_FILE"),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "*")),
		SwaggerHost:        os.Getenv("SWAGGER_HOST"),
		JWTSecret:          getEnv("JWT_SECRET", DefaultJWTSecret),
		SessionTTL:         sessionTTL,
		MFASecret:          getEnv("MFA_SECRET", DefaultMFASecret),
		MFAIssuer:          getEnv("MFA_ISSUER", "Exchange Desk"),
		MFAAllowShared:     getEnvBool("MFA_ALLOW_SHARED", true),
		MFAPendingTTL:      pendingTTL,
		BootstrapPasswords: passwords,
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisPass:          os.Getenv("REDIS_PASSWORD"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogDevelopment:     getEnvBool("LOG_DEVELOPMENT", false),
		Backup: BackupConfig{
			Bucket:    os.Getenv("BACKUP_S3_BUCKET"),
			Region:    getEnv("BACKUP_S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("BACKUP_S3_ENDPOINT"),
			AccessKey: os.Getenv("BACKUP_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("BACKUP_S3_SECRET_KEY"),
			Prefix:    getEnv("BACKUP_S3_PREFIX", "exchangedesk/"),
		},
	}, nil
}

// InsecureDefaults lists the secrets still set to their development defaults.
func (c *Config) InsecureDefaults() []string {
	var keys []string
	if c.JWTSecret == DefaultJWTSecret {
		keys = append(keys, "JWT_SECRET")
	}
	if c.MFAAllowShared && c.MFASecret == DefaultMFASecret {
		keys = append(keys, "MFA_SECRET")
	}
	return keys
}

// parsePasswords reads "email=password,email=password".
func parsePasswords(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range splitList(raw) {
		email, password, ok := strings.Cut(pair, "=")
		email = strings.ToLower(strings.TrimSpace(email))
		if !ok || email == "" || password == "" {
			return nil, fmt.Errorf("invalid BOOTSTRAP_PASSWORDS entry %q", pair)
		}
		out[email] = password
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, v, err)
		}
		return d, nil
	}
	return def, nil
}
