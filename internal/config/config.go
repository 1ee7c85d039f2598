package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Credential type discriminators used in the "type" claim.
const (
	CredentialAccessToken = "access_token"
	CredentialAPIKey      = "api_key"
	CredentialOTP         = "otp"
	CredentialSignUp      = "sign_up"
)

// Role names with statically assigned ids.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// CredentialLifespans holds the configured lifetime per credential purpose.
type CredentialLifespans struct {
	AccessToken   time.Duration
	MagicLink     time.Duration
	RequestSignUp time.Duration
	OTP           time.Duration
}

type Config struct {
	// Server settings
	ServerAddr  string
	BaseURL     string
	FrontendURL string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// JWT settings
	JWTSecret    string
	JWTAlgorithm string // only HS256 is supported

	// Credential settings
	Lifespans CredentialLifespans
	OTPLength int

	// Access token cookie
	CookieName   string
	CookieSecure bool

	// Header set on responses whose failure invalidates the presented credential
	LogoutHeader string

	// Google sign-in
	GoogleClientID string

	// Rate limiting for credential-request endpoints
	RequestRatePerMinute int
	RateLimitStore       string // "memory" or "redis"
	RedisAddr            string
	RedisPassword        string
	RedisDB              int

	// Static authorization tables, read-only after Load
	ScopeNameToID  map[string]int
	ScopeIDToName  map[int]string
	RoleNameToID   map[string]int
	RoleIDToScopes map[int][]int
}

// Frontend routes used when formatting delivered links.
const (
	FrontendVerifyMagicLink = "/verify-magic-link"
	FrontendVerifySignUp    = "/verify-signup"
)

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "data/gallery.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	cfg := &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTAlgorithm: getEnv("JWT_ALGORITHM", "HS256"),

		Lifespans: CredentialLifespans{
			AccessToken:   getEnvDuration("ACCESS_TOKEN_LIFESPAN", 7*24*time.Hour),
			MagicLink:     getEnvDuration("MAGIC_LINK_LIFESPAN", 10*time.Minute),
			RequestSignUp: getEnvDuration("REQUEST_SIGN_UP_LIFESPAN", time.Hour),
			OTP:           getEnvDuration("OTP_LIFESPAN", 10*time.Minute),
		},
		OTPLength: getEnvInt("OTP_LENGTH", 6),

		CookieName:   getEnv("ACCESS_TOKEN_COOKIE", "access_token"),
		CookieSecure: getEnvBool("ACCESS_TOKEN_COOKIE_SECURE", true),
		LogoutHeader: getEnv("AUTH_LOGOUT_HEADER", "X-Auth-Logout"),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		RequestRatePerMinute: getEnvInt("REQUEST_RATE_PER_MINUTE", 10),
		RateLimitStore:       getEnv("RATE_LIMIT_STORE", "memory"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
	}

	cfg.ScopeNameToID = map[string]int{
		"admin":       1,
		"users.read":  2,
		"users.write": 3,
	}
	cfg.ScopeIDToName = make(map[int]string, len(cfg.ScopeNameToID))
	for name, id := range cfg.ScopeNameToID {
		cfg.ScopeIDToName[id] = name
	}

	cfg.RoleNameToID = map[string]int{
		RoleAdmin: 1,
		RoleUser:  2,
	}
	cfg.RoleIDToScopes = map[int][]int{
		cfg.RoleNameToID[RoleAdmin]: {
			cfg.ScopeNameToID["admin"],
			cfg.ScopeNameToID["users.read"],
			cfg.ScopeNameToID["users.write"],
		},
		cfg.RoleNameToID[RoleUser]: {
			cfg.ScopeNameToID["users.read"],
			cfg.ScopeNameToID["users.write"],
		},
	}

	return cfg
}

// Validate checks required settings before startup.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.JWTAlgorithm != "HS256" {
		return fmt.Errorf("unsupported JWT_ALGORITHM: %s (must be HS256)", c.JWTAlgorithm)
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
	}
	return nil
}

// DefaultRoleID is the role assigned to newly created users.
func (c *Config) DefaultRoleID() int {
	return c.RoleNameToID[RoleUser]
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
