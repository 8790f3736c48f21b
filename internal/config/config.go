package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Client configures the application core: where the burger API lives and
// where the refresh token is persisted.
type Client struct {
	APIBaseURL  string
	TokenFile   string
	HTTPTimeout time.Duration
}

// Server configures the reference backend.
type Server struct {
	Port          string
	JWTSecret     string
	AccessTTL     time.Duration
	StorageDriver string // "memory" or "postgres"
	Postgres      Postgres
}

type Postgres struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// LoadClient reads client settings from the environment, optionally loading a
// .env file first. Every field has a default.
func LoadClient(envPath string) (*Client, error) {
	if err := loadEnvFile(envPath); err != nil {
		return nil, err
	}

	cfg := &Client{
		APIBaseURL:  getenv("API_BASE_URL", "https://norma.nomoreparties.space"),
		TokenFile:   getenv("TOKEN_FILE", defaultTokenFile()),
		HTTPTimeout: 15 * time.Second,
	}

	if raw := os.Getenv("HTTP_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", raw, err)
		}
		cfg.HTTPTimeout = timeout
	}

	return cfg, nil
}

// LoadServer reads backend settings. Postgres fields are only required when
// STORAGE_DRIVER=postgres.
func LoadServer(envPath string) (*Server, error) {
	if err := loadEnvFile(envPath); err != nil {
		return nil, err
	}

	cfg := &Server{
		Port:          getenv("APP_PORT", "8080"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AccessTTL:     20 * time.Minute,
		StorageDriver: getenv("STORAGE_DRIVER", "memory"),
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.StorageDriver {
	case "memory":
	case "postgres":
		cfg.Postgres = Postgres{
			Host:           os.Getenv("DB_HOST"),
			Port:           getenv("DB_PORT", "5432"),
			User:           os.Getenv("DB_USER"),
			Password:       os.Getenv("DB_PASSWORD"),
			DBName:         os.Getenv("DB_NAME"),
			SSLMode:        getenv("DB_SSLMODE", "disable"),
			MigrationsPath: getenv("DB_MIGRATIONS_PATH", "migrations"),
		}
		for name, value := range map[string]string{
			"DB_HOST":     cfg.Postgres.Host,
			"DB_USER":     cfg.Postgres.User,
			"DB_PASSWORD": cfg.Postgres.Password,
			"DB_NAME":     cfg.Postgres.DBName,
		} {
			if value == "" {
				return nil, fmt.Errorf("%s is required for the postgres driver", name)
			}
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".burger-refresh-token"
	}
	return home + "/.stellar-burgers/refresh-token"
}
