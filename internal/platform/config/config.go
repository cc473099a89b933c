package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	JWTSecret               string
	SessionTTL              time.Duration
	AdminSeedFile           string
	StrictStatusTransitions bool
	DefaultTimeZone         string

	OutboxPollInterval time.Duration

	APIBaseURL    string
	ClientTimeout time.Duration
}

// AdminSeed is one entry of the admin seed file.
type AdminSeed struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Role      string `yaml:"role"`
}

type adminSeedFile struct {
	Admins []AdminSeed `yaml:"admins"`
}

// Load reads the environment after merging an optional .env file from the
// working directory. Variables already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "univote"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	zone := strings.TrimSpace(os.Getenv("DEFAULT_TIME_ZONE"))
	if zone == "" {
		zone = "UTC"
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return Config{}, fmt.Errorf("config: DEFAULT_TIME_ZONE: %w", err)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("API_BASE_URL")), "/")
	if baseURL == "" {
		baseURL = "http://localhost:" + strings.TrimPrefix(port, ":")
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		KafkaBrokers: brokers,

		JWTSecret:               os.Getenv("JWT_SECRET"),
		SessionTTL:              envDuration("SESSION_TTL", 12*time.Hour),
		AdminSeedFile:           strings.TrimSpace(os.Getenv("ADMIN_SEED_FILE")),
		StrictStatusTransitions: envBool("STRICT_STATUS_TRANSITIONS", false),
		DefaultTimeZone:         zone,

		OutboxPollInterval: envDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),

		APIBaseURL:    baseURL,
		ClientTimeout: envDuration("CLIENT_TIMEOUT", 10*time.Second),
	}, nil
}

// DefaultLocation resolves DefaultTimeZone; Load has already validated it.
func (c Config) DefaultLocation() *time.Location {
	location, err := time.LoadLocation(c.DefaultTimeZone)
	if err != nil {
		return time.UTC
	}
	return location
}

// LoadAdminSeeds parses the YAML admin seed file. A missing path or file
// yields no seeds.
func LoadAdminSeeds(path string) ([]AdminSeed, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed adminSeedFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	for i, seed := range parsed.Admins {
		if strings.TrimSpace(seed.Username) == "" || seed.Password == "" {
			return nil, fmt.Errorf("config: %s: admin %d needs username and password", path, i)
		}
	}
	return parsed.Admins, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
