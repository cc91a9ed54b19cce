package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	Postgres    PostgresConfig
	Provisioner ProvisionerConfig
	Session     SessionConfig
	Storage     StorageConfig
	Sweep       SweepConfig
	Metrics     MetricsConfig
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	Addr     string
	User     string
	Password string
	Database string
}

// ProvisionerConfig controls how game-server tasks are launched.
type ProvisionerConfig struct {
	Image         string
	Cluster       string
	NetworkName   string
	PublicHost    string
	ContainerPort int
	ContainerMem  int64
	ContainerCPU  float64
	LaunchTimeout time.Duration
	StopTimeout   time.Duration
}

// SessionConfig bounds caller-supplied capacity and TTL values.
type SessionConfig struct {
	EligibleEngine    string
	DefaultMaxPlayers int
	MinPlayers        int
	MaxPlayers        int
	DefaultTTLMinutes int
	MinTTLMinutes     int
	MaxTTLMinutes     int
}

type StorageConfig struct {
	Root              string
	BaseURL           string
	MaxUploadBytes    int64
	AllowedExtensions []string
}

type SweepConfig struct {
	Interval    time.Duration
	Concurrency int
}

type MetricsConfig struct {
	Addr string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         getEnv("SERVER_ADDR", ":8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Addr:     getEnv("POSTGRES_ADDR", "localhost:5432"),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "gamehost"),
		},
		Provisioner: ProvisionerConfig{
			Image:         getEnv("PROVISIONER_IMAGE", "playcanvas-multiplayer:latest"),
			Cluster:       getEnv("PROVISIONER_CLUSTER", "playcanvas-multiplayer"),
			NetworkName:   getEnv("PROVISIONER_NETWORK", "gamehost-net"),
			PublicHost:    getEnv("PROVISIONER_PUBLIC_HOST", "localhost"),
			ContainerPort: getIntEnv("PROVISIONER_CONTAINER_PORT", 3000),
			ContainerMem:  int64(getIntEnv("PROVISIONER_CONTAINER_MEM_MB", 512)),
			ContainerCPU:  getFloatEnv("PROVISIONER_CONTAINER_CPU", 0.5),
			LaunchTimeout: getDurationEnv("PROVISIONER_LAUNCH_TIMEOUT", 60*time.Second),
			StopTimeout:   getDurationEnv("PROVISIONER_STOP_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			EligibleEngine:    getEnv("SESSION_ELIGIBLE_ENGINE", "playcanvas"),
			DefaultMaxPlayers: getIntEnv("SESSION_DEFAULT_MAX_PLAYERS", 8),
			MinPlayers:        getIntEnv("SESSION_MIN_PLAYERS", 2),
			MaxPlayers:        getIntEnv("SESSION_MAX_PLAYERS", 16),
			DefaultTTLMinutes: getIntEnv("SESSION_DEFAULT_TTL_MINUTES", 40),
			MinTTLMinutes:     getIntEnv("SESSION_MIN_TTL_MINUTES", 10),
			MaxTTLMinutes:     getIntEnv("SESSION_MAX_TTL_MINUTES", 120),
		},
		Storage: StorageConfig{
			Root:              getEnv("STORAGE_ROOT", "/var/gamehost/multiplayer"),
			BaseURL:           getEnv("STORAGE_BASE_URL", "http://localhost:8080/storage"),
			MaxUploadBytes:    int64(getIntEnv("STORAGE_MAX_UPLOAD_MB", 10)) * 1024 * 1024,
			AllowedExtensions: getListEnv("STORAGE_ALLOWED_EXTENSIONS", []string{"json", "txt", "dat", "save"}),
		},
		Sweep: SweepConfig{
			Interval:    getDurationEnv("SWEEP_INTERVAL", 5*time.Minute),
			Concurrency: getIntEnv("SWEEP_CONCURRENCY", 2),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ":9090"),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getListEnv(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultVal
}
