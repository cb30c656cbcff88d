package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Logging
	LogLevel  string
	LogFormat string

	// API
	API APIConfig

	// Evolution defaults (run files override them)
	Evolution EvolutionConfig
}

// APIConfig holds HTTP surface limits
type APIConfig struct {
	RateLimit       float64 // 초당 optimize 요청 수
	RateBurst       int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration // optimize는 동기 실행
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration // 진행 중 요청 대기 상한
	MaxGenerations  int           // 요청당 세대 수 상한
}

// EvolutionConfig holds default genetic algorithm parameters
type EvolutionConfig struct {
	PopulationSize       int
	Generations          int
	CrossoverProbability float64
	MutationProbability  float64
	Seed                 int64 // 0 = time based
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		API: APIConfig{
			RateLimit:       getEnvAsFloat("API_RATE_LIMIT", 1.0),
			RateBurst:       getEnvAsInt("API_RATE_BURST", 2),
			ReadTimeout:     getEnvAsSeconds("API_READ_TIMEOUT_SEC", 15),
			WriteTimeout:    getEnvAsSeconds("API_WRITE_TIMEOUT_SEC", 120),
			IdleTimeout:     getEnvAsSeconds("API_IDLE_TIMEOUT_SEC", 60),
			ShutdownTimeout: getEnvAsSeconds("API_SHUTDOWN_TIMEOUT_SEC", 30),
			MaxGenerations:  getEnvAsInt("API_MAX_GENERATIONS", 5000),
		},

		Evolution: EvolutionConfig{
			PopulationSize:       getEnvAsInt("EVOLVE_POPULATION_SIZE", 100),
			Generations:          getEnvAsInt("EVOLVE_GENERATIONS", 200),
			CrossoverProbability: getEnvAsFloat("EVOLVE_CROSSOVER_PROBABILITY", 0.25),
			MutationProbability:  getEnvAsFloat("EVOLVE_MUTATION_PROBABILITY", 0.01),
			Seed:                 getEnvAsInt64("EVOLVE_SEED", 0),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.API.RateLimit <= 0 || c.API.RateBurst <= 0 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_BURST must be > 0")
	}
	if c.API.ReadTimeout <= 0 || c.API.WriteTimeout <= 0 || c.API.IdleTimeout <= 0 {
		return fmt.Errorf("API_READ_TIMEOUT_SEC, API_WRITE_TIMEOUT_SEC and API_IDLE_TIMEOUT_SEC must be > 0")
	}
	if c.API.ShutdownTimeout <= 0 {
		return fmt.Errorf("API_SHUTDOWN_TIMEOUT_SEC must be > 0")
	}
	if c.API.MaxGenerations <= 0 {
		return fmt.Errorf("API_MAX_GENERATIONS must be > 0")
	}

	if c.Evolution.PopulationSize <= 0 {
		return fmt.Errorf("EVOLVE_POPULATION_SIZE must be > 0")
	}
	if c.Evolution.Generations <= 0 {
		return fmt.Errorf("EVOLVE_GENERATIONS must be > 0")
	}
	if c.Evolution.CrossoverProbability < 0 || c.Evolution.CrossoverProbability > 1 {
		return fmt.Errorf("EVOLVE_CROSSOVER_PROBABILITY must be in [0, 1]")
	}
	if c.Evolution.MutationProbability < 0 || c.Evolution.MutationProbability > 1 {
		return fmt.Errorf("EVOLVE_MUTATION_PROBABILITY must be in [0, 1]")
	}

	return nil
}

// loadEnvFile tries to load .env from the working directory or next to the executable
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Second
}
