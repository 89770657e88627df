package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Paths   PathsConfig
	Input   InputConfig
	Server  ServerConfig
	Worker  WorkerConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type PathsConfig struct {
	PopulationCSV string // UN WPP total population
	DisastersCSV  string // EM-DAT public export

	PopulationDir string // one JSON per country plus countries.json
	DisastersDir  string // one JSON per disaster type plus registers
	EvaluationDir string // ADPY tables
}

type InputConfig struct {
	DisastersDelimiter  rune
	PopulationDelimiter rune
	SkipHeader          bool
}

type ServerConfig struct {
	Host      string
	Port      int
	RateLimit int // requests per second
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	resources := getEnv("RESOURCES_DIR", "./resources")

	cfg := &Config{
		Paths: PathsConfig{
			PopulationCSV: getEnv("POPULATION_CSV", filepath.Join(resources, "WPP2019_total_population.csv")),
			DisastersCSV:  getEnv("DISASTERS_CSV", filepath.Join(resources, "emdat_public_2020_10_03_1920-2020.csv")),
			PopulationDir: getEnv("POPULATION_DIR", filepath.Join(resources, "population_development_of_each_country")),
			DisastersDir:  getEnv("DISASTERS_DIR", filepath.Join(resources, "development_of_disaster_for_each_disaster")),
			EvaluationDir: getEnv("EVALUATION_DIR", filepath.Join(resources, "evaluation_results")),
		},
		Input: InputConfig{
			DisastersDelimiter:  getEnvRune("DISASTERS_DELIMITER", ';'),
			PopulationDelimiter: getEnvRune("POPULATION_DELIMITER", ','),
			SkipHeader:          getEnvBool("SKIP_HEADER", false),
		},
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      getEnvInt("SERVER_PORT", 8080),
			RateLimit: getEnvInt("RATE_LIMIT", 5),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 4),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 64),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", filepath.Join(resources, "adpy.db")),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per second")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("invalid worker buffer size: %d", c.Worker.BufferSize)
	}

	if c.Input.DisastersDelimiter == 0 || c.Input.PopulationDelimiter == 0 {
		return fmt.Errorf("delimiters must not be empty")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvRune takes the first rune of the variable; "\t" selects a tab.
func getEnvRune(key string, fallback rune) rune {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if val == `\t` {
		return '\t'
	}
	return []rune(val)[0]
}
