package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Значения по умолчанию
const (
	defaultMigrationsPath = "migrations"
	defaultEnrollRetry    = 1
)

type Config struct {
	DBDSN          string // DB_DSN
	Environment    string // ENV
	MigrationsPath string // MIGRATIONS_PATH

	// EnrollRetryLimit сколько других программ того же измерения пробовать,
	// если место увели между сканом и коммитом (ENROLL_RETRY_LIMIT)
	EnrollRetryLimit int
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:            os.Getenv("DB_DSN"),
		Environment:      os.Getenv("ENV"),
		MigrationsPath:   os.Getenv("MIGRATIONS_PATH"),
		EnrollRetryLimit: defaultEnrollRetry,
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = defaultMigrationsPath
	}
	if raw := os.Getenv("ENROLL_RETRY_LIMIT"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return nil, fmt.Errorf("ENROLL_RETRY_LIMIT must be a non-negative integer, got %q", raw)
		}
		cfg.EnrollRetryLimit = limit
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}
