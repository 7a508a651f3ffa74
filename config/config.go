package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string
	ServerPort  int

	// TableCount задаёт количество столов по умолчанию для новых турниров.
	TableCount int
	// TimeSlots — временные слоты игрового дня в формате HH:MM.
	// Пустой список означает встроенные значения по умолчанию.
	TimeSlots []string

	// Cloudflare R2: выгрузка снапшотов расписания. Опционально.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// SnapshotExportEnabled reports whether all R2 credentials are present.
func (c *Config) SnapshotExportEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" &&
		c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080" // Порт по умолчанию
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	tableCount := 0
	if raw := os.Getenv("TABLE_COUNT"); raw != "" {
		tableCount, err = strconv.Atoi(raw)
		if err != nil || tableCount <= 0 {
			return nil, fmt.Errorf("TABLE_COUNT must be a positive integer, got %q", raw)
		}
	}

	var timeSlots []string
	if raw := os.Getenv("TIME_SLOTS"); raw != "" {
		for _, slot := range strings.Split(raw, ",") {
			timeSlots = append(timeSlots, strings.TrimSpace(slot))
		}
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		ServerPort:        port,
		TableCount:        tableCount,
		TimeSlots:         timeSlots,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}
