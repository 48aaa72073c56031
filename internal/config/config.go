package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DriverSQLX = "sqlx"
	DriverGORM = "gorm"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DBHost      string `env:"FSTR_DB_HOST" envDefault:"localhost"`
	DBPort      int    `env:"FSTR_DB_PORT" envDefault:"5432"`
	DBName      string `env:"FSTR_DB_NAME" envDefault:"pereval"`
	DBLogin     string `env:"FSTR_DB_LOGIN" envDefault:"pereval_user"`
	DBPass      string `env:"FSTR_DB_PASS" envDefault:"pereval_password"`
	DBSSLMode   string `env:"FSTR_DB_SSLMODE" envDefault:"disable"`
	DatabaseURL string `env:"DATABASE_URL"` // если задан, перекрывает FSTR_DB_*

	StorageDriver  string `env:"STORAGE_DRIVER" envDefault:"sqlx"`
	GormDialect    string `env:"GORM_DIALECT" envDefault:"postgres"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"pereval.db"`
	MySQLDSN       string `env:"MYSQL_DSN"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	ServerPort     string        `env:"SERVER_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Настройки архива заявок в MinIO, все необязательны
	MinioEndpoint        string `env:"MINIO_ENDPOINT"`
	MinioAccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
	MinioSecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
	MinioUseSSL          bool   `env:"MINIO_USE_SSL"`
	MinioBucketName      string `env:"MINIO_BUCKET_NAME" envDefault:"pereval-archive"`
	MinioRegion          string `env:"MINIO_REGION" envDefault:"us-east-1"`

	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"pereval_events"`
	}
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverSQLX, DriverGORM:
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER: %q (sqlx или gorm)", c.StorageDriver)
	}
	if c.StorageDriver == DriverGORM {
		switch c.GormDialect {
		case "postgres", "sqlite":
		case "mysql":
			if c.MySQLDSN == "" {
				return fmt.Errorf("для GORM_DIALECT=mysql нужен MYSQL_DSN")
			}
		default:
			return fmt.Errorf("неизвестный GORM_DIALECT: %q", c.GormDialect)
		}
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT должен быть положительным")
	}
	return nil
}

// DSN возвращает строку подключения к PostgreSQL.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBLogin, c.DBPass),
		Host:     c.DBHost + ":" + strconv.Itoa(c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// ArchiveEnabled сообщает, заданы ли параметры MinIO для архива заявок.
func (c *Config) ArchiveEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKeyID != "" && c.MinioSecretAccessKey != ""
}

// EventsEnabled сообщает, задан ли адрес RabbitMQ.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQ.RabbitMQURL != ""
}
