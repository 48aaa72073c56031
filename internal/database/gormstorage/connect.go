package gormstorage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/Pereval/internal/config"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open открывает подключение GORM для диалекта из конфигурации.
func Open(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.GormDialect {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		// внешние ключи в SQLite по умолчанию выключены
		dialector = sqlite.Open(cfg.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	case "mysql":
		dialector = mysql.Open(cfg.MySQLDSN)
	default:
		return nil, fmt.Errorf("неподдерживаемый GORM_DIALECT: %s", cfg.GormDialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewLogger(logger)})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД через GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения *sql.DB из GORM: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	if cfg.GormDialect == "sqlite" {
		// одна запись за раз
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Info("GORM connection established", "dialect", cfg.GormDialect)
	return db, nil
}

// AutoMigrate создаёт или дополняет таблицы перевалов.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("ошибка AutoMigrate: %w", err)
	}
	return nil
}

// NewLogger направляет логи GORM в slog, без шума от ErrRecordNotFound.
func NewLogger(logger *slog.Logger) gormlogger.Interface {
	return gormlogger.New(
		slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}
