package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/Pereval/internal/adapter/storage/minio"
	"github.com/GoArmGo/Pereval/internal/app"
	"github.com/GoArmGo/Pereval/internal/config"
	"github.com/GoArmGo/Pereval/internal/core/ports"
	"github.com/GoArmGo/Pereval/internal/database/client"
	"github.com/GoArmGo/Pereval/internal/database/gormstorage"
	"github.com/GoArmGo/Pereval/internal/database/storage"
	"github.com/GoArmGo/Pereval/internal/logger"
	"github.com/GoArmGo/Pereval/internal/rabbitmq"
	"github.com/GoArmGo/Pereval/internal/usecase"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp(ctx context.Context) (_ *app.App, err error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// при ошибке на любом шаге закрываем то, что уже открыто
	var closers []app.Closer
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i].Close()
			}
		}
	}()

	// 2. Хранилище перевалов
	perevalStorage, closer, err := buildStorage(ctx, cfg, slogger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closer)

	// 3. RabbitMQ: без RABBITMQ_URL события не публикуются
	var (
		publisher ports.PerevalEventPublisher = rabbitmq.NoopPublisher{}
		consumer  ports.PerevalEventConsumer
	)
	if cfg.EventsEnabled() {
		rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
		if err != nil {
			return nil, err
		}
		closers = append(closers, app.Closer{Name: "rabbitmq", Close: rabbitMQClient.Close})
		publisher = rabbitMQClient
		consumer = rabbitMQClient
	} else {
		slogger.Info("RABBITMQ_URL is not set, pereval events are disabled")
	}

	// 4. Архив снимков в MinIO нужен только воркеру
	var archiveUseCase usecase.ArchiveUseCase
	if cfg.ArchiveEnabled() {
		archive, err := minio.NewMinioClient(ctx, cfg, slogger)
		if err != nil {
			return nil, err
		}
		archiveUseCase = usecase.NewArchiveUseCase(perevalStorage, archive, slogger)
	}

	// 5. Бизнес-логика
	perevalUseCase := usecase.NewPerevalUseCase(perevalStorage, publisher, slogger)

	application := app.NewApp(
		cfg,
		slogger,
		perevalStorage,
		perevalUseCase,
		archiveUseCase,
		consumer,
		closers,
	)

	slogger.Info("all dependencies initialized", "storage_driver", cfg.StorageDriver)
	return application, nil
}

// buildStorage выбирает реализацию хранилища по STORAGE_DRIVER
func buildStorage(ctx context.Context, cfg *config.Config, slogger *slog.Logger) (ports.PerevalStorage, app.Closer, error) {
	switch cfg.StorageDriver {
	case config.DriverGORM:
		db, err := gormstorage.Open(cfg, slogger)
		if err != nil {
			return nil, app.Closer{}, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, app.Closer{}, fmt.Errorf("ошибка получения *sql.DB из GORM: %w", err)
		}
		closer := app.Closer{Name: "gorm", Close: sqlDB.Close}

		if cfg.MigrateOnStart {
			if err := gormstorage.AutoMigrate(db); err != nil {
				_ = closer.Close()
				return nil, app.Closer{}, err
			}
		}
		return gormstorage.NewPerevalStorage(db, slogger), closer, nil

	default:
		if cfg.MigrateOnStart {
			if err := client.ApplyMigrations(cfg.DSN(), slogger); err != nil {
				return nil, app.Closer{}, err
			}
		}
		dbClient, err := client.NewClient(ctx, cfg.DSN(), slogger)
		if err != nil {
			return nil, app.Closer{}, err
		}
		return storage.NewPerevalStorage(dbClient.DB, slogger), app.Closer{Name: "postgres", Close: dbClient.Close}, nil
	}
}
