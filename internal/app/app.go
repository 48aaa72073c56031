package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/Pereval/internal/config"
	"github.com/GoArmGo/Pereval/internal/core/ports"
	"github.com/GoArmGo/Pereval/internal/usecase"
)

const (
	ModeServer = "server"
	ModeWorker = "worker"
)

// Closer ресурс, который нужно закрыть при остановке.
type Closer struct {
	Name  string
	Close func() error
}

type App struct {
	Config         *config.Config
	logger         *slog.Logger
	storage        ports.PerevalStorage
	perevalUseCase usecase.PerevalUseCase
	archiveUseCase usecase.ArchiveUseCase
	eventConsumer  ports.PerevalEventConsumer
	closers        []Closer
}

// NewApp собирает приложение. archiveUseCase и eventConsumer нужны только воркеру и могут быть nil.
func NewApp(cfg *config.Config,
	logger *slog.Logger,
	storage ports.PerevalStorage,
	perevalUseCase usecase.PerevalUseCase,
	archiveUseCase usecase.ArchiveUseCase,
	eventConsumer ports.PerevalEventConsumer,
	closers []Closer) *App {
	return &App{
		Config:         cfg,
		logger:         logger,
		storage:        storage,
		perevalUseCase: perevalUseCase,
		archiveUseCase: archiveUseCase,
		eventConsumer:  eventConsumer,
		closers:        closers,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run запускает приложение в выбранном режиме и блокируется до SIGINT/SIGTERM
func (a *App) Run(ctx context.Context, mode string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting", "mode", mode)

	var err error
	switch mode {
	case ModeServer:
		err = a.runServer(ctx)
	case ModeWorker:
		err = a.runWorker(ctx)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", mode)
	}

	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown finished with errors", "error", closeErr)
	}
	if err != nil {
		return err
	}

	a.logger.Info("stopped gracefully")
	return nil
}

// Shutdown закрывает ресурсы в обратном порядке открытия
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("ошибка закрытия %s: %w", c.Name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
