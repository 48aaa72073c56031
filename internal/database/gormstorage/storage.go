package gormstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/Pereval/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PerevalStorage реализует ports.PerevalStorage с использованием GORM
type PerevalStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewPerevalStorage создает новый экземпляр PerevalStorage
func NewPerevalStorage(db *gorm.DB, logger *slog.Logger) *PerevalStorage {
	return &PerevalStorage{db: db, logger: logger}
}

// SubmitPereval сохраняет заявку, автора, координаты и изображения в одной транзакции
func (s *PerevalStorage) SubmitPereval(ctx context.Context, p *domain.NewPereval) (int64, error) {
	start := time.Now()

	var perevalID int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userID, err := resolveUser(tx, p.User)
		if err != nil {
			return err
		}
		coordID, err := resolveCoords(tx, p.Coords)
		if err != nil {
			return err
		}

		m := perevalModel{
			BeautyTitle: p.BeautyTitle,
			Title:       p.Title,
			OtherTitles: p.OtherTitles,
			Connect:     p.Connect,
			AddTime:     p.AddTime,
			UserID:      userID,
			CoordID:     coordID,
			Status:      string(domain.StatusNew),
			LevelWinter: p.Level.Winter,
			LevelSummer: p.Level.Summer,
			LevelAutumn: p.Level.Autumn,
			LevelSpring: p.Level.Spring,
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("insert pereval: %w", err)
		}
		perevalID = m.ID

		return insertImages(tx, perevalID, p.Images)
	})
	if err != nil {
		s.logger.Error("failed to submit pereval", "email", p.User.Email, "error", err)
		return 0, fmt.Errorf("ошибка при сохранении перевала с помощью GORM: %w", err)
	}

	s.logger.Info("pereval submitted",
		"pereval_id", perevalID,
		"images", len(p.Images),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return perevalID, nil
}

// GetPerevalByID получает перевал со связанными сущностями, nil если записи нет
func (s *PerevalStorage) GetPerevalByID(ctx context.Context, id int64) (*domain.Pereval, error) {
	var pereval *domain.Pereval
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m perevalModel
		err := tx.Take(&m, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("select pereval: %w", err)
		}

		var c coordsModel
		if err := tx.Take(&c, "id = ?", m.CoordID).Error; err != nil {
			return fmt.Errorf("select coords %d: %w", m.CoordID, err)
		}
		var u userModel
		if err := tx.Take(&u, "id = ?", m.UserID).Error; err != nil {
			return fmt.Errorf("select user %d: %w", m.UserID, err)
		}
		images, err := selectImages(tx, id)
		if err != nil {
			return err
		}

		p := m.toDomain()
		p.Coords = c.toDomain()
		p.User = u.toDomain()
		p.Images = images
		pereval = &p
		return nil
	}, s.readOptions())
	if err != nil {
		s.logger.Error("failed to get pereval by id", "pereval_id", id, "error", err)
		return nil, fmt.Errorf("ошибка при получении перевала по ID с помощью GORM: %w", err)
	}
	if pereval == nil {
		s.logger.Warn("pereval not found by id", "pereval_id", id)
	}
	return pereval, nil
}

// ListPerevalsByEmail перевалы автора по email, пустой список для неизвестного email
func (s *PerevalStorage) ListPerevalsByEmail(ctx context.Context, email string) ([]domain.Pereval, error) {
	perevals := []domain.Pereval{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u userModel
		err := tx.Select("id").Take(&u, "email = ?", email).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("select user: %w", err)
		}

		var models []perevalModel
		if err := tx.Where("user_id = ?", u.ID).Order("id").Find(&models).Error; err != nil {
			return fmt.Errorf("select perevals: %w", err)
		}
		for i := range models {
			perevals = append(perevals, models[i].toDomain())
		}
		return nil
	}, s.readOptions())
	if err != nil {
		s.logger.Error("failed to list perevals by email", "email", email, "error", err)
		return nil, fmt.Errorf("ошибка при получении перевалов по email с помощью GORM: %w", err)
	}
	return perevals, nil
}

// UpdatePereval частично обновляет перевал в статусе new
func (s *PerevalStorage) UpdatePereval(ctx context.Context, id int64, patch *domain.PerevalPatch) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m perevalModel
		err := s.lockForUpdate(tx).Select("id", "status").Take(&m, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPerevalNotFound
		}
		if err != nil {
			return fmt.Errorf("select status: %w", err)
		}
		if status := domain.Status(m.Status); !status.Editable() {
			return &domain.NotEditableError{ID: id, Status: status}
		}

		updates := map[string]any{}
		setOptional(updates, "beauty_title", patch.BeautyTitle)
		setOptional(updates, "title", patch.Title)
		setOptional(updates, "other_titles", patch.OtherTitles)
		setOptional(updates, "connect", patch.Connect)
		setOptional(updates, "level_winter", patch.Level.Winter)
		setOptional(updates, "level_summer", patch.Level.Summer)
		setOptional(updates, "level_autumn", patch.Level.Autumn)
		setOptional(updates, "level_spring", patch.Level.Spring)

		if patch.Coords != nil {
			coordID, err := resolveCoords(tx, *patch.Coords)
			if err != nil {
				return err
			}
			updates["coord_id"] = coordID
		}

		if len(updates) > 0 {
			if err := tx.Model(&perevalModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("update pereval: %w", err)
			}
		}

		if patch.Images != nil {
			return replaceImages(tx, id, patch.Images)
		}
		return nil
	})

	var notEditable *domain.NotEditableError
	switch {
	case errors.Is(err, domain.ErrPerevalNotFound):
		s.logger.Warn("pereval not found for update", "pereval_id", id)
		return err
	case errors.As(err, &notEditable):
		s.logger.Warn("pereval is not editable", "pereval_id", id, "status", notEditable.Status)
		return err
	case err != nil:
		s.logger.Error("failed to update pereval", "pereval_id", id, "error", err)
		return fmt.Errorf("ошибка при обновлении перевала с помощью GORM: %w", err)
	}

	s.logger.Info("pereval updated", "pereval_id", id)
	return nil
}

func (s *PerevalStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// lockForUpdate SELECT ... FOR UPDATE там, где диалект поддерживает блокировку строк.
// SQLite блокирует всю базу на запись, отдельная блокировка не нужна.
func (s *PerevalStorage) lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *PerevalStorage) readOptions() *sql.TxOptions {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

func setOptional(updates map[string]any, column string, v domain.Optional[string]) {
	if !v.Set {
		return
	}
	if v.Value == nil {
		updates[column] = nil
		return
	}
	updates[column] = *v.Value
}
