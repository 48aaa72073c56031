package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/Pereval/internal/domain"
	"github.com/jmoiron/sqlx"
)

const perevalColumns = `id, beauty_title, title, other_titles, connect, add_time, status,
	user_id, coord_id, level_winter, level_summer, level_autumn, level_spring`

// PerevalStorage хранилище перевалов поверх sqlx и PostgreSQL.
type PerevalStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewPerevalStorage(db *sqlx.DB, logger *slog.Logger) *PerevalStorage {
	return &PerevalStorage{db: db, logger: logger}
}

// SubmitPereval сохраняет новую заявку целиком в одной транзакции и возвращает id перевала
func (s *PerevalStorage) SubmitPereval(ctx context.Context, p *domain.NewPereval) (int64, error) {
	start := time.Now()

	var perevalID int64
	err := s.withTx(ctx, nil, func(tx *sqlx.Tx) error {
		userID, err := resolveUser(ctx, tx, p.User)
		if err != nil {
			return err
		}
		coordID, err := resolveCoords(ctx, tx, p.Coords)
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &perevalID, `
			INSERT INTO pereval_added (
				beauty_title, title, other_titles, connect, add_time,
				user_id, coord_id, status,
				level_winter, level_summer, level_autumn, level_spring
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`,
			p.BeautyTitle, p.Title, p.OtherTitles, p.Connect, p.AddTime,
			userID, coordID, domain.StatusNew,
			p.Level.Winter, p.Level.Summer, p.Level.Autumn, p.Level.Spring,
		)
		if err != nil {
			return fmt.Errorf("insert pereval: %w", err)
		}

		return insertImages(ctx, tx, perevalID, p.Images)
	})
	if err != nil {
		s.logger.Error("failed to submit pereval", "email", p.User.Email, "error", err)
		return 0, fmt.Errorf("ошибка при сохранении перевала: %w", err)
	}

	s.logger.Info("pereval submitted",
		"pereval_id", perevalID,
		"images", len(p.Images),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return perevalID, nil
}

// GetPerevalByID собирает перевал вместе с автором, координатами и изображениями.
// Возвращает nil, nil если записи нет.
func (s *PerevalStorage) GetPerevalByID(ctx context.Context, id int64) (*domain.Pereval, error) {
	start := time.Now()

	var pereval *domain.Pereval
	err := s.withTx(ctx, readSnapshot, func(tx *sqlx.Tx) error {
		var p domain.Pereval
		err := tx.GetContext(ctx, &p, `SELECT `+perevalColumns+` FROM pereval_added WHERE id = $1`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("select pereval: %w", err)
		}

		if err := tx.GetContext(ctx, &p.Coords,
			`SELECT id, latitude, longitude, height FROM coords WHERE id = $1`, p.CoordID); err != nil {
			return fmt.Errorf("select coords %d: %w", p.CoordID, err)
		}
		if err := tx.GetContext(ctx, &p.User,
			`SELECT id, email, fam, name, otc, phone FROM users WHERE id = $1`, p.UserID); err != nil {
			return fmt.Errorf("select user %d: %w", p.UserID, err)
		}

		images, err := selectImages(ctx, tx, id)
		if err != nil {
			return err
		}
		p.Images = images
		pereval = &p
		return nil
	})
	if err != nil {
		s.logger.Error("failed to get pereval by id", "pereval_id", id, "error", err)
		return nil, fmt.Errorf("ошибка при получении перевала по ID: %w", err)
	}

	if pereval == nil {
		s.logger.Warn("pereval not found by id", "pereval_id", id)
		return nil, nil
	}

	s.logger.Info("pereval retrieved by id",
		"pereval_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return pereval, nil
}

// ListPerevalsByEmail возвращает перевалы автора. Неизвестный email даёт пустой список.
func (s *PerevalStorage) ListPerevalsByEmail(ctx context.Context, email string) ([]domain.Pereval, error) {
	start := time.Now()

	perevals := []domain.Pereval{}
	err := s.withTx(ctx, readSnapshot, func(tx *sqlx.Tx) error {
		var userID int64
		err := tx.GetContext(ctx, &userID, `SELECT id FROM users WHERE email = $1`, email)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("select user: %w", err)
		}

		if err := tx.SelectContext(ctx, &perevals,
			`SELECT `+perevalColumns+` FROM pereval_added WHERE user_id = $1 ORDER BY id`, userID); err != nil {
			return fmt.Errorf("select perevals: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to list perevals by email", "email", email, "error", err)
		return nil, fmt.Errorf("ошибка при получении перевалов по email: %w", err)
	}

	s.logger.Info("perevals listed by email",
		"email", email,
		"count", len(perevals),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return perevals, nil
}

// UpdatePereval применяет частичное обновление. Строка перевала блокируется
// (SELECT ... FOR UPDATE) от проверки статуса до коммита.
func (s *PerevalStorage) UpdatePereval(ctx context.Context, id int64, patch *domain.PerevalPatch) error {
	start := time.Now()

	err := s.withTx(ctx, nil, func(tx *sqlx.Tx) error {
		var status domain.Status
		err := tx.GetContext(ctx, &status, `SELECT status FROM pereval_added WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrPerevalNotFound
		}
		if err != nil {
			return fmt.Errorf("select status: %w", err)
		}
		if !status.Editable() {
			return &domain.NotEditableError{ID: id, Status: status}
		}

		set := newSetBuilder()
		set.optional("beauty_title", patch.BeautyTitle)
		set.optional("title", patch.Title)
		set.optional("other_titles", patch.OtherTitles)
		set.optional("connect", patch.Connect)
		set.optional("level_winter", patch.Level.Winter)
		set.optional("level_summer", patch.Level.Summer)
		set.optional("level_autumn", patch.Level.Autumn)
		set.optional("level_spring", patch.Level.Spring)

		if patch.Coords != nil {
			coordID, err := resolveCoords(ctx, tx, *patch.Coords)
			if err != nil {
				return err
			}
			set.add("coord_id", coordID)
		}

		if !set.empty() {
			query, args := set.build("pereval_added", id)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("update pereval: %w", err)
			}
		}

		if patch.Images != nil {
			return replaceImages(ctx, tx, id, patch.Images)
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
		return fmt.Errorf("ошибка при обновлении перевала: %w", err)
	}

	s.logger.Info("pereval updated",
		"pereval_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *PerevalStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// setBuilder собирает SET-часть UPDATE только из переданных полей.
type setBuilder struct {
	columns []string
	args    []any
}

func newSetBuilder() *setBuilder {
	return &setBuilder{}
}

func (b *setBuilder) add(column string, value any) {
	b.args = append(b.args, value)
	b.columns = append(b.columns, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

// optional добавляет колонку, только если поле присутствовало во входных данных.
// Явный null записывается как NULL.
func (b *setBuilder) optional(column string, v domain.Optional[string]) {
	if !v.Set {
		return
	}
	if v.Value == nil {
		b.add(column, nil)
		return
	}
	b.add(column, *v.Value)
}

func (b *setBuilder) empty() bool {
	return len(b.columns) == 0
}

func (b *setBuilder) build(table string, id int64) (string, []any) {
	args := append(b.args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(b.columns, ", "), len(args))
	return query, args
}
