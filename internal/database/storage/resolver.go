package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GoArmGo/Pereval/internal/domain"
	"github.com/jmoiron/sqlx"
)

// resolveUser возвращает id пользователя с таким email, создавая его при отсутствии.
// Остальные поля существующего пользователя не обновляются.
func resolveUser(ctx context.Context, tx *sqlx.Tx, u domain.User) (int64, error) {
	id, err := getOrInsert(ctx, tx,
		`SELECT id FROM users WHERE email = $1`, []any{u.Email},
		`INSERT INTO users (email, fam, name, otc, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
		RETURNING id`, []any{u.Email, u.Fam, u.Name, u.Otc, u.Phone},
	)
	if err != nil {
		return 0, fmt.Errorf("resolve user %s: %w", u.Email, err)
	}
	return id, nil
}

// resolveCoords возвращает id точки с такой тройкой координат, создавая её при отсутствии.
// Перед поиском координаты приводятся к канонической точности.
func resolveCoords(ctx context.Context, tx *sqlx.Tx, c domain.Coords) (int64, error) {
	c = c.Normalized()
	args := []any{c.Latitude, c.Longitude, c.Height}
	id, err := getOrInsert(ctx, tx,
		`SELECT id FROM coords WHERE latitude = $1 AND longitude = $2 AND height = $3`, args,
		`INSERT INTO coords (latitude, longitude, height)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT coords_triple_key DO NOTHING
		RETURNING id`, args,
	)
	if err != nil {
		return 0, fmt.Errorf("resolve coords (%v, %v, %d): %w", c.Latitude, c.Longitude, c.Height, err)
	}
	return id, nil
}

// getOrInsert ищет строку, при отсутствии вставляет её. Если вставка уступила
// параллельной транзакции (ON CONFLICT DO NOTHING без RETURNING), повторяет поиск
// отдельным запросом, который уже видит зафиксированную строку.
func getOrInsert(ctx context.Context, tx *sqlx.Tx, selectQuery string, selectArgs []any, insertQuery string, insertArgs []any) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, selectQuery, selectArgs...)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("select: %w", err)
	}

	err = tx.GetContext(ctx, &id, insertQuery, insertArgs...)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.GetContext(ctx, &id, selectQuery, selectArgs...)
	}
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return id, nil
}
