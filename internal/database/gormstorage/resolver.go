package gormstorage

import (
	"errors"
	"fmt"

	"github.com/GoArmGo/Pereval/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// resolveUser находит пользователя по email или создаёт нового, не меняя существующего
func resolveUser(tx *gorm.DB, u domain.User) (int64, error) {
	m := userModel{Email: u.Email, Fam: u.Fam, Name: u.Name, Otc: u.Otc, Phone: u.Phone}
	id, err := takeOrCreate(tx, &userModel{}, &m, func(m *userModel) int64 { return m.ID },
		"email = ?", u.Email)
	if err != nil {
		return 0, fmt.Errorf("resolve user %s: %w", u.Email, err)
	}
	return id, nil
}

// resolveCoords находит точку по тройке координат или создаёт новую
func resolveCoords(tx *gorm.DB, c domain.Coords) (int64, error) {
	c = c.Normalized()
	m := coordsModel{Latitude: c.Latitude, Longitude: c.Longitude, Height: c.Height}
	id, err := takeOrCreate(tx, &coordsModel{}, &m, func(m *coordsModel) int64 { return m.ID },
		"latitude = ? AND longitude = ? AND height = ?", c.Latitude, c.Longitude, c.Height)
	if err != nil {
		return 0, fmt.Errorf("resolve coords (%v, %v, %d): %w", c.Latitude, c.Longitude, c.Height, err)
	}
	return id, nil
}

func takeOrCreate[M any](tx *gorm.DB, found *M, fresh *M, idOf func(*M) int64, query string, args ...any) (int64, error) {
	err := tx.Where(query, args...).Take(found).Error
	if err == nil {
		return idOf(found), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("select: %w", err)
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(fresh)
	if res.Error != nil {
		return 0, fmt.Errorf("insert: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return idOf(fresh), nil
	}

	// вставку опередила параллельная транзакция
	if err := tx.Where(query, args...).Take(found).Error; err != nil {
		return 0, fmt.Errorf("select after conflict: %w", err)
	}
	return idOf(found), nil
}
