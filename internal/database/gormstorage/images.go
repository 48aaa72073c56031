package gormstorage

import (
	"fmt"

	"github.com/GoArmGo/Pereval/internal/domain"
	"gorm.io/gorm"
)

func insertImages(tx *gorm.DB, perevalID int64, images []domain.Image) error {
	for i, img := range images {
		m := imageModel{Img: img.Data, Title: img.Title}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("insert image %d: %w", i, err)
		}
		if err := tx.Create(&imageLinkModel{PerevalID: perevalID, ImageID: m.ID}).Error; err != nil {
			return fmt.Errorf("link image %d: %w", i, err)
		}
	}
	return nil
}

func replaceImages(tx *gorm.DB, perevalID int64, images []domain.Image) error {
	var oldIDs []int64
	if err := tx.Model(&imageLinkModel{}).Where("pereval_id = ?", perevalID).Pluck("image_id", &oldIDs).Error; err != nil {
		return fmt.Errorf("select image links: %w", err)
	}
	if err := tx.Where("pereval_id = ?", perevalID).Delete(&imageLinkModel{}).Error; err != nil {
		return fmt.Errorf("delete image links: %w", err)
	}
	if len(oldIDs) > 0 {
		if err := tx.Delete(&imageModel{}, oldIDs).Error; err != nil {
			return fmt.Errorf("delete images: %w", err)
		}
	}
	return insertImages(tx, perevalID, images)
}

func selectImages(tx *gorm.DB, perevalID int64) ([]domain.Image, error) {
	var rows []imageModel
	err := tx.Table("pereval_images AS i").
		Select("i.id, i.title, i.img").
		Joins("JOIN pereval_image_links l ON l.image_id = i.id").
		Where("l.pereval_id = ?", perevalID).
		Order("i.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("select images: %w", err)
	}

	images := make([]domain.Image, 0, len(rows))
	for _, r := range rows {
		images = append(images, domain.Image{ID: r.ID, Title: r.Title, Data: r.Img})
	}
	return images, nil
}
