package storage

import (
	"context"
	"fmt"

	"github.com/GoArmGo/Pereval/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// insertImages вставляет изображения и связи с перевалом в порядке входного списка.
func insertImages(ctx context.Context, tx *sqlx.Tx, perevalID int64, images []domain.Image) error {
	for i, img := range images {
		var imageID int64
		err := tx.GetContext(ctx, &imageID,
			`INSERT INTO pereval_images (img, title) VALUES ($1, $2) RETURNING id`,
			img.Data, img.Title,
		)
		if err != nil {
			return fmt.Errorf("insert image %d: %w", i, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO pereval_image_links (pereval_id, image_id) VALUES ($1, $2)`,
			perevalID, imageID,
		)
		if err != nil {
			return fmt.Errorf("link image %d: %w", i, err)
		}
	}
	return nil
}

// replaceImages удаляет все связи и сами изображения перевала, затем вставляет новый набор.
func replaceImages(ctx context.Context, tx *sqlx.Tx, perevalID int64, images []domain.Image) error {
	var oldIDs []int64
	err := tx.SelectContext(ctx, &oldIDs,
		`DELETE FROM pereval_image_links WHERE pereval_id = $1 RETURNING image_id`,
		perevalID,
	)
	if err != nil {
		return fmt.Errorf("delete image links: %w", err)
	}

	if len(oldIDs) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pereval_images WHERE id = ANY($1)`,
			pq.Array(oldIDs),
		); err != nil {
			return fmt.Errorf("delete images: %w", err)
		}
	}

	return insertImages(ctx, tx, perevalID, images)
}

// selectImages возвращает изображения перевала в порядке добавления.
func selectImages(ctx context.Context, tx *sqlx.Tx, perevalID int64) ([]domain.Image, error) {
	images := []domain.Image{}
	err := tx.SelectContext(ctx, &images, `
		SELECT i.id, i.title, i.img
		FROM pereval_image_links l
		JOIN pereval_images i ON l.image_id = i.id
		WHERE l.pereval_id = $1
		ORDER BY i.id`,
		perevalID,
	)
	if err != nil {
		return nil, fmt.Errorf("select images: %w", err)
	}
	return images, nil
}
