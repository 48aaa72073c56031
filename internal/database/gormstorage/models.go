package gormstorage

import (
	"time"

	"github.com/GoArmGo/Pereval/internal/domain"
)

// userModel соответствует таблице users
type userModel struct {
	ID    int64   `gorm:"primaryKey"`
	Email string  `gorm:"type:varchar(320);not null;uniqueIndex:users_email_key"`
	Fam   string  `gorm:"not null"`
	Name  string  `gorm:"not null"`
	Otc   *string
	Phone string `gorm:"not null"`
}

func (userModel) TableName() string {
	return "users"
}

// coordsModel соответствует таблице coords, тройка координат уникальна
type coordsModel struct {
	ID        int64   `gorm:"primaryKey"`
	Latitude  float64 `gorm:"type:double precision;not null;uniqueIndex:coords_triple_key,priority:1"`
	Longitude float64 `gorm:"type:double precision;not null;uniqueIndex:coords_triple_key,priority:2"`
	Height    int     `gorm:"not null;uniqueIndex:coords_triple_key,priority:3"`
}

func (coordsModel) TableName() string {
	return "coords"
}

// perevalModel соответствует таблице pereval_added
type perevalModel struct {
	ID          int64     `gorm:"primaryKey"`
	BeautyTitle string    `gorm:"not null;default:''"`
	Title       string    `gorm:"not null"`
	OtherTitles string    `gorm:"not null;default:''"`
	Connect     string    `gorm:"not null;default:''"`
	AddTime     time.Time `gorm:"not null"`
	UserID      int64     `gorm:"not null;index"`
	CoordID     int64     `gorm:"not null"`
	Status      string    `gorm:"type:varchar(16);not null;default:new"`
	LevelWinter *string
	LevelSummer string `gorm:"not null"`
	LevelAutumn string `gorm:"not null"`
	LevelSpring *string
}

func (perevalModel) TableName() string {
	return "pereval_added"
}

// imageModel соответствует таблице pereval_images
type imageModel struct {
	ID        int64     `gorm:"primaryKey"`
	Img       []byte    `gorm:"not null"`
	Title     string    `gorm:"not null;default:''"`
	DateAdded time.Time `gorm:"autoCreateTime"`
}

func (imageModel) TableName() string {
	return "pereval_images"
}

// imageLinkModel связь перевала с изображением
type imageLinkModel struct {
	PerevalID int64 `gorm:"primaryKey;autoIncrement:false"`
	ImageID   int64 `gorm:"primaryKey;autoIncrement:false"`
}

func (imageLinkModel) TableName() string {
	return "pereval_image_links"
}

// allModels порядок важен для AutoMigrate
var allModels = []any{&userModel{}, &coordsModel{}, &perevalModel{}, &imageModel{}, &imageLinkModel{}}

func (m *perevalModel) toDomain() domain.Pereval {
	return domain.Pereval{
		ID:          m.ID,
		BeautyTitle: m.BeautyTitle,
		Title:       m.Title,
		OtherTitles: m.OtherTitles,
		Connect:     m.Connect,
		AddTime:     m.AddTime,
		Status:      domain.Status(m.Status),
		UserID:      m.UserID,
		CoordID:     m.CoordID,
		Level: domain.Level{
			Winter: m.LevelWinter,
			Summer: m.LevelSummer,
			Autumn: m.LevelAutumn,
			Spring: m.LevelSpring,
		},
	}
}

func (m *userModel) toDomain() domain.User {
	return domain.User{ID: m.ID, Email: m.Email, Fam: m.Fam, Name: m.Name, Otc: m.Otc, Phone: m.Phone}
}

func (m *coordsModel) toDomain() domain.Coords {
	return domain.Coords{ID: m.ID, Latitude: m.Latitude, Longitude: m.Longitude, Height: m.Height}
}
