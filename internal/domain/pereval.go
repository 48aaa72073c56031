package domain

import (
	"time"
)

// Status описывает состояние модерации перевала.
type Status string

const (
	StatusNew      Status = "new"
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Editable сообщает, можно ли редактировать запись в этом статусе.
func (s Status) Editable() bool {
	return s == StatusNew
}

// AddTimeLayout формат add_time во входных данных и в ответах.
const AddTimeLayout = "2006-01-02 15:04:05"

// User представляет автора заявки,
// соответствует таблице users в бд
type User struct {
	ID    int64   `db:"id"`
	Email string  `db:"email"`
	Fam   string  `db:"fam"`
	Name  string  `db:"name"`
	Otc   *string `db:"otc"`
	Phone string  `db:"phone"`
}

// Coords представляет точку перевала, соответствует таблице coords.
// Уникальна по тройке (latitude, longitude, height).
type Coords struct {
	ID        int64   `db:"id"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
	Height    int     `db:"height"`
}

// Level категории трудности по сезонам. Summer и Autumn обязательны.
type Level struct {
	Winter *string `db:"level_winter"`
	Summer string  `db:"level_summer"`
	Autumn string  `db:"level_autumn"`
	Spring *string `db:"level_spring"`
}

// Image изображение перевала в бинарном виде.
type Image struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
	Data  []byte `db:"img"`
}

// Pereval представляет запись о перевале вместе со связанными сущностями,
// соответствует таблице pereval_added
type Pereval struct {
	ID          int64     `db:"id"`
	BeautyTitle string    `db:"beauty_title"`
	Title       string    `db:"title"`
	OtherTitles string    `db:"other_titles"`
	Connect     string    `db:"connect"`
	AddTime     time.Time `db:"add_time"`
	Status      Status    `db:"status"`
	UserID      int64     `db:"user_id"`
	CoordID     int64     `db:"coord_id"`
	Level

	User   User    `db:"-"`
	Coords Coords  `db:"-"`
	Images []Image `db:"-"`
}

// NewPereval данные новой заявки после семантической проверки.
// Статус не задаётся клиентом: запись всегда создаётся в StatusNew.
type NewPereval struct {
	BeautyTitle string
	Title       string
	OtherTitles string
	Connect     string
	AddTime     time.Time
	User        User
	Coords      Coords
	Level       Level
	Images      []Image
}

// PerevalPatch частичное обновление. Неустановленные поля не трогаются.
// Images == nil оставляет набор изображений без изменений.
type PerevalPatch struct {
	BeautyTitle Optional[string]
	Title       Optional[string]
	OtherTitles Optional[string]
	Connect     Optional[string]
	Coords      *Coords
	Level       LevelPatch
	Images      []Image
}

// LevelPatch частичное обновление сезонных категорий.
type LevelPatch struct {
	Winter Optional[string]
	Summer Optional[string]
	Autumn Optional[string]
	Spring Optional[string]
}

// Empty сообщает, что патч ничего не меняет.
func (p PerevalPatch) Empty() bool {
	return !p.BeautyTitle.Set && !p.Title.Set && !p.OtherTitles.Set && !p.Connect.Set &&
		p.Coords == nil && p.Images == nil &&
		!p.Level.Winter.Set && !p.Level.Summer.Set && !p.Level.Autumn.Set && !p.Level.Spring.Set
}
