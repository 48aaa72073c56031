package gormstorage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/GoArmGo/Pereval/internal/config"
	"github.com/GoArmGo/Pereval/internal/domain"
	"gorm.io/gorm"
)

// setupTestStorage поднимает хранилище на SQLite в памяти.
func setupTestStorage(t *testing.T) (*PerevalStorage, *gorm.DB) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{GormDialect: "sqlite", SQLitePath: ":memory:"}
	db, err := Open(cfg, logger)
	if err != nil {
		t.Fatalf("Не удалось открыть SQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("Не удалось выполнить AutoMigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })

	return NewPerevalStorage(db, logger), db
}

func strPtr(s string) *string { return &s }

func samplePereval(email string) *domain.NewPereval {
	return &domain.NewPereval{
		BeautyTitle: "пер. ",
		Title:       "Пхия",
		OtherTitles: "Триев",
		AddTime:     time.Date(2021, 9, 22, 13, 18, 13, 0, time.UTC),
		User:        domain.User{Email: email, Fam: "Пупкин", Name: "Василий", Otc: strPtr("Иванович"), Phone: "+7 555 55 55"},
		Coords:      domain.Coords{Latitude: 45.3842, Longitude: 7.1525, Height: 1200},
		Level:       domain.Level{Winter: strPtr("2А"), Summer: "1А", Autumn: "1А"},
		Images: []domain.Image{
			{Title: "Седловина", Data: []byte("first")},
			{Title: "Подъём", Data: []byte("second")},
		},
	}
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("Не удалось посчитать строки: %v", err)
	}
	return n
}

func TestSubmitAndGet(t *testing.T) {
	s, _ := setupTestStorage(t)
	ctx := context.Background()

	id, err := s.SubmitPereval(ctx, samplePereval("a@example.com"))
	if err != nil {
		t.Fatalf("SubmitPereval: %v", err)
	}

	p, err := s.GetPerevalByID(ctx, id)
	if err != nil {
		t.Fatalf("GetPerevalByID: %v", err)
	}
	if p == nil {
		t.Fatal("перевал не найден после вставки")
	}
	if p.Status != domain.StatusNew {
		t.Errorf("статус = %s, ожидался new", p.Status)
	}
	if p.Title != "Пхия" || p.User.Email != "a@example.com" || p.User.Otc == nil || *p.User.Otc != "Иванович" {
		t.Errorf("данные не совпадают: %+v", p)
	}
	if p.Coords.Latitude != 45.3842 || p.Coords.Height != 1200 {
		t.Errorf("координаты: %+v", p.Coords)
	}
	if p.Level.Winter == nil || *p.Level.Winter != "2А" || p.Level.Spring != nil {
		t.Errorf("уровни: %+v", p.Level)
	}
	if len(p.Images) != 2 || string(p.Images[0].Data) != "first" || p.Images[1].Title != "Подъём" {
		t.Errorf("изображения: %+v", p.Images)
	}
	if p.AddTime.Format(domain.AddTimeLayout) != "2021-09-22 13:18:13" {
		t.Errorf("add_time = %v", p.AddTime)
	}

	missing, err := s.GetPerevalByID(ctx, id+100)
	if err != nil || missing != nil {
		t.Errorf("для несуществующего id ожидалось (nil, nil), получено (%v, %v)", missing, err)
	}
}

func TestSubmitDeduplicatesUserAndCoords(t *testing.T) {
	s, db := setupTestStorage(t)
	ctx := context.Background()

	first := samplePereval("dup@example.com")
	if _, err := s.SubmitPereval(ctx, first); err != nil {
		t.Fatalf("первая заявка: %v", err)
	}

	second := samplePereval("dup@example.com")
	second.User.Fam = "Другой"
	second.Coords.Latitude = 45.38420004 // совпадает после округления
	id2, err := s.SubmitPereval(ctx, second)
	if err != nil {
		t.Fatalf("вторая заявка: %v", err)
	}

	if n := count(t, db, &userModel{}); n != 1 {
		t.Errorf("пользователей = %d, ожидался 1", n)
	}
	if n := count(t, db, &coordsModel{}); n != 1 {
		t.Errorf("точек = %d, ожидалась 1", n)
	}

	p, err := s.GetPerevalByID(ctx, id2)
	if err != nil {
		t.Fatalf("GetPerevalByID: %v", err)
	}
	if p.User.Fam != "Пупкин" {
		t.Errorf("существующий пользователь не должен перезаписываться, fam = %s", p.User.Fam)
	}
}

func TestSubmitIsAtomic(t *testing.T) {
	s, db := setupTestStorage(t)
	ctx := context.Background()

	// вставка второго изображения падает, когда автор и перевал уже записаны
	inserted := 0
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_second_image", func(tx *gorm.DB) {
		if tx.Statement.Table != "pereval_images" {
			return
		}
		inserted++
		if inserted == 2 {
			tx.AddError(errors.New("disk full"))
		}
	})
	if err != nil {
		t.Fatalf("Не удалось зарегистрировать callback: %v", err)
	}

	if _, err := s.SubmitPereval(ctx, samplePereval("atomic@example.com")); err == nil {
		t.Fatal("ожидалась ошибка вставки изображения")
	}

	for name, model := range map[string]any{
		"users":          &userModel{},
		"coords":         &coordsModel{},
		"pereval_added":  &perevalModel{},
		"pereval_images": &imageModel{},
		"image_links":    &imageLinkModel{},
	} {
		if n := count(t, db, model); n != 0 {
			t.Errorf("после отката в %s осталось %d строк", name, n)
		}
	}
}

func TestListPerevalsByEmail(t *testing.T) {
	s, _ := setupTestStorage(t)
	ctx := context.Background()

	id1, _ := s.SubmitPereval(ctx, samplePereval("list@example.com"))
	id2, _ := s.SubmitPereval(ctx, samplePereval("list@example.com"))
	if _, err := s.SubmitPereval(ctx, samplePereval("other@example.com")); err != nil {
		t.Fatalf("SubmitPereval: %v", err)
	}

	got, err := s.ListPerevalsByEmail(ctx, "list@example.com")
	if err != nil {
		t.Fatalf("ListPerevalsByEmail: %v", err)
	}
	if len(got) != 2 || got[0].ID != id1 || got[1].ID != id2 {
		t.Errorf("ожидались перевалы %d и %d, получено %+v", id1, id2, got)
	}

	none, err := s.ListPerevalsByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("ListPerevalsByEmail: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("для неизвестного email ожидался пустой список, получено %v", none)
	}
}

func TestUpdatePereval(t *testing.T) {
	s, db := setupTestStorage(t)
	ctx := context.Background()

	id, err := s.SubmitPereval(ctx, samplePereval("upd@example.com"))
	if err != nil {
		t.Fatalf("SubmitPereval: %v", err)
	}
	before, _ := s.GetPerevalByID(ctx, id)

	patch := &domain.PerevalPatch{
		Title:  domain.Some("Новое название"),
		Coords: &domain.Coords{Latitude: 46, Longitude: 8, Height: 1500},
		Level: domain.LevelPatch{
			Winter: domain.Null[string](),
			Spring: domain.Some("1Б"),
		},
		Images: []domain.Image{{Title: "Единственное", Data: []byte("only")}},
	}
	if err := s.UpdatePereval(ctx, id, patch); err != nil {
		t.Fatalf("UpdatePereval: %v", err)
	}

	after, err := s.GetPerevalByID(ctx, id)
	if err != nil {
		t.Fatalf("GetPerevalByID: %v", err)
	}
	if after.Title != "Новое название" {
		t.Errorf("title = %s", after.Title)
	}
	if after.OtherTitles != before.OtherTitles || after.Level.Summer != before.Level.Summer {
		t.Errorf("незатронутые поля изменились: %+v", after)
	}
	if after.Level.Winter != nil {
		t.Errorf("winter должен быть очищен, получено %v", *after.Level.Winter)
	}
	if after.Level.Spring == nil || *after.Level.Spring != "1Б" {
		t.Errorf("spring = %v", after.Level.Spring)
	}
	if after.Coords.Latitude != 46 || after.CoordID == before.CoordID {
		t.Errorf("координаты не обновлены: %+v", after.Coords)
	}
	if after.UserID != before.UserID || after.User.Email != before.User.Email || after.User.Fam != before.User.Fam {
		t.Errorf("автор не должен меняться: %+v != %+v", after.User, before.User)
	}
	if len(after.Images) != 1 || string(after.Images[0].Data) != "only" {
		t.Errorf("изображения: %+v", after.Images)
	}
	if n := count(t, db, &imageModel{}); n != 1 {
		t.Errorf("старые изображения не удалены, осталось %d", n)
	}
}

func TestUpdatePerevalIsAtomic(t *testing.T) {
	s, db := setupTestStorage(t)
	ctx := context.Background()

	id, err := s.SubmitPereval(ctx, samplePereval("upd-atomic@example.com"))
	if err != nil {
		t.Fatalf("SubmitPereval: %v", err)
	}
	before, _ := s.GetPerevalByID(ctx, id)

	// старые изображения уже удалены, когда падает вставка второго нового
	inserted := 0
	err = db.Callback().Create().Before("gorm:create").Register("test:fail_second_new_image", func(tx *gorm.DB) {
		if tx.Statement.Table != "pereval_images" {
			return
		}
		inserted++
		if inserted == 2 {
			tx.AddError(errors.New("disk full"))
		}
	})
	if err != nil {
		t.Fatalf("Не удалось зарегистрировать callback: %v", err)
	}

	patch := &domain.PerevalPatch{
		Title: domain.Some("Не сохранится"),
		Images: []domain.Image{
			{Title: "Новое 1", Data: []byte("new-1")},
			{Title: "Новое 2", Data: []byte("new-2")},
		},
	}
	if err := s.UpdatePereval(ctx, id, patch); err == nil {
		t.Fatal("ожидалась ошибка вставки изображения")
	}

	after, err := s.GetPerevalByID(ctx, id)
	if err != nil {
		t.Fatalf("GetPerevalByID: %v", err)
	}
	if after.Title != before.Title {
		t.Errorf("title изменился после отката: %s", after.Title)
	}
	if len(after.Images) != len(before.Images) {
		t.Fatalf("изображений = %d, ожидалось %d", len(after.Images), len(before.Images))
	}
	for i := range before.Images {
		if after.Images[i].ID != before.Images[i].ID || string(after.Images[i].Data) != string(before.Images[i].Data) {
			t.Errorf("изображение %d изменилось: %+v", i, after.Images[i])
		}
	}
	if n := count(t, db, &imageModel{}); n != 2 {
		t.Errorf("строк в pereval_images = %d, ожидалось 2", n)
	}
	if n := count(t, db, &imageLinkModel{}); n != 2 {
		t.Errorf("строк в pereval_image_links = %d, ожидалось 2", n)
	}
}

func TestUpdatePerevalErrors(t *testing.T) {
	s, db := setupTestStorage(t)
	ctx := context.Background()

	err := s.UpdatePereval(ctx, 999, &domain.PerevalPatch{Title: domain.Some("x")})
	if !errors.Is(err, domain.ErrPerevalNotFound) {
		t.Errorf("ожидалась ErrPerevalNotFound, получено %v", err)
	}

	id, err := s.SubmitPereval(ctx, samplePereval("locked@example.com"))
	if err != nil {
		t.Fatalf("SubmitPereval: %v", err)
	}
	if err := db.Model(&perevalModel{}).Where("id = ?", id).Update("status", string(domain.StatusAccepted)).Error; err != nil {
		t.Fatalf("Не удалось сменить статус: %v", err)
	}

	err = s.UpdatePereval(ctx, id, &domain.PerevalPatch{Title: domain.Some("x")})
	var notEditable *domain.NotEditableError
	if !errors.As(err, &notEditable) || notEditable.Status != domain.StatusAccepted {
		t.Fatalf("ожидалась NotEditableError со статусом accepted, получено %v", err)
	}
	if !errors.Is(err, domain.ErrNotEditable) {
		t.Errorf("ошибка должна соответствовать ErrNotEditable")
	}

	p, _ := s.GetPerevalByID(ctx, id)
	if p.Title != "Пхия" {
		t.Errorf("запись изменилась несмотря на отказ: %s", p.Title)
	}
}

func TestPing(t *testing.T) {
	s, _ := setupTestStorage(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
