package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoArmGo/Pereval/internal/core/ports"
	"github.com/GoArmGo/Pereval/internal/domain"
	"github.com/GoArmGo/Pereval/internal/messaging/payloads"
)

func validSubmitInput() domain.SubmitInput {
	return domain.SubmitInput{
		BeautyTitle: "пер. ",
		Title:       "Пхия",
		OtherTitles: "Триев",
		User:        domain.UserInput{Email: "qwerty@mail.ru", Fam: "Пупкин", Name: "Василий", Phone: "+7 555 55 55"},
		Coords:      domain.CoordsInput{Latitude: "45.3842", Longitude: "7.1525", Height: "1200"},
		Level:       domain.LevelInput{Summer: "1А", Autumn: "1А"},
		Images:      []domain.ImageInput{{Data: "aGVsbG8=", Title: "Седловина"}},
	}
}

func newTestUseCase(storage *fakeStorage, publisher *fakePublisher) *perevalUseCase {
	var pub ports.PerevalEventPublisher
	if publisher != nil {
		pub = publisher
	}
	uc := NewPerevalUseCase(storage, pub, discardLogger).(*perevalUseCase)
	uc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return uc
}

func TestSubmitPereval(t *testing.T) {
	storage := newFakeStorage()
	publisher := &fakePublisher{}
	uc := newTestUseCase(storage, publisher)

	id, err := uc.SubmitPereval(context.Background(), validSubmitInput())
	if err != nil {
		t.Fatalf("SubmitPereval: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, ожидался 1", id)
	}

	np := storage.submitted[0]
	if np.AddTime.Format(domain.AddTimeLayout) != "2024-05-01 12:00:00" {
		t.Errorf("add_time по умолчанию должен быть текущим временем, получено %v", np.AddTime)
	}
	if string(np.Images[0].Data) != "hello" {
		t.Errorf("изображение не декодировано: %q", np.Images[0].Data)
	}

	if len(publisher.events) != 1 || publisher.events[0].Type != payloads.PerevalSubmitted || publisher.events[0].PerevalID != id {
		t.Errorf("ожидалось событие pereval.submitted, получено %+v", publisher.events)
	}
}

func TestSubmitPerevalValidationHappensBeforeWrite(t *testing.T) {
	storage := newFakeStorage()
	publisher := &fakePublisher{}
	uc := newTestUseCase(storage, publisher)

	cases := map[string]func(in *domain.SubmitInput){
		"широта вне диапазона": func(in *domain.SubmitInput) { in.Coords.Latitude = "91" },
		"битый base64":         func(in *domain.SubmitInput) { in.Images[0].Data = "%%%" },
		"без изображений":      func(in *domain.SubmitInput) { in.Images = nil },
		"пустой email":         func(in *domain.SubmitInput) { in.User.Email = "" },
		"кривое add_time":      func(in *domain.SubmitInput) { in.AddTime = "вчера" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validSubmitInput()
			mutate(&in)
			if _, err := uc.SubmitPereval(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("ожидалась ErrInvalidInput, получено %v", err)
			}
		})
	}

	if len(storage.submitted) != 0 {
		t.Errorf("хранилище не должно вызываться при некорректных данных")
	}
	if len(publisher.events) != 0 {
		t.Errorf("события не должны публиковаться при отказе")
	}
}

func TestSubmitPerevalPublishFailureDoesNotFail(t *testing.T) {
	storage := newFakeStorage()
	uc := newTestUseCase(storage, &fakePublisher{err: errors.New("broker down")})

	if _, err := uc.SubmitPereval(context.Background(), validSubmitInput()); err != nil {
		t.Fatalf("ошибка публикации не должна отменять заявку: %v", err)
	}
	if len(storage.submitted) != 1 {
		t.Errorf("заявка должна быть сохранена")
	}
}

func TestSubmitPerevalWithoutPublisher(t *testing.T) {
	uc := NewPerevalUseCase(newFakeStorage(), nil, discardLogger)
	if _, err := uc.SubmitPereval(context.Background(), validSubmitInput()); err != nil {
		t.Fatalf("SubmitPereval: %v", err)
	}
}

func TestSubmitPerevalStorageError(t *testing.T) {
	storage := newFakeStorage()
	storage.err = errors.New("connection refused")
	publisher := &fakePublisher{}
	uc := newTestUseCase(storage, publisher)

	_, err := uc.SubmitPereval(context.Background(), validSubmitInput())
	if err == nil || errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("ожидалась внутренняя ошибка, получено %v", err)
	}
	if len(publisher.events) != 0 {
		t.Errorf("событие не должно публиковаться без коммита")
	}
}

func TestGetPereval(t *testing.T) {
	storage := newFakeStorage()
	uc := newTestUseCase(storage, nil)
	ctx := context.Background()

	id, _ := uc.SubmitPereval(ctx, validSubmitInput())

	view, err := uc.GetPereval(ctx, id)
	if err != nil {
		t.Fatalf("GetPereval: %v", err)
	}
	if view.ID != id || view.User.Email != "qwerty@mail.ru" || view.Images[0].Data != "aGVsbG8=" {
		t.Errorf("представление: %+v", view)
	}

	for _, missing := range []int64{0, -1, 999} {
		if _, err := uc.GetPereval(ctx, missing); !errors.Is(err, domain.ErrPerevalNotFound) {
			t.Errorf("id %d: ожидалась ErrPerevalNotFound, получено %v", missing, err)
		}
	}
}

func TestListPerevalsByEmail(t *testing.T) {
	storage := newFakeStorage()
	uc := newTestUseCase(storage, nil)
	ctx := context.Background()

	uc.SubmitPereval(ctx, validSubmitInput())
	uc.SubmitPereval(ctx, validSubmitInput())

	list, err := uc.ListPerevalsByEmail(ctx, " qwerty@mail.ru ")
	if err != nil {
		t.Fatalf("ListPerevalsByEmail: %v", err)
	}
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 2 {
		t.Errorf("список: %+v", list)
	}

	empty, err := uc.ListPerevalsByEmail(ctx, "nobody@mail.ru")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("ожидался пустой список, получено (%v, %v)", empty, err)
	}

	if _, err := uc.ListPerevalsByEmail(ctx, "  "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("пустой email: ожидалась ErrInvalidInput, получено %v", err)
	}
}

func TestUpdatePereval(t *testing.T) {
	storage := newFakeStorage()
	publisher := &fakePublisher{}
	uc := newTestUseCase(storage, publisher)
	ctx := context.Background()

	id, _ := uc.SubmitPereval(ctx, validSubmitInput())
	publisher.events = nil

	err := uc.UpdatePereval(ctx, id, domain.UpdateInput{Title: domain.Some("Новое")})
	if err != nil {
		t.Fatalf("UpdatePereval: %v", err)
	}
	if storage.perevals[id].Title != "Новое" {
		t.Errorf("title не обновлён")
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != payloads.PerevalUpdated {
		t.Errorf("ожидалось событие pereval.updated, получено %+v", publisher.events)
	}

	if err := uc.UpdatePereval(ctx, id, domain.UpdateInput{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("пустой патч: ожидалась ErrInvalidInput, получено %v", err)
	}

	if err := uc.UpdatePereval(ctx, 999, domain.UpdateInput{Title: domain.Some("x")}); !errors.Is(err, domain.ErrPerevalNotFound) {
		t.Errorf("ожидалась ErrPerevalNotFound, получено %v", err)
	}

	storage.perevals[id].Status = domain.StatusRejected
	err = uc.UpdatePereval(ctx, id, domain.UpdateInput{Title: domain.Some("x")})
	var notEditable *domain.NotEditableError
	if !errors.As(err, &notEditable) || notEditable.Status != domain.StatusRejected {
		t.Errorf("ожидалась NotEditableError, получено %v", err)
	}
	if len(storage.patches) != 1 {
		t.Errorf("в хранилище должен дойти только один патч, дошло %d", len(storage.patches))
	}
}
