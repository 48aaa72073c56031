package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/GoArmGo/Pereval/internal/domain"
	"github.com/GoArmGo/Pereval/internal/messaging/payloads"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeStorage хранилище в памяти для тестов бизнес-логики.
type fakeStorage struct {
	mu        sync.Mutex
	nextID    int64
	perevals  map[int64]*domain.Pereval
	submitted []*domain.NewPereval
	patches   []*domain.PerevalPatch
	err       error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{perevals: map[int64]*domain.Pereval{}}
}

func (f *fakeStorage) SubmitPereval(_ context.Context, p *domain.NewPereval) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.nextID++
	f.submitted = append(f.submitted, p)
	f.perevals[f.nextID] = &domain.Pereval{
		ID:          f.nextID,
		BeautyTitle: p.BeautyTitle,
		Title:       p.Title,
		OtherTitles: p.OtherTitles,
		Connect:     p.Connect,
		AddTime:     p.AddTime,
		Status:      domain.StatusNew,
		Level:       p.Level,
		User:        p.User,
		Coords:      p.Coords,
		Images:      p.Images,
	}
	return f.nextID, nil
}

func (f *fakeStorage) GetPerevalByID(_ context.Context, id int64) (*domain.Pereval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.perevals[id], nil
}

func (f *fakeStorage) ListPerevalsByEmail(_ context.Context, email string) ([]domain.Pereval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := []domain.Pereval{}
	for id := int64(1); id <= f.nextID; id++ {
		if p, ok := f.perevals[id]; ok && p.User.Email == email {
			list = append(list, *p)
		}
	}
	return list, f.err
}

func (f *fakeStorage) UpdatePereval(_ context.Context, id int64, patch *domain.PerevalPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	p, ok := f.perevals[id]
	if !ok {
		return domain.ErrPerevalNotFound
	}
	if !p.Status.Editable() {
		return &domain.NotEditableError{ID: id, Status: p.Status}
	}
	f.patches = append(f.patches, patch)
	if patch.Title.Set {
		p.Title = *patch.Title.Value
	}
	return nil
}

func (f *fakeStorage) Ping(context.Context) error { return f.err }

type fakePublisher struct {
	mu     sync.Mutex
	events []payloads.PerevalEvent
	err    error
}

func (f *fakePublisher) PublishPerevalEvent(_ context.Context, event payloads.PerevalEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeArchive struct {
	keys   []string
	bodies [][]byte
}

func (f *fakeArchive) UploadFile(_ context.Context, key string, reader io.Reader, contentType string) (string, error) {
	if contentType != "application/json" {
		return "", errors.New("unexpected content type " + contentType)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, body)
	return "http://archive/" + key, nil
}
