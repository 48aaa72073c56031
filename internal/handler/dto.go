package handler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/GoArmGo/Pereval/internal/domain"
)

// errShape ошибка формы запроса: нет обязательного поля или неверный тип.
type errShape struct {
	field string
}

func (e errShape) Error() string {
	return "отсутствует обязательное поле " + e.field
}

// flexString принимает и строку, и число: координаты приходят в обоих видах.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ожидается строка или число: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

type userRequest struct {
	Email *string `json:"email"`
	Fam   *string `json:"fam"`
	Name  *string `json:"name"`
	Otc   *string `json:"otc"`
	Phone *string `json:"phone"`
}

type coordsRequest struct {
	Latitude  *flexString `json:"latitude"`
	Longitude *flexString `json:"longitude"`
	Height    *flexString `json:"height"`
}

type levelRequest struct {
	Winter *string `json:"winter"`
	Summer *string `json:"summer"`
	Autumn *string `json:"autumn"`
	Spring *string `json:"spring"`
}

type imageRequest struct {
	Data  *string `json:"data"`
	Title *string `json:"title"`
}

// submitRequest тело POST /submitData
type submitRequest struct {
	BeautyTitle *string        `json:"beauty_title"`
	Title       *string        `json:"title"`
	OtherTitles string         `json:"other_titles"`
	Connect     string         `json:"connect"`
	AddTime     string         `json:"add_time"`
	User        *userRequest   `json:"user"`
	Coords      *coordsRequest `json:"coords"`
	Level       *levelRequest  `json:"level"`
	Images      []imageRequest `json:"images"`
}

// levelPatchRequest различает отсутствующий ключ и явный null.
type levelPatchRequest struct {
	Winter domain.Optional[string] `json:"winter"`
	Summer domain.Optional[string] `json:"summer"`
	Autumn domain.Optional[string] `json:"autumn"`
	Spring domain.Optional[string] `json:"spring"`
}

// updateRequest тело PATCH /submitData/{id}. Поле user не читается: автор заявки неизменен.
type updateRequest struct {
	BeautyTitle domain.Optional[string] `json:"beauty_title"`
	Title       domain.Optional[string] `json:"title"`
	OtherTitles domain.Optional[string] `json:"other_titles"`
	Connect     domain.Optional[string] `json:"connect"`
	Coords      *coordsRequest          `json:"coords"`
	Level       *levelPatchRequest      `json:"level"`
	Images      *[]imageRequest         `json:"images"`
}

func (c *coordsRequest) toInput() (domain.CoordsInput, error) {
	switch {
	case c.Latitude == nil:
		return domain.CoordsInput{}, errShape{"coords.latitude"}
	case c.Longitude == nil:
		return domain.CoordsInput{}, errShape{"coords.longitude"}
	case c.Height == nil:
		return domain.CoordsInput{}, errShape{"coords.height"}
	}
	return domain.CoordsInput{
		Latitude:  string(*c.Latitude),
		Longitude: string(*c.Longitude),
		Height:    string(*c.Height),
	}, nil
}

func imagesToInput(images []imageRequest) ([]domain.ImageInput, error) {
	out := make([]domain.ImageInput, 0, len(images))
	for i, img := range images {
		if img.Data == nil {
			return nil, errShape{fmt.Sprintf("images[%d].data", i)}
		}
		if img.Title == nil {
			return nil, errShape{fmt.Sprintf("images[%d].title", i)}
		}
		out = append(out, domain.ImageInput{Data: *img.Data, Title: *img.Title})
	}
	return out, nil
}

// toInput проверяет наличие обязательных полей. Значения проверяет бизнес-логика.
func (r *submitRequest) toInput() (domain.SubmitInput, error) {
	required := []struct {
		field string
		ok    bool
	}{
		{"beauty_title", r.BeautyTitle != nil},
		{"title", r.Title != nil},
		{"user", r.User != nil},
		{"coords", r.Coords != nil},
		{"level", r.Level != nil},
		{"images", len(r.Images) > 0},
	}
	for _, f := range required {
		if !f.ok {
			return domain.SubmitInput{}, errShape{f.field}
		}
	}

	u := r.User
	switch {
	case u.Email == nil:
		return domain.SubmitInput{}, errShape{"user.email"}
	case u.Fam == nil:
		return domain.SubmitInput{}, errShape{"user.fam"}
	case u.Name == nil:
		return domain.SubmitInput{}, errShape{"user.name"}
	case u.Phone == nil:
		return domain.SubmitInput{}, errShape{"user.phone"}
	}
	if r.Level.Summer == nil {
		return domain.SubmitInput{}, errShape{"level.summer"}
	}
	if r.Level.Autumn == nil {
		return domain.SubmitInput{}, errShape{"level.autumn"}
	}

	coords, err := r.Coords.toInput()
	if err != nil {
		return domain.SubmitInput{}, err
	}
	images, err := imagesToInput(r.Images)
	if err != nil {
		return domain.SubmitInput{}, err
	}

	return domain.SubmitInput{
		BeautyTitle: *r.BeautyTitle,
		Title:       *r.Title,
		OtherTitles: r.OtherTitles,
		Connect:     r.Connect,
		AddTime:     r.AddTime,
		User: domain.UserInput{
			Email: *u.Email,
			Fam:   *u.Fam,
			Name:  *u.Name,
			Otc:   u.Otc,
			Phone: *u.Phone,
		},
		Coords: coords,
		Level: domain.LevelInput{
			Winter: r.Level.Winter,
			Summer: *r.Level.Summer,
			Autumn: *r.Level.Autumn,
			Spring: r.Level.Spring,
		},
		Images: images,
	}, nil
}

func (r *updateRequest) toInput() (domain.UpdateInput, error) {
	in := domain.UpdateInput{
		BeautyTitle: r.BeautyTitle,
		Title:       r.Title,
		OtherTitles: r.OtherTitles,
		Connect:     r.Connect,
	}
	if r.Coords != nil {
		coords, err := r.Coords.toInput()
		if err != nil {
			return domain.UpdateInput{}, err
		}
		in.Coords = &coords
	}
	if r.Level != nil {
		in.Level = domain.LevelPatch{
			Winter: r.Level.Winter,
			Summer: r.Level.Summer,
			Autumn: r.Level.Autumn,
			Spring: r.Level.Spring,
		}
	}
	if r.Images != nil {
		images, err := imagesToInput(*r.Images)
		if err != nil {
			return domain.UpdateInput{}, err
		}
		in.Images = &images
	}
	return in, nil
}
