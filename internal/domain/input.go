package domain

import (
	"encoding/base64"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// coordScale фиксирует точность широты и долготы: 6 знаков после запятой (около 0.1 м).
// Координаты сравниваются на точное совпадение, поэтому округляются до записи и до поиска.
const coordScale = 1e6

// CoordsInput координаты в том виде, в каком их присылает клиент: строками.
type CoordsInput struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Height    string `json:"height"`
}

// ImageInput изображение в транспортной кодировке (base64).
type ImageInput struct {
	Data  string `json:"data"`
	Title string `json:"title"`
}

// ParseCoords разбирает строковые координаты и приводит их к каноническому виду.
func ParseCoords(in CoordsInput) (Coords, error) {
	lat, err := parseDegrees(in.Latitude, 90)
	if err != nil {
		return Coords{}, invalid("coords.latitude", err.Error())
	}
	lon, err := parseDegrees(in.Longitude, 180)
	if err != nil {
		return Coords{}, invalid("coords.longitude", err.Error())
	}
	height, err := parseHeight(in.Height)
	if err != nil {
		return Coords{}, invalid("coords.height", err.Error())
	}
	return Coords{Latitude: lat, Longitude: lon, Height: height}.Normalized(), nil
}

// Normalized округляет широту и долготу до фиксированной точности.
// Идемпотентна: повторное применение не меняет значение.
func (c Coords) Normalized() Coords {
	c.Latitude = roundCoord(c.Latitude)
	c.Longitude = roundCoord(c.Longitude)
	return c
}

func roundCoord(v float64) float64 {
	r := math.Round(v*coordScale) / coordScale
	if r == 0 {
		// -0 и 0 должны совпадать при поиске
		return 0
	}
	return r
}

type parseError string

func (e parseError) Error() string { return string(e) }

func parseDegrees(s string, limit float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, parseError("пустое значение")
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, parseError("не число: " + s)
	}
	if v < -limit || v > limit {
		return 0, parseError("вне диапазона: " + s)
	}
	return v, nil
}

func parseHeight(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, parseError("пустое значение")
	}
	// столбец height имеет тип INTEGER
	if h, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(h), nil
	} else if errors.Is(err, strconv.ErrRange) {
		return 0, parseError("вне диапазона: " + s)
	}
	// "1500.0" допустимо, "1500.5" нет
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, parseError("не целое число: " + s)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, parseError("вне диапазона: " + s)
	}
	return int(f), nil
}

// DecodeImages декодирует base64-изображения, сохраняя порядок.
// Пустой список считается ошибкой: у перевала всегда есть хотя бы одно изображение.
func DecodeImages(in []ImageInput) ([]Image, error) {
	if len(in) == 0 {
		return nil, invalid("images", "список изображений пуст")
	}
	images := make([]Image, 0, len(in))
	for i, img := range in {
		data, err := DecodeImageData(img.Data)
		if err != nil {
			return nil, invalid("images["+strconv.Itoa(i)+"].data", "некорректный base64")
		}
		images = append(images, Image{Title: img.Title, Data: data})
	}
	return images, nil
}

// DecodeImageData принимает base64 с паддингом и без, а также data URL.
func DecodeImageData(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	if s == "" {
		return nil, parseError("пустые данные")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(s)
	}
	return data, err
}

// EncodeImageData кодирует бинарные данные изображения для ответа.
func EncodeImageData(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// UserInput данные автора из заявки.
type UserInput struct {
	Email string
	Fam   string
	Name  string
	Otc   *string
	Phone string
}

// LevelInput сезонные категории из заявки.
type LevelInput struct {
	Winter *string
	Summer string
	Autumn string
	Spring *string
}

// SubmitInput заявка, прошедшая проверку формы: все обязательные поля присутствуют.
type SubmitInput struct {
	BeautyTitle string
	Title       string
	OtherTitles string
	Connect     string
	AddTime     string // пусто означает текущее время
	User        UserInput
	Coords      CoordsInput
	Level       LevelInput
	Images      []ImageInput
}

// UpdateInput частичное обновление в транспортном виде.
// Coords == nil и Images == nil означают «не трогать».
type UpdateInput struct {
	BeautyTitle Optional[string]
	Title       Optional[string]
	OtherTitles Optional[string]
	Connect     Optional[string]
	Coords      *CoordsInput
	Level       LevelPatch
	Images      *[]ImageInput
}

// ParseAddTime разбирает add_time в формате YYYY-MM-DD HH:MM:SS (допускается и RFC 3339).
func ParseAddTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.UTC().Truncate(time.Second), nil
	}
	if t, err := time.Parse(AddTimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, invalid("add_time", "ожидается формат YYYY-MM-DD HH:MM:SS")
	}
	// храним время без зоны, как пришло от клиента
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

// ToNewPereval выполняет семантическую проверку заявки до любой записи в хранилище.
func (in SubmitInput) ToNewPereval(now time.Time) (*NewPereval, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title", "пустое значение")
	}
	email := strings.TrimSpace(in.User.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("user.email", "некорректный email")
	}
	addTime, err := ParseAddTime(in.AddTime, now)
	if err != nil {
		return nil, err
	}
	coords, err := ParseCoords(in.Coords)
	if err != nil {
		return nil, err
	}
	images, err := DecodeImages(in.Images)
	if err != nil {
		return nil, err
	}

	return &NewPereval{
		BeautyTitle: in.BeautyTitle,
		Title:       in.Title,
		OtherTitles: in.OtherTitles,
		Connect:     in.Connect,
		AddTime:     addTime,
		User: User{
			Email: email,
			Fam:   in.User.Fam,
			Name:  in.User.Name,
			Otc:   in.User.Otc,
			Phone: in.User.Phone,
		},
		Coords: coords,
		Level: Level{
			Winter: in.Level.Winter,
			Summer: in.Level.Summer,
			Autumn: in.Level.Autumn,
			Spring: in.Level.Spring,
		},
		Images: images,
	}, nil
}

// ToPatch проверяет частичное обновление. Явный null допустим только для
// необязательных сезонов winter и spring.
func (in UpdateInput) ToPatch() (*PerevalPatch, error) {
	required := []struct {
		field string
		value Optional[string]
	}{
		{"beauty_title", in.BeautyTitle},
		{"title", in.Title},
		{"other_titles", in.OtherTitles},
		{"connect", in.Connect},
		{"level.summer", in.Level.Summer},
		{"level.autumn", in.Level.Autumn},
	}
	for _, r := range required {
		if r.value.Set && r.value.Value == nil {
			return nil, invalid(r.field, "null недопустим")
		}
	}
	if in.Title.Set && strings.TrimSpace(*in.Title.Value) == "" {
		return nil, invalid("title", "пустое значение")
	}

	patch := &PerevalPatch{
		BeautyTitle: in.BeautyTitle,
		Title:       in.Title,
		OtherTitles: in.OtherTitles,
		Connect:     in.Connect,
		Level:       in.Level,
	}
	if in.Coords != nil {
		coords, err := ParseCoords(*in.Coords)
		if err != nil {
			return nil, err
		}
		patch.Coords = &coords
	}
	if in.Images != nil {
		images, err := DecodeImages(*in.Images)
		if err != nil {
			return nil, err
		}
		patch.Images = images
	}

	if patch.Empty() {
		return nil, invalid("body", "нет данных для обновления")
	}
	return patch, nil
}
