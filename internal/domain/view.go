package domain

// LevelView категории трудности в ответе.
type LevelView struct {
	Winter *string `json:"winter"`
	Summer string  `json:"summer"`
	Autumn string  `json:"autumn"`
	Spring *string `json:"spring"`
}

type CoordsView struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Height    int     `json:"height"`
}

type UserView struct {
	Email string  `json:"email"`
	Fam   string  `json:"fam"`
	Name  string  `json:"name"`
	Otc   *string `json:"otc"`
	Phone string  `json:"phone"`
}

type ImageView struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Data  string `json:"data"`
}

// PerevalSummary краткое представление для выборки по email: без координат, автора и изображений.
type PerevalSummary struct {
	ID          int64     `json:"id"`
	BeautyTitle string    `json:"beauty_title"`
	Title       string    `json:"title"`
	OtherTitles string    `json:"other_titles"`
	Connect     string    `json:"connect"`
	AddTime     string    `json:"add_time"`
	Status      Status    `json:"status"`
	Level       LevelView `json:"level"`
}

// PerevalView полное денормализованное представление перевала.
type PerevalView struct {
	PerevalSummary
	Coords CoordsView  `json:"coords"`
	User   UserView    `json:"user"`
	Images []ImageView `json:"images"`
}

// Summary строит краткое представление записи.
func (p *Pereval) Summary() PerevalSummary {
	return PerevalSummary{
		ID:          p.ID,
		BeautyTitle: p.BeautyTitle,
		Title:       p.Title,
		OtherTitles: p.OtherTitles,
		Connect:     p.Connect,
		AddTime:     p.AddTime.Format(AddTimeLayout),
		Status:      p.Status,
		Level: LevelView{
			Winter: p.Level.Winter,
			Summer: p.Level.Summer,
			Autumn: p.Level.Autumn,
			Spring: p.Level.Spring,
		},
	}
}

// View строит полное представление, перекодируя изображения в base64.
func (p *Pereval) View() PerevalView {
	images := make([]ImageView, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ImageView{ID: img.ID, Title: img.Title, Data: EncodeImageData(img.Data)})
	}
	return PerevalView{
		PerevalSummary: p.Summary(),
		Coords: CoordsView{
			Latitude:  p.Coords.Latitude,
			Longitude: p.Coords.Longitude,
			Height:    p.Coords.Height,
		},
		User: UserView{
			Email: p.User.Email,
			Fam:   p.User.Fam,
			Name:  p.User.Name,
			Otc:   p.User.Otc,
			Phone: p.User.Phone,
		},
		Images: images,
	}
}
