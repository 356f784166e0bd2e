package render

import (
	"fmt"
	"strings"

	"activity-kiosk/internal/domain"
)

// Адрес сервиса превью по умолчанию.
const (
	DefaultImageBaseURL = "https://opengraph.githubassets.com/static"
	DefaultImageSize    = 1600
)

// Images строит адреса картинок слайдов.
type Images struct {
	BaseURL string
	Size    int
}

// NewImages создаёт построитель адресов, пустые значения заменяются значениями по умолчанию.
func NewImages(baseURL string, size int) Images {
	if baseURL == "" {
		baseURL = DefaultImageBaseURL
	}
	if size <= 0 {
		size = DefaultImageSize
	}
	return Images{BaseURL: strings.TrimRight(baseURL, "/"), Size: size}
}

// URL возвращает адрес превью для pull request или релиза.
func (i Images) URL(s domain.Slide) string {
	if s.Kind == domain.SlideKindRelease {
		return fmt.Sprintf("%s/%s/%s/releases/tag/%s?size=%d", i.BaseURL, s.Owner, s.Repo, s.Tag, i.Size)
	}
	return fmt.Sprintf("%s/%s/%s/pull/%d?size=%d", i.BaseURL, s.Owner, s.Repo, s.Number, i.Size)
}

// SlideView слайд вместе с адресом картинки для JSON API.
type SlideView struct {
	domain.Slide
	ImageURL string `json:"image_url"`
}

// Views дополняет слайды адресами картинок.
func (i Images) Views(list []domain.Slide) []SlideView {
	out := make([]SlideView, 0, len(list))
	for _, s := range list {
		out = append(out, SlideView{Slide: s, ImageURL: i.URL(s)})
	}
	return out
}
