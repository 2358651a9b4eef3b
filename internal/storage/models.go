package storage

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type Media struct {
	Type    MediaType `json:"type"`
	Src     string    `json:"src"`
	Caption string    `json:"caption,omitempty"`
}

// Article is a published blog post. Date is kept as the raw string the
// backend stores; it is not guaranteed to parse.
type Article struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	Content  string   `json:"content"`
	Media    []Media  `json:"media"`
	AudioURL string   `json:"audioUrl,omitempty"`
	Category string   `json:"category"`
	Date     string   `json:"date"`
	Author   string   `json:"author"`
	Featured bool     `json:"featured"`
	ReadTime int      `json:"readTime"`
	Sources  []string `json:"sources"`
	Views    int      `json:"views"`
}

func (a *Article) HasVideo() bool {
	for _, m := range a.Media {
		if m.Type == MediaVideo {
			return true
		}
	}
	return false
}

type FooterLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Home feed layouts accepted by the settings endpoint.
const (
	LayoutHeroMasonry = "hero_masonry"
	LayoutHeroGrid    = "hero_grid"
	LayoutHeroList    = "hero_list"
)

type Settings struct {
	SiteName          string       `json:"siteName"`
	NavCategories     []string     `json:"navCategories"`
	ContactEmail      string       `json:"contactEmail"`
	FooterDescription string       `json:"footerDescription"`
	FooterLinks       []FooterLink `json:"footerLinks"`
	LogoURL           string       `json:"logoUrl,omitempty"`
	HomeLayout        string       `json:"homeLayout,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		SiteName:      "Mi Blog",
		NavCategories: []string{},
		FooterLinks:   []FooterLink{},
		HomeLayout:    LayoutHeroMasonry,
	}
}
