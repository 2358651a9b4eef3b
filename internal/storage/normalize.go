package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultAuthor   = "Redacción"
	newsroomAuthor  = "Redacción AGTI SA"
	DefaultCategory = "General"
	defaultTitle    = "Untitled Article"
	defaultReadTime = 5
	maxCaptionLen   = 120
)

var generatedAuthorMarkers = []string{"ai", "gpt", "bot", "newsgen"}

var promptIndicators = []string{
	"illustration in a",
	"photorealistic image",
	"create an image",
	"generate a video",
	"detailed shot of",
	"ultra realistic",
	"4k", "8k",
	"octane render",
	"unreal engine",
	"style of",
}

// Normalize fills defaults on an article received from the backend or an
// import. It returns a copy; the input is not modified.
func Normalize(in Article) Article {
	a := in
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Title == "" {
		a.Title = defaultTitle
	}
	if a.Category == "" {
		a.Category = DefaultCategory
	}
	if a.Date == "" {
		a.Date = time.Now().Format("1/2/2006")
	}
	a.Author = normalizeAuthor(a.Author)
	if a.ReadTime <= 0 {
		a.ReadTime = defaultReadTime
	}
	if a.Views < 0 {
		a.Views = 0
	}
	if a.Sources == nil {
		a.Sources = []string{}
	}

	media := make([]Media, 0, len(in.Media))
	for _, m := range in.Media {
		m.Caption = sanitizeCaption(m.Caption)
		media = append(media, m)
	}
	a.Media = media

	return a
}

func normalizeAuthor(author string) string {
	if author == "" {
		return DefaultAuthor
	}
	lower := strings.ToLower(author)
	for _, marker := range generatedAuthorMarkers {
		if strings.Contains(lower, marker) {
			return newsroomAuthor
		}
	}
	return author
}

// sanitizeCaption drops captions that are really image-generation prompts.
func sanitizeCaption(caption string) string {
	if caption == "" {
		return ""
	}
	lower := strings.ToLower(caption)
	for _, indicator := range promptIndicators {
		if strings.Contains(lower, indicator) {
			return ""
		}
	}
	if len([]rune(caption)) > maxCaptionLen {
		return ""
	}
	return caption
}

// NormalizeSettings merges s over the defaults and coerces the home layout.
func NormalizeSettings(s Settings) Settings {
	out := DefaultSettings()
	if s.SiteName != "" {
		out.SiteName = s.SiteName
	}
	if s.NavCategories != nil {
		out.NavCategories = s.NavCategories
	}
	out.ContactEmail = s.ContactEmail
	out.FooterDescription = s.FooterDescription
	if s.FooterLinks != nil {
		out.FooterLinks = s.FooterLinks
	}
	out.LogoURL = s.LogoURL
	out.HomeLayout = NormalizeLayout(s.HomeLayout)
	return out
}

func NormalizeLayout(layout string) string {
	switch layout {
	case LayoutHeroMasonry, LayoutHeroGrid, LayoutHeroList:
		return layout
	default:
		return LayoutHeroMasonry
	}
}

// Featured returns the article designated for hero placement: the first one
// flagged featured, else the first article. Nil when the list is empty.
func Featured(articles []*Article) *Article {
	for _, a := range articles {
		if a.Featured {
			return a
		}
	}
	if len(articles) > 0 {
		return articles[0]
	}
	return nil
}

// Related returns up to limit articles sharing current's category.
func Related(articles []*Article, current *Article, limit int) []*Article {
	if current == nil {
		return nil
	}
	var out []*Article
	for _, a := range articles {
		if len(out) >= limit {
			break
		}
		if a.ID != current.ID && a.Category == current.Category {
			out = append(out, a)
		}
	}
	return out
}

// ReplaceByID swaps updated into list where the ids match. The list is
// returned unchanged when updated is not present.
func ReplaceByID(list []*Article, updated *Article) []*Article {
	if updated == nil {
		return list
	}
	for i, a := range list {
		if a.ID == updated.ID {
			out := make([]*Article, len(list))
			copy(out, list)
			out[i] = updated
			return out
		}
	}
	return list
}

// PrependByID puts saved at the front of list, dropping any older copy.
func PrependByID(list []*Article, saved *Article) []*Article {
	out := make([]*Article, 0, len(list)+1)
	out = append(out, saved)
	for _, a := range list {
		if a.ID != saved.ID {
			out = append(out, a)
		}
	}
	return out
}

func FindByID(list []*Article, id string) *Article {
	for _, a := range list {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// ErrInvalidRename is returned when a category rename is missing a name or
// would not change anything.
var ErrInvalidRename = errors.New("invalid category rename")

var (
	ErrRenameMissing   = fmt.Errorf("%w: both oldName and newName are required", ErrInvalidRename)
	ErrRenameUnchanged = fmt.Errorf("%w: new name must be different from old name", ErrInvalidRename)
)

// ValidateRename trims both names and checks they are present and distinct.
func ValidateRename(oldName, newName string) (string, string, error) {
	oldName, newName = strings.TrimSpace(oldName), strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		return "", "", ErrRenameMissing
	}
	if oldName == newName {
		return "", "", ErrRenameUnchanged
	}
	return oldName, newName, nil
}

// ReplaceCategory swaps oldName for newName in a category list, keeping order.
func ReplaceCategory(categories []string, oldName, newName string) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		if c == oldName {
			c = newName
		}
		out[i] = c
	}
	return out
}
