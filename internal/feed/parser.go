package feed

import (
	"fmt"
	"html"
	"io"
	"math"
	"path"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/pders01/gazette/internal/storage"
)

const wordsPerMinute = 200

var (
	imgRegex   = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)
	videoRegex = regexp.MustCompile(`<video[^>]+src=["']([^"']+)["']`)
	tagRegex   = regexp.MustCompile(`<[^>]*>`)
	spaceRegex = regexp.MustCompile(`\s+`)
)

// Feed is a parsed feed with its items already mapped to articles.
type Feed struct {
	Title    string
	Link     string
	Articles []*storage.Article
}

// ParseOptions control how items become articles.
type ParseOptions struct {
	// Category is used when an item carries none
	Category string
	// MaxItems caps the number of articles; zero means no cap
	MaxItems int
	// ExcerptLength caps the excerpt in runes
	ExcerptLength int
}

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

// Parse reads an RSS, Atom or JSON feed. Article ids are derived from the
// item GUID (or link) so importing the same feed twice updates in place.
func (p *Parser) Parse(reader io.Reader, opts ParseOptions) (*Feed, error) {
	parsed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	items := parsed.Items
	if opts.MaxItems > 0 && len(items) > opts.MaxItems {
		items = items[:opts.MaxItems]
	}

	out := &Feed{
		Title:    strings.TrimSpace(parsed.Title),
		Link:     parsed.Link,
		Articles: make([]*storage.Article, 0, len(items)),
	}
	for _, item := range items {
		article := toArticle(item, opts)
		out.Articles = append(out.Articles, &article)
	}
	return out, nil
}

func toArticle(item *gofeed.Item, opts ParseOptions) storage.Article {
	content := markdownContent(item)
	excerpt := plainText(item.Description)
	if excerpt == "" {
		excerpt = plainText(item.Content)
	}
	// the functions reject articles without excerpt or content
	if excerpt == "" {
		excerpt = strings.TrimSpace(item.Title)
	}
	if content == "" {
		content = excerpt
	}

	category := opts.Category
	if len(item.Categories) > 0 && strings.TrimSpace(item.Categories[0]) != "" {
		category = strings.TrimSpace(item.Categories[0])
	}

	article := storage.Article{
		ID:       articleID(item),
		Title:    strings.TrimSpace(item.Title),
		Excerpt:  truncate(excerpt, opts.ExcerptLength),
		Content:  content,
		Media:    extractMedia(item),
		AudioURL: extractAudio(item),
		Category: category,
		Date:     itemDate(item),
		Author:   itemAuthor(item),
		ReadTime: readTime(content),
	}
	if item.Link != "" {
		article.Sources = []string{item.Link}
	}
	return storage.Normalize(article)
}

func articleID(item *gofeed.Item) string {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = item.Title + "|" + item.Published
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func markdownContent(item *gofeed.Item) string {
	source := item.Content
	if source == "" {
		source = item.Description
	}
	if source == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(source)
	if err != nil {
		return plainText(source)
	}
	return strings.TrimSpace(md)
}

func plainText(s string) string {
	s = tagRegex.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return strings.TrimSpace(string(r[:limit-1])) + "…"
}

func itemDate(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC().Format(time.DateOnly)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC().Format(time.DateOnly)
	default:
		return ""
	}
}

func itemAuthor(item *gofeed.Item) string {
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	return ""
}

func readTime(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

func mediaTypeOf(mimeType, url string) (storage.MediaType, bool) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return storage.MediaImage, true
	case strings.HasPrefix(mimeType, "video/"):
		return storage.MediaVideo, true
	case mimeType != "":
		return "", false
	}
	switch strings.ToLower(path.Ext(stripQuery(url))) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif", ".svg":
		return storage.MediaImage, true
	case ".mp4", ".webm", ".mov", ".m4v", ".mkv":
		return storage.MediaVideo, true
	}
	return "", false
}

func stripQuery(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		return url[:i]
	}
	return url
}

func extractMedia(item *gofeed.Item) []storage.Media {
	var media []storage.Media
	seen := make(map[string]bool)
	add := func(kind storage.MediaType, src string) {
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		media = append(media, storage.Media{Type: kind, Src: src})
	}

	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if kind, ok := mediaTypeOf(enc.Type, enc.URL); ok {
			add(kind, enc.URL)
		}
	}
	if item.Image != nil {
		add(storage.MediaImage, item.Image.URL)
	}

	body := item.Content + " " + item.Description
	for _, m := range imgRegex.FindAllStringSubmatch(body, -1) {
		add(storage.MediaImage, m[1])
	}
	for _, m := range videoRegex.FindAllStringSubmatch(body, -1) {
		add(storage.MediaVideo, m[1])
	}
	return media
}

func extractAudio(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "audio/") {
			return enc.URL
		}
	}
	return ""
}
