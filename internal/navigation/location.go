package navigation

import (
	"net/url"
	"strings"
)

// ArticleParam is the query parameter that carries the open article.
const ArticleParam = "articleId"

// HomeLocation is the location with no article open.
const HomeLocation = "/"

// ArticleLocation builds the location that opens id.
func ArticleLocation(id string) string {
	q := url.Values{}
	q.Set(ArticleParam, id)
	return "/?" + q.Encode()
}

// ArticleID extracts the article id from a location. Absolute URLs, bare
// paths and bare query strings are all accepted. Anything that fails to
// parse has no article id.
func ArticleID(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	if strings.HasPrefix(location, "?") {
		location = "/" + location
	}
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get(ArticleParam))
}
