package validation

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// ErrInvalidURL wraps every rejection made by URLValidator.
var ErrInvalidURL = errors.New("invalid URL")

// URLValidator checks URLs the user types in: feeds to import and the
// functions base URL.
type URLValidator struct {
	// AllowLocalhost permits loopback hosts
	AllowLocalhost bool
	// AllowPrivateIPs permits RFC 1918, link-local and ULA addresses
	AllowPrivateIPs bool
	// DefaultScheme is prepended when the input has none
	DefaultScheme string
	MaxLength     int
}

// NewFeedURLValidator rejects local and private hosts. Feeds are public.
func NewFeedURLValidator() *URLValidator {
	return &URLValidator{
		DefaultScheme: "https",
		MaxLength:     2048,
	}
}

// NewPermissiveFeedURLValidator allows local hosts, for development and tests.
func NewPermissiveFeedURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		DefaultScheme:   "https",
		MaxLength:       2048,
	}
}

// NewAPIURLValidator accepts the functions base URL, which is often a local
// dev server.
func NewAPIURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		DefaultScheme:   "http",
		MaxLength:       2048,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidURL, fmt.Sprintf(format, args...))
}

// ValidateAndNormalize trims input, adds a scheme if missing and returns the
// normalized URL.
func (v *URLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", invalid("URL cannot be empty")
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", invalid("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'`") {
		return "", invalid("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		scheme := v.DefaultScheme
		if scheme == "" {
			scheme = "https"
		}
		input = scheme + "://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", invalid("malformed URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalid("URL must use http or https")
	}
	if u.Hostname() == "" {
		return "", invalid("URL must have a hostname")
	}
	if u.User != nil {
		return "", invalid("credentials in URL are not permitted")
	}
	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", invalid("directory traversal patterns not allowed in URL path")
	}
	if strings.Contains(strings.ToLower(u.RawQuery), "javascript:") {
		return "", invalid("suspicious query parameters")
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), nil
}

func (v *URLValidator) checkHost(hostname string) error {
	hostname = strings.ToLower(hostname)
	if hostname == "0.0.0.0" || hostname == "255.255.255.255" || hostname == "::" {
		return invalid("unroutable host %s", hostname)
	}

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return invalid("localhost URLs are not permitted")
	}

	addr, err := netip.ParseAddr(hostname)
	if err != nil {
		return nil
	}
	if !v.AllowLocalhost && addr.IsLoopback() {
		return invalid("localhost URLs are not permitted")
	}
	if !v.AllowPrivateIPs && (addr.IsPrivate() || addr.IsLinkLocalUnicast()) {
		return invalid("private IP addresses are not permitted")
	}
	return nil
}

func isLocalhost(hostname string) bool {
	return hostname == "localhost" || strings.HasSuffix(hostname, ".localhost")
}
