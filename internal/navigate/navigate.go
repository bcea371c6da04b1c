package navigate

import (
	"net"
	"net/url"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind says how address-bar input is interpreted.
type Kind int

const (
	KindEmpty Kind = iota
	KindURL
	KindSearch
)

// QueryToken is the placeholder replaced by the query in a search template.
const QueryToken = "{query}"

// DefaultScheme is prefixed to scheme-less URLs.
const DefaultScheme = "https://"

// DisplayTitleLen is the number of characters kept in a tab label.
const DisplayTitleLen = 20

var passthroughPrefixes = []string{"about:", "file:", "data:", "view-source:", "chrome:"}

// Classify decides whether input is a URL or a search query. For URLs the
// returned string is the normalized URL; for queries it is the trimmed text.
func Classify(input string) (Kind, string) {
	text := strings.TrimSpace(input)
	if text == "" {
		return KindEmpty, ""
	}
	if strings.IndexFunc(text, unicode.IsSpace) >= 0 {
		return KindSearch, text
	}
	if strings.Contains(text, "://") {
		return KindURL, text
	}
	for _, p := range passthroughPrefixes {
		if strings.HasPrefix(strings.ToLower(text), p) {
			return KindURL, text
		}
	}
	if looksLikeHost(hostPart(text)) {
		return KindURL, DefaultScheme + text
	}
	return KindSearch, text
}

// Resolve turns address-bar input into the URL to load. Queries are merged
// into the search template. ok is false for empty input.
func Resolve(input, searchTemplate string) (target string, kind Kind, ok bool) {
	kind, text := Classify(input)
	switch kind {
	case KindURL:
		return text, kind, true
	case KindSearch:
		return SearchURL(searchTemplate, text), kind, true
	default:
		return "", kind, false
	}
}

// SearchURL substitutes the escaped query into template. Templates without
// the {query} placeholder get the query appended, which matches the older
// "https://host/search?q=" style.
func SearchURL(template, query string) string {
	escaped := url.QueryEscape(query)
	if strings.Contains(template, QueryToken) {
		return strings.ReplaceAll(template, QueryToken, escaped)
	}
	return template + escaped
}

// DisplayTitle shortens a page title for a tab label.
func DisplayTitle(title string) string {
	if utf8.RuneCountInString(title) <= DisplayTitleLen {
		return title
	}
	runes := []rune(title)
	return string(runes[:DisplayTitleLen]) + "..."
}

// CanonicalURL normalizes a URL for duplicate detection: the fragment is
// dropped, query parameters are sorted and trailing slashes trimmed.
func CanonicalURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	params := u.Query()
	for k := range params {
		sort.Strings(params[k])
	}
	u.RawQuery = params.Encode()
	result := u.String()
	if strings.HasSuffix(result, "/") && result != u.Scheme+"://"+u.Host+"/" {
		result = strings.TrimRight(result, "/")
	}
	return result
}

// IsWebURL reports whether s is an http(s) URL.
func IsWebURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func hostPart(text string) string {
	if i := strings.IndexAny(text, "/?#"); i >= 0 {
		text = text[:i]
	}
	if i := strings.LastIndex(text, "@"); i >= 0 {
		text = text[i+1:]
	}
	if h, _, err := net.SplitHostPort(text); err == nil {
		return h
	}
	return text
}

func looksLikeHost(host string) bool {
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") || net.ParseIP(strings.Trim(host, "[]")) != nil {
		return true
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
		for _, r := range l {
			if r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
	}
	tld := labels[len(labels)-1]
	for _, r := range tld {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
