// Package reader extracts the readable part of a page.
package reader

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Article is the readable content of a page.
type Article struct {
	URL     string
	Title   string
	Byline  string
	Excerpt string
	Text    string
}

var skipPrefixes = []string{"about:", "file:", "chrome:", "data:", "view-source:"}

// Extract parses page HTML. pageURL resolves relative links and may be empty.
func Extract(html, pageURL string) (Article, error) {
	return extract(strings.NewReader(html), pageURL)
}

func extract(r io.Reader, pageURL string) (Article, error) {
	var base *url.URL
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			base = u
		}
	}
	article, err := readability.FromReader(r, base)
	if err != nil {
		return Article{}, fmt.Errorf("extract readable content from %s: %w", pageURL, err)
	}
	return Article{
		URL:     pageURL,
		Title:   article.Title,
		Byline:  article.Byline,
		Excerpt: article.Excerpt,
		Text:    strings.TrimSpace(article.TextContent),
	}, nil
}

// Fetch downloads a page and extracts it. Non-HTTP URLs are rejected.
func Fetch(rawURL string) (Article, error) {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(rawURL, prefix) {
			return Article{}, fmt.Errorf("skipping non-HTTP URL: %s", rawURL)
		}
	}

	client := &http.Client{Timeout: 15 * time.Second}
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return Article{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	resp, err := client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Article{}, fmt.Errorf("fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}
	return extract(resp.Body, rawURL)
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

func sanitizeFilename(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 100 {
		s = strings.TrimRight(s[:100], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}

// ArticlePath returns where a saved article goes, one folder per host.
func ArticlePath(outDir, rawURL, title string) string {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = strings.Trim(nonAlphanumeric.ReplaceAllString(strings.ToLower(u.Hostname()), "-"), "-")
		if host == "" {
			host = "unknown"
		}
	}
	return filepath.Join(outDir, host, sanitizeFilename(title)+".md")
}

// Markdown renders the article with a small front matter block.
func (a Article) Markdown() string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "url: %s\n", a.URL)
	fmt.Fprintf(&b, "title: %q\n", a.Title)
	if a.Byline != "" {
		fmt.Fprintf(&b, "byline: %q\n", a.Byline)
	}
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", a.Title)
	b.WriteString(a.Text)
	b.WriteString("\n")
	return b.String()
}

// Save writes the article below outDir and returns the file path.
func Save(outDir string, a Article) (string, error) {
	path := ArticlePath(outDir, a.URL, a.Title)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(a.Markdown()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
