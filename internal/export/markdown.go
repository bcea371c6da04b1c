package export

import (
	"fmt"
	"strings"
	"time"
)

// Markdown formats bookmarks and history as a markdown document.
func Markdown(data Data) string {
	var b strings.Builder
	now := data.now()

	b.WriteString("# Bookmarks\n")
	fmt.Fprintf(&b, "> Exported %s\n", now.Format("2006-01-02 15:04"))

	if data.Bookmarks != nil {
		for _, name := range data.Bookmarks.Categories() {
			items := data.Bookmarks.Get(name)
			fmt.Fprintf(&b, "\n## %s (%s)\n\n", name, plural(len(items), "bookmark"))
			for _, bm := range items {
				fmt.Fprintf(&b, "- [%s](%s)\n", linkText(bm.Name, bm.URL), bm.URL)
			}
		}
	}

	if len(data.History) > 0 {
		fmt.Fprintf(&b, "\n## Recent History (%s)\n\n", plural(len(data.History), "visit"))
		for _, h := range data.History {
			fmt.Fprintf(&b, "- [%s](%s) (%s)\n", linkText(h.Title, h.URL), h.URL, relativeTime(now, h.Time()))
		}
	}

	return b.String()
}

func linkText(title, url string) string {
	if title == "" {
		return url
	}
	return strings.NewReplacer("[", "\\[", "]", "\\]").Replace(title)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func relativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
