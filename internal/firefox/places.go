package firefox

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/lotas/tabhost/internal/navigate"
	"github.com/lotas/tabhost/internal/settings"
	"github.com/lotas/tabhost/internal/types"
)

// rootFolders names the built-in bookmark roots.
var rootFolders = map[string]string{
	"menu":    "Bookmarks Menu",
	"toolbar": "Bookmarks Toolbar",
	"unfiled": "Other Bookmarks",
	"mobile":  "Mobile Bookmarks",
}

const bookmarksQuery = `
SELECT COALESCE(parent.title, ''), COALESCE(b.title, ''), p.url
FROM moz_bookmarks b
JOIN moz_places p ON p.id = b.fk
LEFT JOIN moz_bookmarks parent ON parent.id = b.parent
WHERE b.type = 1
ORDER BY b.parent, b.position`

// ReadBookmarks reads places.sqlite of a profile into a bookmark tree, one
// category per folder. The database is copied first because Firefox keeps
// it locked while running.
func ReadBookmarks(profileDir string) (*settings.BookmarkTree, error) {
	src := filepath.Join(profileDir, "places.sqlite")
	tmpDir, err := os.MkdirTemp("", "tabhost-places-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dst := filepath.Join(tmpDir, "places.sqlite")
	if err := copyFile(src, dst); err != nil {
		return nil, fmt.Errorf("copy places database: %w", err)
	}

	db, err := sql.Open("sqlite", dst)
	if err != nil {
		return nil, fmt.Errorf("open places database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(bookmarksQuery)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	tree := settings.NewBookmarkTree()
	for rows.Next() {
		var folder, title, url string
		if err := rows.Scan(&folder, &title, &url); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		if !navigate.IsWebURL(url) {
			continue
		}
		if name, ok := rootFolders[folder]; ok {
			folder = name
		}
		if folder == "" {
			folder = "Imported"
		}
		if title == "" {
			title = url
		}
		tree.Append(folder, types.Bookmark{Name: title, URL: url})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return tree, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
