package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SourceLocal is the source name of sessions archived by this program.
const SourceLocal = "tabhost"

// ErrSessionNotFound is returned when a revision does not exist.
var ErrSessionNotFound = errors.New("session not found")

// SessionSummary holds the metadata for an archived session.
type SessionSummary struct {
	ID          int64
	Rev         int
	Label       string // optional
	Source      string // SourceLocal or "firefox:<profile>"
	CreatedAt   time.Time
	WindowCount int
	TabCount    int
}

// SessionTab is one tab of an archived window.
type SessionTab struct {
	URL   string
	Title string
}

// SessionWindow is one archived window in tab order.
type SessionWindow struct {
	ActiveIndex int
	Tabs        []SessionTab
}

// SessionFull is a session with its windows and tabs.
type SessionFull struct {
	SessionSummary
	Windows []SessionWindow
}

// AllTabs returns the tabs of every window in order.
func (s *SessionFull) AllTabs() []SessionTab {
	var out []SessionTab
	for _, w := range s.Windows {
		out = append(out, w.Tabs...)
	}
	return out
}

// migration is a numbered schema change. Migrations are applied in order
// and tracked in the schema_migrations table so each runs exactly once.
type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS sessions (
    id           INTEGER PRIMARY KEY,
    rev          INTEGER NOT NULL,
    label        TEXT,
    source       TEXT NOT NULL,
    created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
    window_count INTEGER NOT NULL,
    tab_count    INTEGER NOT NULL,
    UNIQUE(source, rev)
);
CREATE TABLE IF NOT EXISTS session_windows (
    id           INTEGER PRIMARY KEY,
    session_id   INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    position     INTEGER NOT NULL,
    active_index INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS session_tabs (
    id           INTEGER PRIMARY KEY,
    window_id    INTEGER NOT NULL REFERENCES session_windows(id) ON DELETE CASCADE,
    position     INTEGER NOT NULL,
    url          TEXT NOT NULL,
    title        TEXT NOT NULL
);`,
	},
	{
		Version:     2,
		Description: "index windows and tabs by parent",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_session_windows_session ON session_windows(session_id, position);
CREATE INDEX IF NOT EXISTS idx_session_tabs_window ON session_tabs(window_id, position);`,
	},
}

// OpenDB opens (or creates) a SQLite database at the given path.
// It creates parent directories if needed, enables foreign keys and WAL mode,
// and runs any pending migrations.
func OpenDB(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// runMigrations ensures the schema_migrations table exists and runs any
// pending migrations.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if exists > 0 {
			continue
		}

		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// CreateSession inserts a session with its windows and tabs in a single
// transaction. The rev number is assigned per source. Label is optional.
// Returns the assigned rev number.
func CreateSession(db *sql.DB, source string, windows []SessionWindow, label string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var rev int
	err = tx.QueryRow("SELECT COALESCE(MAX(rev), 0) + 1 FROM sessions WHERE source = ?", source).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("compute next rev: %w", err)
	}

	var labelVal interface{}
	if label != "" {
		labelVal = label
	}

	tabCount := 0
	for _, w := range windows {
		tabCount += len(w.Tabs)
	}
	res, err := tx.Exec(
		"INSERT INTO sessions (rev, label, source, window_count, tab_count) VALUES (?, ?, ?, ?, ?)",
		rev, labelVal, source, len(windows), tabCount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get session id: %w", err)
	}

	for wi, w := range windows {
		res, err := tx.Exec(
			"INSERT INTO session_windows (session_id, position, active_index) VALUES (?, ?, ?)",
			sessionID, wi, w.ActiveIndex,
		)
		if err != nil {
			return 0, fmt.Errorf("insert window %d: %w", wi, err)
		}
		windowID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("get window id: %w", err)
		}
		for ti, tab := range w.Tabs {
			if _, err := tx.Exec(
				"INSERT INTO session_tabs (window_id, position, url, title) VALUES (?, ?, ?, ?)",
				windowID, ti, tab.URL, tab.Title,
			); err != nil {
				return 0, fmt.Errorf("insert tab %q: %w", tab.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return rev, nil
}

const summaryColumns = "id, rev, label, source, created_at, window_count, tab_count"

func scanSummary(row interface{ Scan(...any) error }) (SessionSummary, error) {
	var s SessionSummary
	var label sql.NullString
	if err := row.Scan(&s.ID, &s.Rev, &label, &s.Source, &s.CreatedAt, &s.WindowCount, &s.TabCount); err != nil {
		return s, err
	}
	s.Label = label.String
	return s, nil
}

// ListSessions returns sessions of a source, newest first. An empty source
// lists every source.
func ListSessions(db *sql.DB, source string) ([]SessionSummary, error) {
	query := "SELECT " + summaryColumns + " FROM sessions"
	var args []any
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var result []SessionSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return result, nil
}

// GetSession loads a full session by source and rev number.
func GetSession(db *sql.DB, source string, rev int) (*SessionFull, error) {
	summary, err := scanSummary(db.QueryRow(
		"SELECT "+summaryColumns+" FROM sessions WHERE source = ? AND rev = ?",
		source, rev,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: rev %d for source %q", ErrSessionNotFound, rev, source)
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	full := &SessionFull{SessionSummary: summary}

	winRows, err := db.Query(
		"SELECT id, active_index FROM session_windows WHERE session_id = ? ORDER BY position",
		summary.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query windows: %w", err)
	}
	var windowIDs []int64
	for winRows.Next() {
		var id int64
		var w SessionWindow
		if err := winRows.Scan(&id, &w.ActiveIndex); err != nil {
			winRows.Close()
			return nil, fmt.Errorf("scan window: %w", err)
		}
		windowIDs = append(windowIDs, id)
		full.Windows = append(full.Windows, w)
	}
	winRows.Close()
	if err := winRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate windows: %w", err)
	}

	for i, id := range windowIDs {
		tabs, err := loadTabs(db, id)
		if err != nil {
			return nil, err
		}
		full.Windows[i].Tabs = tabs
	}
	return full, nil
}

func loadTabs(db *sql.DB, windowID int64) ([]SessionTab, error) {
	rows, err := db.Query(
		"SELECT url, title FROM session_tabs WHERE window_id = ? ORDER BY position",
		windowID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tabs: %w", err)
	}
	defer rows.Close()

	var tabs []SessionTab
	for rows.Next() {
		var tab SessionTab
		if err := rows.Scan(&tab.URL, &tab.Title); err != nil {
			return nil, fmt.Errorf("scan tab: %w", err)
		}
		tabs = append(tabs, tab)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tabs: %w", err)
	}
	return tabs, nil
}

// GetLatestSession returns the most recent session of a source.
// Returns nil, nil if there is none.
func GetLatestSession(db *sql.DB, source string) (*SessionFull, error) {
	var rev int
	err := db.QueryRow(
		"SELECT rev FROM sessions WHERE source = ? ORDER BY rev DESC LIMIT 1",
		source,
	).Scan(&rev)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest rev: %w", err)
	}
	return GetSession(db, source, rev)
}

// DeleteSession removes a session by source and rev. Windows and tabs are
// cascade-deleted.
func DeleteSession(db *sql.DB, source string, rev int) error {
	res, err := db.Exec("DELETE FROM sessions WHERE source = ? AND rev = ?", source, rev)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: rev %d for source %q", ErrSessionNotFound, rev, source)
	}
	return nil
}
