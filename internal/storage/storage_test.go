package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// testDB creates a temporary database for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleWindows() []SessionWindow {
	return []SessionWindow{
		{ActiveIndex: 1, Tabs: []SessionTab{
			{URL: "https://example.com", Title: "Example"},
			{URL: "https://go.dev", Title: "Go"},
		}},
		{Tabs: []SessionTab{
			{URL: "https://mozilla.org", Title: "Mozilla"},
		}},
	}
}

func TestOpenDB(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "tabhost.db")

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not found: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != len(migrations) {
		t.Errorf("expected %d applied migrations, got %d", len(migrations), n)
	}
}

func TestOpenDB_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tabhost.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CreateSession(db, SourceLocal, sampleWindows(), ""); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = OpenDB(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	list, err := ListSessions(db, SourceLocal)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 session after reopen, got %d", len(list))
	}
}

func TestCreateAndGetSession(t *testing.T) {
	db := testDB(t)

	rev, err := CreateSession(db, SourceLocal, sampleWindows(), "before trip")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if rev != 1 {
		t.Errorf("expected rev 1, got %d", rev)
	}

	s, err := GetSession(db, SourceLocal, rev)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s.Label != "before trip" {
		t.Errorf("label = %q", s.Label)
	}
	if s.WindowCount != 2 || s.TabCount != 3 {
		t.Errorf("counts = %d windows, %d tabs", s.WindowCount, s.TabCount)
	}
	if len(s.Windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(s.Windows))
	}
	if s.Windows[0].ActiveIndex != 1 {
		t.Errorf("active index = %d, want 1", s.Windows[0].ActiveIndex)
	}
	if got := s.Windows[0].Tabs[1].URL; got != "https://go.dev" {
		t.Errorf("tab order not preserved: %q", got)
	}
	if len(s.AllTabs()) != 3 {
		t.Errorf("AllTabs = %d", len(s.AllTabs()))
	}
}

func TestRevsArePerSource(t *testing.T) {
	db := testDB(t)
	for i := 0; i < 2; i++ {
		if _, err := CreateSession(db, SourceLocal, sampleWindows(), ""); err != nil {
			t.Fatal(err)
		}
	}
	rev, err := CreateSession(db, "firefox:default", sampleWindows(), "")
	if err != nil {
		t.Fatal(err)
	}
	if rev != 1 {
		t.Errorf("expected rev 1 for new source, got %d", rev)
	}

	all, err := ListSessions(db, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 sessions, got %d", len(all))
	}
	local, _ := ListSessions(db, SourceLocal)
	if len(local) != 2 || local[0].Rev != 2 {
		t.Errorf("unexpected local listing: %+v", local)
	}
}

func TestGetLatestSession(t *testing.T) {
	db := testDB(t)

	latest, err := GetLatestSession(db, SourceLocal)
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Fatal("expected nil for empty database")
	}

	CreateSession(db, SourceLocal, sampleWindows(), "")
	CreateSession(db, SourceLocal, sampleWindows()[:1], "second")
	latest, err = GetLatestSession(db, SourceLocal)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Rev != 2 || latest.Label != "second" {
		t.Errorf("latest = rev %d %q", latest.Rev, latest.Label)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	db := testDB(t)
	rev, _ := CreateSession(db, SourceLocal, sampleWindows(), "")

	if err := DeleteSession(db, SourceLocal, rev); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	var tabs int
	db.QueryRow("SELECT COUNT(*) FROM session_tabs").Scan(&tabs)
	if tabs != 0 {
		t.Errorf("expected tabs to cascade, %d left", tabs)
	}

	err := DeleteSession(db, SourceLocal, rev)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := GetSession(db, SourceLocal, 42); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
