package firefox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lotas/tabhost/internal/types"
)

func TestParseProfilesINI(t *testing.T) {
	dir := t.TempDir()
	absProfileDir := t.TempDir()
	iniContent := `[General]
StartWithLastProfile=1
Version=2

[Profile0]
Name=default-release
IsRelative=1
Path=abc123.default-release
Default=1

[Profile1]
Name=dev-edition
IsRelative=0
Path=` + absProfileDir + `
Default=0

[Install308046B0AF4A39CB]
Default=abc123.default-release
Locked=1
`
	iniPath := filepath.Join(dir, "profiles.ini")
	os.WriteFile(iniPath, []byte(iniContent), 0644)

	// One profile has a session file, the other only a places database.
	os.MkdirAll(filepath.Join(dir, "abc123.default-release", "sessionstore-backups"), 0755)
	os.WriteFile(filepath.Join(dir, "abc123.default-release", "sessionstore-backups", "recovery.jsonlz4"), []byte("dummy"), 0644)
	os.WriteFile(filepath.Join(absProfileDir, "places.sqlite"), []byte("dummy"), 0644)

	profiles, err := ParseProfilesINI(iniPath, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	// First profile: relative path
	if profiles[0].Name != "default-release" {
		t.Errorf("expected name 'default-release', got %q", profiles[0].Name)
	}
	if profiles[0].Path != filepath.Join(dir, "abc123.default-release") {
		t.Errorf("expected resolved path, got %q", profiles[0].Path)
	}
	if !profiles[0].IsDefault {
		t.Error("expected profile 0 to be default")
	}

	// Second profile: absolute path
	if profiles[1].Name != "dev-edition" {
		t.Errorf("expected name 'dev-edition', got %q", profiles[1].Name)
	}
	if profiles[1].Path != absProfileDir {
		t.Errorf("expected absolute path %q, got %q", absProfileDir, profiles[1].Path)
	}
	if profiles[1].IsDefault {
		t.Error("expected profile 1 to not be default")
	}
}

func TestParseProfilesINISkipsEmptyProfiles(t *testing.T) {
	dir := t.TempDir()
	iniContent := "[Profile0]\nName=empty\nIsRelative=1\nPath=empty.profile\n"
	iniPath := filepath.Join(dir, "profiles.ini")
	os.WriteFile(iniPath, []byte(iniContent), 0644)
	os.MkdirAll(filepath.Join(dir, "empty.profile"), 0755)

	profiles, err := ParseProfilesINI(iniPath, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 0 {
		t.Fatalf("expected no usable profiles, got %d", len(profiles))
	}
}

func TestSelectProfile(t *testing.T) {
	profiles := []types.Profile{
		{Name: "work", Path: "/p/work"},
		{Name: "main", Path: "/p/main", IsDefault: true},
	}

	p, err := SelectProfile(profiles, "")
	if err != nil || p.Name != "main" {
		t.Errorf("default profile: got %q, %v", p.Name, err)
	}
	p, err = SelectProfile(profiles, "work")
	if err != nil || p.Name != "work" {
		t.Errorf("named profile: got %q, %v", p.Name, err)
	}
	if _, err := SelectProfile(profiles, "missing"); err == nil {
		t.Error("expected error for unknown profile")
	}
	if _, err := SelectProfile(nil, ""); err == nil {
		t.Error("expected error for empty list")
	}
	p, _ = SelectProfile(profiles[:1], "")
	if p.Name != "work" {
		t.Errorf("fallback to first profile, got %q", p.Name)
	}
}

func TestFindFirefoxDir(t *testing.T) {
	dir := FindFirefoxDir()
	if dir == "" {
		t.Skip("no Firefox directory found on this system")
	}
	t.Logf("found Firefox dir: %s", dir)
}
