package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lotas/tabhost/internal/analyzer"
	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/config"
	"github.com/lotas/tabhost/internal/downloads"
	"github.com/lotas/tabhost/internal/engine"
	"github.com/lotas/tabhost/internal/engine/pwengine"
	"github.com/lotas/tabhost/internal/export"
	"github.com/lotas/tabhost/internal/firefox"
	"github.com/lotas/tabhost/internal/lifecycle"
	"github.com/lotas/tabhost/internal/reader"
	"github.com/lotas/tabhost/internal/server"
	"github.com/lotas/tabhost/internal/settings"
	"github.com/lotas/tabhost/internal/snapshot"
	"github.com/lotas/tabhost/internal/storage"
	"github.com/lotas/tabhost/internal/tui"
	"github.com/lotas/tabhost/internal/types"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "history":
			runHistory(os.Args[2:])
			return
		case "bookmarks":
			runBookmarks(os.Args[2:])
			return
		case "sessions":
			runSessions(os.Args[2:])
			return
		case "import":
			runImport(os.Args[2:])
			return
		case "read":
			runRead(os.Args[2:])
			return
		case "profiles":
			runProfiles()
			return
		case "settings":
			runSettings(os.Args[2:])
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	cfg := config.LoadOrDefault()
	fs := flag.NewFlagSet("tabhost", flag.ExitOnError)
	private := fs.Bool("private", false, "Open the first window in private mode")
	restoreRev := fs.Int("restore", -1, "Reopen an archived session (0 = latest)")
	headless := fs.Bool("headless", cfg.Headless, "Run the engine without visible pages")
	bridge := fs.Bool("bridge", cfg.Bridge, "Start the WebSocket control bridge")
	port := fs.Int("port", cfg.Port, "WebSocket port for the control bridge")
	fs.Parse(reorderArgs(os.Args[1:]))
	cfg.Headless, cfg.Bridge, cfg.Port = *headless, *bridge, *port

	if err := runShell(cfg, fs.Args(), *private, *restoreRev); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runShell(cfg *config.Config, urls []string, private bool, restoreRev int) error {
	if err := applog.Init(cfg.LogDir(), cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer applog.Close()

	db, err := storage.OpenDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng, err := launchEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	lastClosed := make(chan struct{}, 1)
	loop := lifecycle.NewLoop()
	mgr := lifecycle.New(lifecycle.Options{
		Settings:     settings.NewStore(cfg.SettingsPath(), config.DownloadDir()),
		Engine:       eng,
		Downloads:    downloads.NewRegistry(),
		Loop:         loop,
		PollInterval: cfg.PollInterval,
		OnLastWindowClosed: func() {
			select {
			case lastClosed <- struct{}{}:
			default:
			}
		},
	})

	var srv *server.Server
	if cfg.Bridge {
		srv = server.New(cfg.Port, mgr)
		mgr.SetNotifier(srv)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	if srv != nil {
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				applog.Error("ws.listen", err, "port", cfg.Port)
			}
		}()
	}

	var startErr error
	err = loop.Do(ctx, func() {
		startErr = openInitialWindows(mgr, db, urls, private, restoreRev)
	})
	if err == nil {
		err = startErr
	}
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(tui.Options{
		Manager:      mgr,
		DB:           db,
		PollInterval: cfg.PollInterval,
	}), tea.WithAltScreen())
	go func() {
		select {
		case <-lastClosed:
			p.Quit()
		case <-ctx.Done():
		}
	}()
	final, runErr := p.Run()
	var size types.WindowSize
	if fm, ok := final.(tui.Model); ok {
		size = fm.WindowSize()
	}

	var shutdownErr error
	loop.Do(ctx, func() {
		archiveSession(db, mgr.Snapshot())
		shutdownErr = mgr.Shutdown(size)
	})
	if runErr != nil {
		return runErr
	}
	return shutdownErr
}

func launchEngine(cfg *config.Config) (engine.Engine, error) {
	switch cfg.Engine {
	case "playwright", "":
		eng, err := pwengine.Launch(pwengine.Options{
			ProfileDir: cfg.ProfileDir(),
			Headless:   cfg.Headless,
		})
		if err != nil {
			return nil, fmt.Errorf("start engine: %w", err)
		}
		return eng, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}

// openInitialWindows runs on the loop. A restored session replaces the
// default window; URL arguments open together in one window.
func openInitialWindows(mgr *lifecycle.Manager, db *sql.DB, urls []string, private bool, restoreRev int) error {
	if restoreRev >= 0 {
		n, err := snapshot.Restore(db, storage.SourceLocal, restoreRev, func(urls []string, active int) error {
			_, err := mgr.OpenWindowWithURLs(urls, active, false)
			return err
		})
		if err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		if n > 0 && len(urls) == 0 {
			return nil
		}
	}
	if len(urls) > 0 {
		_, err := mgr.OpenWindowWithURLs(urls, 0, private)
		return err
	}
	_, err := mgr.SpawnWindow(private)
	return err
}

func archiveSession(db *sql.DB, windows []types.WindowInfo) {
	rev, created, _, err := snapshot.Create(db, storage.SourceLocal, snapshot.FromWindows(windows), "")
	if err != nil {
		applog.Error("session.archive", err)
		return
	}
	if created {
		applog.Info("session.archived", "rev", rev)
	}
}

func printHelp() {
	fmt.Print(`tabhost — terminal-driven browser shell

Usage:
  tabhost [url...]                                  Start the shell (default)
    --private              Open the first window in private mode
    --restore <rev>        Reopen an archived session (0 = latest)
    --headless             Run the engine without visible pages
    --bridge               Start the WebSocket control bridge
    --port <n>             Bridge port (default: 19292)

  tabhost history [-n 20]                           Print recent history
  tabhost bookmarks list [category]                 List bookmarks
  tabhost bookmarks add <url> [--name N] [--category C]
  tabhost bookmarks remove <url> [--category C]
  tabhost bookmarks remove-category <category>
  tabhost bookmarks export [--json] [--out file] [--history n]
  tabhost bookmarks check                           Report bookmarks that no longer resolve

  tabhost sessions list [--source S]                List archived sessions
  tabhost sessions diff [rev] [rev2] [--source S]   Compare archived sessions
  tabhost sessions delete <rev> [--source S] [--yes]

  tabhost import [--profile name] [--no-session]    Import Firefox bookmarks and session
  tabhost profiles                                  List Firefox profiles
  tabhost read <url> [--out-dir path]               Save a page's readable text as markdown

  tabhost settings get [key] [name]                 Print settings (all keys when none given)
  tabhost settings set <key> <value>                Change a setting
    keys: homepage, search-engine, dark-mode (on|off), zoom (0.3-3),
          feature <name> on|off; window-size is read-only

Environment:
  TABHOST_DATA_DIR       Data directory (default: ~/.local/share/tabhost)
  TABHOST_LOG_LEVEL      Log level (default: info)
  TABHOST_POLL_INTERVAL  Address bar sync interval (default: 1s)
  TABHOST_ENGINE         Rendering engine (default: playwright)
  TABHOST_HEADLESS       Run the engine headless
  TABHOST_BRIDGE         Start the control bridge
  TABHOST_PORT           Bridge port
  TABHOST_PROFILE        Default Firefox profile for import
`)
}

// reorderArgs moves flags before positional arguments so that Go's flag
// package (which stops at the first non-flag) can parse them.
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			flags = append(flags, args[i])
			if !strings.Contains(args[i], "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") && !isBoolFlag(args[i]) {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}

var boolFlags = map[string]bool{
	"private": true, "headless": true, "bridge": true,
	"json": true, "yes": true, "no-session": true,
}

func isBoolFlag(arg string) bool {
	return boolFlags[strings.TrimLeft(arg, "-")]
}

// resolveProfileName returns the profile name from the flag if set,
// otherwise falls back to the TABHOST_PROFILE environment variable.
func resolveProfileName(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("TABHOST_PROFILE")
}

func openStore() *settings.Store {
	cfg := config.LoadOrDefault()
	return settings.NewStore(cfg.SettingsPath(), config.DownloadDir())
}

func openDB() (*sql.DB, error) {
	return storage.OpenDB(config.LoadOrDefault().DBPath())
}

func runSettings(args []string) {
	if len(args) == 0 {
		args = []string{"get"}
	}
	st := openStore()
	switch args[0] {
	case "get":
		keys := settings.Keys
		var extra []string
		if len(args) > 1 {
			keys, extra = args[1:2], args[2:]
		}
		for _, key := range keys {
			v, err := st.Get(key, extra...)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if len(keys) == 1 {
				fmt.Println(v)
				continue
			}
			if key == "feature" {
				if v != "" {
					fmt.Println(strings.ReplaceAll("feature."+v, "\n", "\nfeature."))
				}
				continue
			}
			fmt.Printf("%s=%s\n", key, v)
		}
	case "set":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: tabhost settings set <key> <value>")
			os.Exit(1)
		}
		if err := st.Set(args[1], args[2:]...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated %s.\n", args[1])
	default:
		fmt.Fprintf(os.Stderr, "Unknown settings command %q. Use get or set.\n", args[0])
		os.Exit(1)
	}
}

func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	n := fs.Int("n", 20, "Number of entries (0 = all)")
	fs.Parse(reorderArgs(args))

	entries := openStore().RecentHistory(*n)
	if len(entries) == 0 {
		fmt.Println("No history.")
		return
	}
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = e.URL
		}
		fmt.Printf("%s  %s\n    %s\n", time.Unix(e.Timestamp, 0).Format("2006-01-02 15:04"), title, e.URL)
	}
}

func runBookmarks(args []string) {
	if len(args) == 0 {
		runBookmarksList(nil)
		return
	}
	switch args[0] {
	case "list":
		runBookmarksList(args[1:])
	case "add":
		runBookmarksAdd(args[1:])
	case "remove":
		runBookmarksRemove(args[1:])
	case "remove-category":
		runBookmarksRemoveCategory(args[1:])
	case "export":
		runBookmarksExport(args[1:])
	case "check":
		runBookmarksCheck()
	default:
		fmt.Fprintf(os.Stderr, "Unknown bookmarks command: %s\n", args[0])
		os.Exit(1)
	}
}

func runBookmarksList(args []string) {
	st := openStore()
	cats := st.Categories()
	if len(args) > 0 {
		cats = []string{args[0]}
	}
	for _, cat := range cats {
		list, err := st.Bookmarks(cat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s (%d)\n", cat, len(list))
		for _, b := range list {
			fmt.Printf("  %-40s %s\n", b.Name, b.URL)
		}
	}
}

func runBookmarksAdd(args []string) {
	fs := flag.NewFlagSet("bookmarks add", flag.ExitOnError)
	name := fs.String("name", "", "Bookmark name (default: the URL)")
	category := fs.String("category", "Bookmarks", "Bookmark category")
	fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabhost bookmarks add <url> [--name N] [--category C]")
		os.Exit(1)
	}
	url := fs.Arg(0)
	if *name == "" {
		*name = url
	}
	if err := openStore().AddBookmark(*category, *name, url); err != nil {
		fmt.Fprintf(os.Stderr, "Error adding bookmark: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Bookmarked %s in %q.\n", url, *category)
}

func runBookmarksRemove(args []string) {
	fs := flag.NewFlagSet("bookmarks remove", flag.ExitOnError)
	category := fs.String("category", "Bookmarks", "Bookmark category")
	fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabhost bookmarks remove <url> [--category C]")
		os.Exit(1)
	}
	if err := openStore().RemoveBookmark(*category, fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error removing bookmark: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Bookmark removed.")
}

func runBookmarksRemoveCategory(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabhost bookmarks remove-category <category>")
		os.Exit(1)
	}
	if err := openStore().RemoveCategory(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error removing category: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Category %q removed.\n", args[0])
}

func runBookmarksExport(args []string) {
	fs := flag.NewFlagSet("bookmarks export", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "Export as JSON instead of markdown")
	outFile := fs.String("out", "", "Output file path (default: stdout)")
	historyN := fs.Int("history", 50, "Recent history entries to include (0 = none)")
	fs.Parse(reorderArgs(args))

	st := openStore()
	data := export.Data{Bookmarks: st.Current().Bookmarks}
	if *historyN > 0 {
		data.History = st.RecentHistory(*historyN)
	}

	var output string
	var err error
	if *jsonFlag {
		output, err = export.JSON(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating JSON: %v\n", err)
			os.Exit(1)
		}
	} else {
		output = export.Markdown(data)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(output), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", *outFile)
		return
	}
	fmt.Print(output)
}

func runBookmarksCheck() {
	st := openStore()
	var links []analyzer.Link
	for _, cat := range st.Categories() {
		list, _ := st.Bookmarks(cat)
		for _, b := range list {
			links = append(links, analyzer.Link{Category: cat, Name: b.Name, URL: b.URL})
		}
	}

	results := make(chan analyzer.LinkResult, len(links))
	analyzer.CheckLinks(context.Background(), links, results)
	close(results)

	dead := 0
	for r := range results {
		if !r.IsDead {
			continue
		}
		dead++
		fmt.Printf("%-12s %s / %s\n    %s\n", r.Reason, r.Link.Category, r.Link.Name, r.Link.URL)
	}
	fmt.Printf("%d of %d bookmarks look dead.\n", dead, len(links))
}

func runSessions(args []string) {
	if len(args) == 0 {
		runSessionsList(nil)
		return
	}
	switch args[0] {
	case "list":
		runSessionsList(args[1:])
	case "diff":
		runSessionsDiff(args[1:])
	case "delete":
		runSessionsDelete(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown sessions command: %s\n", args[0])
		os.Exit(1)
	}
}

func runSessionsList(args []string) {
	fs := flag.NewFlagSet("sessions list", flag.ExitOnError)
	source := fs.String("source", "", "Only list sessions of this source")
	fs.Parse(reorderArgs(args))

	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	list, err := storage.ListSessions(db, *source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(list) == 0 {
		fmt.Println("No sessions.")
		return
	}

	fmt.Printf("%-4s  %-20s  %-18s  %7s  %4s  %s\n", "Rev", "Source", "Created", "Windows", "Tabs", "Label")
	for _, s := range list {
		fmt.Printf("%-4d  %-20s  %-18s  %7d  %4d  %s\n",
			s.Rev, s.Source, s.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.WindowCount, s.TabCount, s.Label)
	}
}

func runSessionsDiff(args []string) {
	fs := flag.NewFlagSet("sessions diff", flag.ExitOnError)
	source := fs.String("source", storage.SourceLocal, "Session source")
	fs.Parse(reorderArgs(args))

	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var from, to int
	switch fs.NArg() {
	case 0:
		// Latest against the one before it.
		list, err := storage.ListSessions(db, *source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(list) < 2 {
			fmt.Println("Need at least two sessions to compare.")
			return
		}
		from, to = list[1].Rev, list[0].Rev
	case 1:
		from = parseRev(fs.Arg(0))
		latest, err := storage.GetLatestSession(db, *source)
		if err != nil || latest == nil {
			fmt.Fprintf(os.Stderr, "No sessions for source %q\n", *source)
			os.Exit(1)
		}
		to = latest.Rev
	case 2:
		from, to = parseRev(fs.Arg(0)), parseRev(fs.Arg(1))
	default:
		fmt.Fprintln(os.Stderr, "Usage: tabhost sessions diff [rev] [rev2] [--source S]")
		os.Exit(1)
	}

	result, err := snapshot.DiffRevisions(db, *source, from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(snapshot.FormatDiff(result))
}

func runSessionsDelete(args []string) {
	fs := flag.NewFlagSet("sessions delete", flag.ExitOnError)
	source := fs.String("source", storage.SourceLocal, "Session source")
	yes := fs.Bool("yes", false, "Skip confirmation prompt")
	fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabhost sessions delete <rev> [--source S] [--yes]")
		os.Exit(1)
	}
	rev := parseRev(fs.Arg(0))

	if !*yes {
		fmt.Printf("Delete session #%d of %s? [y/N] ", rev, *source)
		in := bufio.NewReader(os.Stdin)
		answer, _ := in.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.DeleteSession(db, *source, rev); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting session: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Session #%d deleted.\n", rev)
}

func parseRev(s string) int {
	rev, err := strconv.Atoi(s)
	if err != nil || rev <= 0 {
		fmt.Fprintf(os.Stderr, "Invalid revision number: %s\n", s)
		os.Exit(1)
	}
	return rev
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	noSession := fs.Bool("no-session", false, "Import bookmarks only")
	fs.Parse(reorderArgs(args))

	profiles, err := firefox.DiscoverProfiles()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering Firefox profiles: %v\n", err)
		os.Exit(1)
	}
	profile, err := firefox.SelectProfile(profiles, resolveProfileName(*profileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, p := range profiles {
			fmt.Fprintf(os.Stderr, "  - %s\n", p.Name)
		}
		os.Exit(1)
	}

	tree, err := firefox.ReadBookmarks(profile.Path)
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "Warning: bookmarks not imported: %v\n", err)
	default:
		n, err := openStore().MergeBookmarks(tree)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error saving bookmarks: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d bookmarks from %s.\n", n, profile.Name)
	}

	if *noSession {
		return
	}
	windows, err := firefox.ReadSessionFile(profile.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: session not imported: %v\n", err)
		return
	}

	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	source := "firefox:" + profile.Name
	rev, created, _, err := snapshot.Create(db, source, snapshot.FromImported(windows), "imported")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error archiving session: %v\n", err)
		os.Exit(1)
	}
	if !created {
		fmt.Println("Session unchanged since last import.")
		return
	}
	fmt.Printf("Archived %d windows as %s #%d.\n", len(windows), source, rev)
}

func runProfiles() {
	profiles, err := firefox.DiscoverProfiles()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(profiles) == 0 {
		fmt.Println("No Firefox profiles found.")
		return
	}
	for _, p := range profiles {
		marker := "  "
		if p.IsDefault {
			marker = "* "
		}
		fmt.Printf("%s%s  %s\n", marker, p.Name, p.Path)
	}
}

func runRead(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	home, _ := os.UserHomeDir()
	outDir := fs.String("out-dir", filepath.Join(home, ".local", "share", "tabhost", "articles"), "Output directory")
	fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabhost read <url> [--out-dir path]")
		os.Exit(1)
	}

	start := time.Now()
	a, err := reader.Fetch(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	path, err := reader.Save(*outDir, a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s -> %s (%s)\n", a.Title, path, time.Since(start).Round(time.Millisecond))
}
