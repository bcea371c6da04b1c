package settings

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned for a settings key Get and Set do not know.
var ErrUnknownKey = errors.New("unknown settings key")

// Keys lists the keys Get and Set accept, in display order.
var Keys = []string{"homepage", "search-engine", "dark-mode", "zoom", "window-size", "feature"}

// Get renders the value stored under key. The feature key takes the flag
// name as its argument; without one it lists every flag.
func (st *Store) Get(key string, args ...string) (string, error) {
	s := st.Current()
	switch key {
	case "homepage":
		return s.Homepage, nil
	case "search-engine":
		return s.SearchEngine, nil
	case "dark-mode":
		return onOff(s.DarkMode), nil
	case "zoom":
		return strconv.FormatFloat(s.ZoomLevel, 'g', -1, 64), nil
	case "window-size":
		return fmt.Sprintf("%dx%d", s.WindowSize.Width, s.WindowSize.Height), nil
	case "feature":
		if len(args) > 0 {
			return onOff(s.Features[args[0]]), nil
		}
		names := make([]string, 0, len(s.Features))
		for name := range s.Features {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]string, len(names))
		for i, name := range names {
			lines[i] = name + "=" + onOff(s.Features[name])
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Set parses args and stores them under key. Feature flags take the flag
// name followed by on or off.
func (st *Store) Set(key string, args ...string) error {
	need := 1
	if key == "feature" {
		need = 2
	}
	if len(args) != need {
		return fmt.Errorf("%s: expected %d value(s), got %d", key, need, len(args))
	}
	switch key {
	case "homepage":
		return st.SetHomepage(args[0])
	case "search-engine":
		if !strings.Contains(args[0], "%s") {
			return fmt.Errorf("search-engine: template %q has no %%s", args[0])
		}
		return st.SetSearchEngine(args[0])
	case "dark-mode":
		on, err := parseOnOff(args[0])
		if err != nil {
			return fmt.Errorf("dark-mode: %w", err)
		}
		return st.SetDarkMode(on)
	case "zoom":
		level, err := strconv.ParseFloat(args[0], 64)
		if err != nil || level <= 0 {
			return fmt.Errorf("zoom: invalid level %q", args[0])
		}
		return st.SetZoomLevel(level)
	case "feature":
		on, err := parseOnOff(args[1])
		if err != nil {
			return fmt.Errorf("feature %s: %w", args[0], err)
		}
		return st.SetFeature(args[0], on)
	case "window-size":
		return errors.New("window-size is recorded when the shell exits")
	}
	return fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
