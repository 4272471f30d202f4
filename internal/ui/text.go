package ui

import (
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// truncate shortens s to at most width terminal cells, ending in "...".
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// truncatePath abbreviates the home directory to ~ and keeps the tail of
// long paths, which is the part that tells them apart.
func truncatePath(path string, width int) string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if path == home {
			path = "~"
		} else if strings.HasPrefix(path, home+"/") {
			path = "~" + path[len(home):]
		}
	}
	if width <= 0 || runewidth.StringWidth(path) <= width {
		return path
	}
	if width <= 3 {
		return runewidth.Truncate(path, width, "")
	}
	r := []rune(path)
	for runewidth.StringWidth(string(r))+3 > width && len(r) > 0 {
		r = r[1:]
	}
	return "..." + string(r)
}

// padRight pads s with spaces to width cells.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// doneLabel is "done 3 minutes ago" relative to now.
func doneLabel(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}
	return "done " + humanize.RelTime(at, now, "ago", "from now")
}
