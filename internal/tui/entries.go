package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// dirEntry is one row of the directory list.
type dirEntry struct {
	name    string
	path    string
	isDir   bool
	size    int64
	modTime time.Time
}

func (e dirEntry) Title() string {
	if e.isDir {
		return e.name + "/"
	}
	return e.name
}

func (e dirEntry) Description() string {
	if e.isDir {
		return "directory"
	}
	return fmt.Sprintf("%s · %s", humanSize(e.size), e.modTime.Format("Jan 2 15:04"))
}

func (e dirEntry) FilterValue() string { return e.name }

// loadEntriesCmd lists a directory off the update loop. Hidden entries are
// skipped; directories sort before files, both case-insensitively.
func loadEntriesCmd(path string) tea.Cmd {
	return func() tea.Msg {
		raw, err := os.ReadDir(path)
		if err != nil {
			return EntriesErrorMsg{Path: path, Err: err}
		}

		entries := make([]dirEntry, 0, len(raw))
		for _, de := range raw {
			if strings.HasPrefix(de.Name(), ".") {
				continue
			}
			entry := dirEntry{
				name:  de.Name(),
				path:  filepath.Join(path, de.Name()),
				isDir: de.IsDir(),
			}
			if info, err := de.Info(); err == nil {
				entry.size = info.Size()
				entry.modTime = info.ModTime()
			}
			entries = append(entries, entry)
		}

		sort.Slice(entries, func(i, j int) bool {
			if entries[i].isDir != entries[j].isDir {
				return entries[i].isDir
			}
			return strings.ToLower(entries[i].name) < strings.ToLower(entries[j].name)
		})

		items := make([]list.Item, len(entries))
		for i, entry := range entries {
			items[i] = entry
		}
		return EntriesLoadedMsg{Path: path, Items: items}
	}
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
