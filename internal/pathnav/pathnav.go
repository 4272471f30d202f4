// Package pathnav turns a directory into a navigable menu for choosing where
// to start an agent.
package pathnav

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EntryKind identifies what activating an entry does.
type EntryKind int

const (
	UseCurrentDirectory EntryKind = iota
	CreateDirectoryHere
	CloneFromURL
	Parent
	Subdirectory
)

func (k EntryKind) String() string {
	switch k {
	case UseCurrentDirectory:
		return "use"
	case CreateDirectoryHere:
		return "create"
	case CloneFromURL:
		return "clone"
	case Parent:
		return "parent"
	case Subdirectory:
		return "dir"
	default:
		return "unknown"
	}
}

// Entry is one row in the menu.
type Entry struct {
	Kind  EntryKind
	Label string
	Path  string
}

// ResultKind is the outcome of Activate.
type ResultKind int

const (
	// Selected means the caller should use Result.Path.
	Selected ResultKind = iota
	// StartCreateDirectory asks the caller to prompt for a name, then call
	// CreateDirectory.
	StartCreateDirectory
	// StartCloneFromURL asks the caller to prompt for a URL, clone it into
	// Path(), then Reopen at the clone.
	StartCloneFromURL
	// ChangedDirectory means the navigator moved; nothing for the caller to do.
	ChangedDirectory
)

// Result is returned by Activate.
type Result struct {
	Kind ResultKind
	Path string
}

// PageSize is how far PageDown and PageUp move.
const PageSize = 10

// ErrInvalidName is returned by CreateDirectory for an empty or multi-segment
// name.
var ErrInvalidName = errors.New("directory name must be a single non-empty path segment")

// Navigator is a cursor over the entries of one directory.
type Navigator struct {
	cwd      string
	entries  []Entry
	selected int
}

// Open lists start. It fails if start cannot be read.
func Open(start string) (*Navigator, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", start, err)
	}
	n := &Navigator{}
	if err := n.chdir(abs); err != nil {
		return nil, err
	}
	return n, nil
}

// Path is the directory currently listed.
func (n *Navigator) Path() string { return n.cwd }

// Entries returns the menu rows. The slice must not be modified.
func (n *Navigator) Entries() []Entry { return n.entries }

// Selected is the cursor index into Entries.
func (n *Navigator) Selected() int { return n.selected }

// SelectedEntry returns the entry under the cursor.
func (n *Navigator) SelectedEntry() (Entry, bool) {
	if n.selected < 0 || n.selected >= len(n.entries) {
		return Entry{}, false
	}
	return n.entries[n.selected], true
}

// Next moves the cursor down, wrapping to the top.
func (n *Navigator) Next() {
	if len(n.entries) == 0 {
		n.selected = 0
		return
	}
	n.selected = (n.selected + 1) % len(n.entries)
}

// Previous moves the cursor up, wrapping to the bottom.
func (n *Navigator) Previous() {
	if len(n.entries) == 0 {
		n.selected = 0
		return
	}
	if n.selected == 0 {
		n.selected = len(n.entries) - 1
		return
	}
	n.selected--
}

// PageDown moves PageSize rows down, wrapping like Next.
func (n *Navigator) PageDown() {
	for i := 0; i < PageSize; i++ {
		n.Next()
	}
}

// PageUp moves PageSize rows up, wrapping like Previous.
func (n *Navigator) PageUp() {
	for i := 0; i < PageSize; i++ {
		n.Previous()
	}
}

// Activate acts on the entry under the cursor. Navigation errors leave the
// navigator where it was.
func (n *Navigator) Activate() (Result, error) {
	entry, ok := n.SelectedEntry()
	if !ok {
		return Result{Kind: Selected, Path: n.cwd}, nil
	}

	switch entry.Kind {
	case CreateDirectoryHere:
		return Result{Kind: StartCreateDirectory}, nil
	case CloneFromURL:
		return Result{Kind: StartCloneFromURL}, nil
	case Parent, Subdirectory:
		if err := n.chdir(entry.Path); err != nil {
			return Result{}, err
		}
		return Result{Kind: ChangedDirectory}, nil
	default:
		return Result{Kind: Selected, Path: n.cwd}, nil
	}
}

// CreateDirectory makes name (and any missing ancestors) under the current
// directory and moves into it.
func (n *Navigator) CreateDirectory(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}

	target := filepath.Join(n.cwd, name)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	if err := n.chdir(target); err != nil {
		return "", err
	}
	return target, nil
}

// Reopen re-roots the navigator at path, used after a clone lands somewhere
// new.
func (n *Navigator) Reopen(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	return n.chdir(abs)
}

// chdir lists dir and only then commits the move.
func (n *Navigator) chdir(dir string) error {
	entries, err := listEntries(dir)
	if err != nil {
		return err
	}
	n.cwd = dir
	n.entries = entries
	if n.selected >= len(entries) {
		n.selected = len(entries) - 1
	}
	if n.selected < 0 {
		n.selected = 0
	}
	return nil
}

func listEntries(dir string) ([]Entry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var subdirs []Entry
	for _, de := range dirents {
		path := filepath.Join(dir, de.Name())
		isDir := de.IsDir()
		if !isDir && de.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil {
				isDir = info.IsDir()
			}
		}
		if isDir {
			subdirs = append(subdirs, Entry{Kind: Subdirectory, Label: de.Name(), Path: path})
		}
	}
	sort.SliceStable(subdirs, func(i, j int) bool {
		return strings.ToLower(subdirs[i].Label) < strings.ToLower(subdirs[j].Label)
	})

	entries := make([]Entry, 0, len(subdirs)+4)
	entries = append(entries,
		Entry{Kind: UseCurrentDirectory, Label: "Use " + dir, Path: dir},
		Entry{Kind: CreateDirectoryHere, Label: "Create directory here...", Path: dir},
		Entry{Kind: CloneFromURL, Label: "Clone from URL...", Path: dir},
	)
	if parent := filepath.Dir(dir); parent != dir {
		entries = append(entries, Entry{Kind: Parent, Label: "..", Path: parent})
	}
	return append(entries, subdirs...), nil
}
