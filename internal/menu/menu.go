// Package menu implements the console flows around the watcher: picking
// a saved folder, confirming the prefix, and the runtime service menu.
package menu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BBlackMMan/Renamer/internal/store"
)

// Service is the slice of the running daemon the runtime menu drives.
type Service interface {
	Prefix() string
	SetPrefix(prefix string)
	Reorganize() error
}

// Action is the outcome of the runtime menu.
type Action int

const (
	ActionContinue Action = iota
	ActionStop
)

var exitWords = map[string]bool{
	"q": true, "quit": true, "exit": true, "cancel": true,
}

// Menu reads from in and writes prompts to out. Both are injectable so
// tests can script a session.
type Menu struct {
	store *store.Store
	in    *bufio.Scanner
	out   io.Writer
}

func New(st *store.Store, in io.Reader, out io.Writer) *Menu {
	return &Menu{store: st, in: bufio.NewScanner(in), out: out}
}

// prompt reads one trimmed line. ok is false on EOF or an exit word.
func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	line := strings.TrimSpace(m.in.Text())
	if exitWords[strings.ToLower(line)] {
		return "", false
	}
	return line, true
}

// ChooseFolder walks the saved-folder list until the user picks or adds
// one, or cancels. name is empty for a manually entered path.
func (m *Menu) ChooseFolder() (path, name string, ok bool) {
	for {
		folders := m.store.Folders()
		names := make([]string, 0, len(folders))
		for n := range folders {
			names = append(names, n)
		}
		sort.Strings(names)

		fmt.Fprintln(m.out, "\nWatched folders:")
		for i, n := range names {
			fmt.Fprintf(m.out, "  %d. %s\n     %s (prefix: %s)\n", i+1, n, folders[n], m.store.Prefix(folders[n], n))
		}
		fmt.Fprintf(m.out, "  %d. add a new folder\n", len(names)+1)
		fmt.Fprintf(m.out, "  %d. enter a path manually\n", len(names)+2)

		choice, cont := m.prompt("\nChoice (q to quit): ")
		if !cont {
			return "", "", false
		}
		idx, err := strconv.Atoi(choice)
		if err != nil || idx < 1 || idx > len(names)+2 {
			fmt.Fprintln(m.out, "invalid choice")
			continue
		}

		switch {
		case idx <= len(names):
			n := names[idx-1]
			return folders[n], n, true
		case idx == len(names)+1:
			if path, name, ok = m.addFolder(folders); ok {
				return path, name, true
			}
		default:
			if path, cont = m.prompt("Folder path: "); cont && path != "" {
				return path, "", true
			}
		}
	}
}

// addFolder collects a shortcut name and path and saves the record.
func (m *Menu) addFolder(existing map[string]string) (path, name string, ok bool) {
	for {
		var cont bool
		name, cont = m.prompt("Shortcut name: ")
		if !cont {
			return "", "", false
		}
		if name == "" {
			fmt.Fprintln(m.out, "name cannot be empty")
			continue
		}
		if _, taken := existing[name]; taken {
			fmt.Fprintf(m.out, "name %q already exists\n", name)
			continue
		}
		break
	}

	for {
		var cont bool
		path, cont = m.prompt("Folder path: ")
		if !cont {
			return "", "", false
		}
		if path == "" {
			fmt.Fprintln(m.out, "path cannot be empty")
			continue
		}
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			break
		}
		confirm, cont := m.prompt(fmt.Sprintf("%q does not exist. Add anyway? (y/N): ", path))
		if !cont {
			return "", "", false
		}
		if strings.EqualFold(confirm, "y") || strings.EqualFold(confirm, "yes") {
			break
		}
	}

	if err := m.store.SavePrefix(path, name, name); err != nil {
		fmt.Fprintf(m.out, "save folder: %v\n", err)
	}
	fmt.Fprintf(m.out, "folder added: %s: %s\n", name, path)
	return path, name, true
}

// ConfirmPrefix shows the saved prefix for the folder and lets the user
// keep it (empty input) or replace it. A replacement is persisted.
func (m *Menu) ConfirmPrefix(path, name string) (string, bool) {
	saved := m.store.Prefix(path, name)
	input, cont := m.prompt(fmt.Sprintf("Prefix (Enter keeps %q, q quits): ", saved))
	if !cont {
		return "", false
	}
	if input == "" {
		return saved, true
	}
	if err := m.store.SavePrefix(path, name, input); err != nil {
		fmt.Fprintf(m.out, "save prefix: %v\n", err)
	}
	return input, true
}

// Runtime drives the in-service menu until the user stops the watcher
// or returns to watching.
func (m *Menu) Runtime(svc Service, watchDir, name string) Action {
	for {
		fmt.Fprintf(m.out, `
Service menu
  1. status
  2. change prefix
  3. reorganize now
  4. stop
  5. back to watching
`)
		choice, cont := m.prompt("Choice (1-5): ")
		if !cont {
			return ActionContinue
		}

		switch choice {
		case "1":
			fmt.Fprintf(m.out, "watching: %s\nprefix:   %s\n", watchDir, svc.Prefix())
		case "2":
			input, cont := m.prompt(fmt.Sprintf("New prefix (current %q): ", svc.Prefix()))
			if !cont || input == "" {
				continue
			}
			svc.SetPrefix(input)
			if err := m.store.SavePrefix(watchDir, name, input); err != nil {
				fmt.Fprintf(m.out, "save prefix: %v\n", err)
			}
			fmt.Fprintf(m.out, "prefix changed to %q\n", input)
		case "3":
			if err := svc.Reorganize(); err != nil {
				fmt.Fprintf(m.out, "reorganize: %v\n", err)
			} else {
				fmt.Fprintln(m.out, "done")
			}
		case "4":
			confirm, cont := m.prompt("Stop the watcher? (y/N): ")
			if cont && (strings.EqualFold(confirm, "y") || strings.EqualFold(confirm, "yes")) {
				return ActionStop
			}
		case "5":
			return ActionContinue
		default:
			fmt.Fprintln(m.out, "invalid choice (1-5)")
		}
	}
}
