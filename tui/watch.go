package tui

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// templateWatcher reports writes to the template file made by other processes.
// It watches the parent directory because saves replace the file by rename.
type templateWatcher struct {
	w    *fsnotify.Watcher
	path string
}

type templateChangedMsg struct {
	path string
}

func newTemplateWatcher(path string) (*templateWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &templateWatcher{w: w, path: abs}, nil
}

// wait blocks until the template file is created, written or renamed into place.
// A nil watcher never fires.
func (tw *templateWatcher) wait() tea.Cmd {
	if tw == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-tw.w.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(ev.Name) != tw.path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					return templateChangedMsg{path: tw.path}
				}
			case _, ok := <-tw.w.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func (tw *templateWatcher) Close() error {
	if tw == nil {
		return nil
	}
	return tw.w.Close()
}
