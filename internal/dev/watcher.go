package dev

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/myvite-dev/myvite/internal/hmr"
)

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Root is the directory watched recursively.
	Root string

	// Ignore patterns to skip (names, path segments or globs).
	Ignore []string

	// Settle is how long a path must be quiet before its event is emitted.
	// Kernel events of a single save inside the window merge into one.
	Settle time.Duration

	// OnEvent observes every emitted event.
	OnEvent func(hmr.Event)

	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"dist",
	".myvite",
	".DS_Store",
	"*.tmp",
	"*.swp",
	"*~",
}

// Watcher turns fsnotify events under a root into settled change, add and
// unlink events.
type Watcher struct {
	config WatcherConfig
	events chan hmr.Event
	ready  chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	known   map[string]bool
	pending map[string]*pendingEvent
	running bool
}

type pendingEvent struct {
	op    hmr.Op
	timer *time.Timer
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	config.Root = filepath.Clean(config.Root)
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Watcher{
		config:  config,
		events:  make(chan hmr.Event, 256),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		known:   make(map[string]bool),
		pending: make(map[string]*pendingEvent),
	}
}

// Events returns the channel settled events are delivered on, in emission
// order. It is never closed.
func (w *Watcher) Events() <-chan hmr.Event {
	return w.events
}

// Ready is closed once the initial tree is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.fsw = fsw
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		for p, pe := range w.pending {
			pe.timer.Stop()
			delete(w.pending, p)
		}
		w.mu.Unlock()
		close(w.done)
		fsw.Close()
	}()

	if err := w.addTree(w.config.Root, false); err != nil {
		return err
	}
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.config.Logger.Warn("fsnotify error", "error", err)
		}
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// addTree watches dir and its subdirectories. Files found are recorded as
// known; with emit set they are also reported as added.
func (w *Watcher) addTree(dir string, emit bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Vanished while walking.
			return nil
		}
		if p != w.config.Root && w.shouldIgnore(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.fsw.Add(p)
		}

		w.mu.Lock()
		w.known[p] = true
		w.mu.Unlock()
		if emit {
			w.schedule(p, hmr.OpAdd)
		}
		return nil
	})
}

func (w *Watcher) handle(ev fsnotify.Event) {
	p := filepath.Clean(ev.Name)
	if w.shouldIgnore(p) {
		return
	}

	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(p)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := w.addTree(p, true); err != nil {
				w.config.Logger.Warn("watch directory failed", "path", p, "error", err)
			}
			return
		}
		w.mu.Lock()
		existed := w.known[p]
		w.known[p] = true
		w.mu.Unlock()
		// A create over a known path is an atomic save.
		if existed {
			w.schedule(p, hmr.OpChange)
		} else {
			w.schedule(p, hmr.OpAdd)
		}

	case ev.Has(fsnotify.Write):
		w.mu.Lock()
		w.known[p] = true
		w.mu.Unlock()
		w.schedule(p, hmr.OpChange)

	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.mu.Lock()
		existed := w.known[p]
		delete(w.known, p)
		w.mu.Unlock()
		if existed {
			w.schedule(p, hmr.OpUnlink)
		}
	}
}

// schedule records op for p and emits it once p has been quiet for the
// settle window.
func (w *Watcher) schedule(p string, op hmr.Op) {
	if w.config.Settle <= 0 {
		w.emit(hmr.Event{Path: p, Op: op})
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if pe, ok := w.pending[p]; ok {
		pe.op = mergeOps(pe.op, op)
		pe.timer.Reset(w.config.Settle)
		return
	}
	w.pending[p] = &pendingEvent{
		op: op,
		timer: time.AfterFunc(w.config.Settle, func() {
			w.mu.Lock()
			pe, ok := w.pending[p]
			delete(w.pending, p)
			w.mu.Unlock()
			if ok {
				w.emit(hmr.Event{Path: p, Op: pe.op})
			}
		}),
	}
}

// mergeOps combines two events for one path inside a settle window.
func mergeOps(prev, next hmr.Op) hmr.Op {
	switch {
	case prev == hmr.OpUnlink && next != hmr.OpUnlink:
		// Removed and recreated: the editor's rename-over save.
		return hmr.OpChange
	case prev == hmr.OpAdd && next == hmr.OpChange:
		return hmr.OpAdd
	}
	return next
}

func (w *Watcher) emit(ev hmr.Event) {
	if w.config.OnEvent != nil {
		w.config.OnEvent(ev)
	}
	select {
	case w.events <- ev:
	case <-w.done:
	}
}

// shouldIgnore checks if a path should be ignored.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)
	if rel, err := filepath.Rel(w.config.Root, fullPath); err == nil {
		normalized = filepath.ToSlash(rel)
	}

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		// Direct match
		if name == pattern {
			return true
		}

		hasPathSep := strings.Contains(pattern, "/") || strings.Contains(pattern, "\\")
		hasGlob := strings.ContainsAny(pattern, "*?[")

		if hasGlob {
			if hasPathSep {
				if matched, _ := path.Match(filepath.ToSlash(pattern), normalized); matched {
					return true
				}
			} else {
				if matched, _ := filepath.Match(pattern, name); matched {
					return true
				}
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
			continue
		}

		if pathHasSegment(normalized, pattern) {
			return true
		}
	}

	return false
}

func pathHasSegment(path, segment string) bool {
	for _, part := range splitPathSegments(path) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(path, pattern string) bool {
	pathParts := splitPathSegments(path)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitPathSegments(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
