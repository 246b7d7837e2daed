package hmr

import "sync"

// Registry maps filesystem paths to the URLs they were served under.
// Entries are overwritten on every serve and never removed.
type Registry struct {
	mu     sync.RWMutex
	urls   map[string]string
	styles map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		urls:   make(map[string]string),
		styles: make(map[string]string),
	}
}

// Register records that path was served as url.
func (r *Registry) Register(path, url string) {
	r.mu.Lock()
	r.urls[path] = url
	r.mu.Unlock()
}

// RegisterStyle records that the style variant of path was served as url.
func (r *Registry) RegisterStyle(path, url string) {
	r.mu.Lock()
	r.styles[path] = url
	r.mu.Unlock()
}

// Lookup returns the URL path was served under.
func (r *Registry) Lookup(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	url, ok := r.urls[path]
	return url, ok
}

// LookupStyle returns the URL the style variant of path was served under.
func (r *Registry) LookupStyle(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	url, ok := r.styles[path]
	return url, ok
}

// Known reports whether path was served in any variant.
func (r *Registry) Known(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, a := r.urls[path]
	_, b := r.styles[path]
	return a || b
}

// Len returns the number of paths with a registered main URL.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.urls)
}
