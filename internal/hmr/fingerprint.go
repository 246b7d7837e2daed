package hmr

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

type fingerprintKey struct {
	path string
	part Part
}

// FingerprintTable holds the content hash of the last compiled output of
// each (path, part).
type FingerprintTable struct {
	mu     sync.Mutex
	hashes map[fingerprintKey]string
}

// NewFingerprintTable creates an empty table.
func NewFingerprintTable() *FingerprintTable {
	return &FingerprintTable{hashes: make(map[fingerprintKey]string)}
}

// Swap stores hash for (path, part) and reports whether it differs from the
// previously stored hash. The store happens whether or not it changed, so
// the next call compares against this revision.
func (t *FingerprintTable) Swap(path string, part Part, hash string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := fingerprintKey{path, part}
	prev, ok := t.hashes[key]
	t.hashes[key] = hash
	return !ok || prev != hash
}

// Get returns the stored hash for (path, part).
func (t *FingerprintTable) Get(path string, part Part) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.hashes[fingerprintKey{path, part}]
	return h, ok
}

// Hash returns the fingerprint of content.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
