package sfc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/myvite-dev/myvite/internal/errors"
)

// CachedCompiler memoizes another compiler by file name and content. Serving
// a component and classifying its change reuse one compile this way.
type CachedCompiler struct {
	inner Compiler
	cache *lru.Cache[string, *Result]
}

// NewCachedCompiler wraps inner with an LRU cache of size entries.
func NewCachedCompiler(inner Compiler, size int) (*CachedCompiler, error) {
	cache, err := lru.New[string, *Result](size)
	if err != nil {
		return nil, err
	}
	return &CachedCompiler{inner: inner, cache: cache}, nil
}

// Compile implements Compiler. Failed compiles are not cached.
func (c *CachedCompiler) Compile(ctx context.Context, source []byte, filename string) (*Result, error) {
	key := cacheKey(source, filename)
	if res, ok := c.cache.Get(key); ok {
		return res, nil
	}
	res, err := c.inner.Compile(ctx, source, filename)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, res)
	return res, nil
}

// Len returns the number of cached results.
func (c *CachedCompiler) Len() int {
	return c.cache.Len()
}

func cacheKey(source []byte, filename string) string {
	h := sha256.New()
	h.Write([]byte(filename))
	h.Write([]byte{0})
	h.Write(source)
	return hex.EncodeToString(h.Sum(nil))
}

// NewCompiler builds the compiler selected by mode ("auto", "node" or
// "builtin") for the project at root, wrapped in a cache of size entries.
// Auto picks node when @vue/compiler-sfc is installed.
func NewCompiler(mode, root string, size int) (Compiler, string, error) {
	var inner Compiler
	switch mode {
	case "node":
		if !NodeAvailable(root) {
			return nil, "", errors.New("E230").
				WithSuggestion("Run 'npm install -D @vue/compiler-sfc' or set compiler.mode to \"builtin\"")
		}
		inner = &NodeCompiler{Root: root}
	case "builtin":
		inner = BuiltinCompiler{}
	default:
		if NodeAvailable(root) {
			mode, inner = "node", &NodeCompiler{Root: root}
		} else {
			mode, inner = "builtin", BuiltinCompiler{}
		}
	}
	cached, err := NewCachedCompiler(inner, size)
	if err != nil {
		return nil, "", err
	}
	return cached, mode, nil
}
