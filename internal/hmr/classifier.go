package hmr

import (
	"context"
	"sync"

	"github.com/myvite-dev/myvite/internal/module"
	"github.com/myvite-dev/myvite/internal/sfc"
)

// Classifier reports which parts of a file changed since it was last seen.
type Classifier struct {
	compiler sfc.Compiler
	table    *FingerprintTable

	mu   sync.Mutex
	last map[string]Parts
}

// NewClassifier creates a classifier that compiles components with compiler
// and keeps fingerprints in table.
func NewClassifier(compiler sfc.Compiler, table *FingerprintTable) *Classifier {
	return &Classifier{
		compiler: compiler,
		table:    table,
		last:     make(map[string]Parts),
	}
}

// Classify returns the changed parts of the file at path with the given
// content. Stylesheets and scripts are a single part that is always reported
// changed. Components are compiled and each part's hash is compared with,
// then replaces, the stored one.
func (c *Classifier) Classify(ctx context.Context, path string, content []byte) (Parts, error) {
	var parts Parts
	switch module.ClassifyFile(path) {
	case module.KindStylesheet:
		parts = parts.With(PartStyle)
	case module.KindScript:
		parts = parts.With(PartScript)
	case module.KindCompositeScript:
		res, err := c.compiler.Compile(ctx, content, path)
		if err != nil {
			return 0, err
		}
		parts = c.swap(path, res)
	default:
		return 0, nil
	}

	c.mu.Lock()
	c.last[path] = parts
	c.mu.Unlock()
	return parts, nil
}

// Observe records the fingerprints of a compile made while serving path,
// without reporting a change. The next Classify compares against what the
// browser was actually sent.
func (c *Classifier) Observe(path string, res *sfc.Result) {
	c.swap(path, res)
}

// LastChange returns the parts reported by the most recent Classify of path.
func (c *Classifier) LastChange(path string) (Parts, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	parts, ok := c.last[path]
	return parts, ok
}

func (c *Classifier) swap(path string, res *sfc.Result) Parts {
	var parts Parts
	if c.table.Swap(path, PartScript, Hash(res.Script)) {
		parts = parts.With(PartScript)
	}
	if c.table.Swap(path, PartTemplate, Hash(res.Template)) {
		parts = parts.With(PartTemplate)
	}
	if c.table.Swap(path, PartStyle, Hash(res.StyleContent())) {
		parts = parts.With(PartStyle)
	}
	return parts
}
