// Package sfc compiles single-file components into separate script, template
// and style artifacts.
//
// Compiled scripts declare `const __sfc_main` and compiled templates declare
// a `render` function; the transform pipeline assembles them into a module.
package sfc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MainName is the identifier compiled scripts bind the component options to.
const MainName = "__sfc_main"

// Compiler compiles one component file.
type Compiler interface {
	Compile(ctx context.Context, source []byte, filename string) (*Result, error)
}

// Style is one compiled style block.
type Style struct {
	Content string
	Lang    string
	Scoped  bool
}

// Result is the output of a component compile.
type Result struct {
	// Script declares `const __sfc_main`.
	Script string

	// Template declares a `render` function. It may import from "vue".
	Template string

	// Styles holds the style blocks in source order.
	Styles []Style

	// HasScriptSetup reports whether the source used <script setup>.
	HasScriptSetup bool
}

// StyleContent concatenates the style blocks in order.
func (r *Result) StyleContent() string {
	var b strings.Builder
	for _, s := range r.Styles {
		b.WriteString(s.Content)
	}
	return b.String()
}

// ScopeID returns the stable scope identifier for a component file.
func ScopeID(filename string) string {
	sum := sha256.Sum256([]byte(filename))
	return hex.EncodeToString(sum[:4])
}
