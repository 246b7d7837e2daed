// Package errors provides structured, actionable error messages for myvite.
//
// Every failure the dev server or the build can surface to a user carries a
// stable code (e.g. "E210") that maps to a short message, a longer
// explanation and a documentation link. Errors can additionally carry the
// source location that caused them, a hint on how to fix the problem and the
// underlying error.
//
// # Error Categories
//
//   - config: configuration files and project layout
//   - transform: request-time transforms (specifier rewriting, script loaders)
//   - compile: component compilation
//   - hmr: hot update channel failures
//   - build: pre-bundling, production builds and publishing
//   - cli: command-line usage
//
// # Usage
//
//	err := errors.New("E210").
//	    WithLocation("src/main.ts", 3, 18).
//	    WithDetail(`Expected ";" but found "from"`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E210: Could not parse module specifiers
//	//
//	//   src/main.ts:3:18
//	//   ...
package errors
