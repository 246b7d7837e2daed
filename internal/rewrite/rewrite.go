// Package rewrite rewrites module import specifiers into URLs a browser can
// resolve natively.
//
// esbuild's parser is the tokenizer: the source is bundled as a single stdin
// entry with a resolver plugin that marks every specifier external under its
// rewritten name, so only import and export specifiers change.
package rewrite

import (
	"path"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/myvite-dev/myvite/internal/errors"
	"github.com/myvite-dev/myvite/internal/module"
)

// Rewriter rewrites import specifiers. The zero value is not usable; use New.
type Rewriter struct {
	// DepsPath is the URL of the pre-bundle directory.
	DepsPath string

	// Define holds global replacements applied while rewriting.
	Define map[string]string

	// aliases are sorted longest first so that "@/x" wins over "@".
	aliases []alias
}

type alias struct {
	from, to string
}

// New creates a Rewriter with the given resolve aliases and defines.
func New(aliases, define map[string]string) *Rewriter {
	r := &Rewriter{DepsPath: module.DepsPath, Define: define}
	for from, to := range aliases {
		r.aliases = append(r.aliases, alias{from: from, to: to})
	}
	sort.Slice(r.aliases, func(i, j int) bool {
		return len(r.aliases[i].from) > len(r.aliases[j].from)
	})
	return r
}

// Resolve maps one specifier to its browser URL. It is a pure function of
// the specifier and the importer's URL.
func (r *Rewriter) Resolve(spec, importerURL string) string {
	if hasScheme(spec) {
		return spec
	}
	spec = r.applyAlias(spec)

	switch {
	case isBare(spec):
		return r.DepsPath + "/" + spec + ".js"
	case isRelative(spec):
		ext := strings.ToLower(path.Ext(stripQuery(spec)))
		switch {
		case module.IsImageExt(ext):
			return appendImport(spec)
		case ext == ".vue" || ext == ".css":
			dir := path.Dir(stripQuery(importerURL))
			return path.Join(dir, spec)
		}
	}
	return spec
}

// Rewrite returns source with every static and dynamic import specifier
// replaced by Resolve's result. Source that cannot be parsed yields an E210
// error carrying esbuild's diagnostics.
func (r *Rewriter) Rewrite(source, importerURL string) (string, error) {
	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   source,
			Sourcefile: importerURL,
			Loader:     api.LoaderJS,
		},
		Bundle:      true,
		Write:       false,
		Format:      api.FormatESModule,
		Target:      api.ESNext,
		Charset:     api.CharsetUTF8,
		TreeShaking: api.TreeShakingFalse,
		Define:      r.Define,
		LogLevel:    api.LogLevelSilent,
		Plugins: []api.Plugin{{
			Name: "myvite-rewrite",
			Setup: func(build api.PluginBuild) {
				build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Kind == api.ResolveEntryPoint {
						return api.OnResolveResult{}, nil
					}
					return api.OnResolveResult{Path: r.Resolve(args.Path, importerURL), External: true}, nil
				})
			},
		}},
	})
	if len(result.Errors) > 0 {
		return "", parseError(result.Errors, importerURL, source)
	}
	if len(result.OutputFiles) == 0 {
		return "", nil
	}
	return string(result.OutputFiles[0].Contents), nil
}

// Scan lists the distinct specifiers a module imports, in source order.
func Scan(source string, loader api.Loader, sourcefile string) ([]string, error) {
	var specs []string
	seen := make(map[string]bool)
	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   source,
			Sourcefile: sourcefile,
			Loader:     loader,
		},
		Bundle:   true,
		Write:    false,
		Format:   api.FormatESModule,
		LogLevel: api.LogLevelSilent,
		Plugins: []api.Plugin{{
			Name: "myvite-scan",
			Setup: func(build api.PluginBuild) {
				build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Kind == api.ResolveEntryPoint {
						return api.OnResolveResult{}, nil
					}
					if !seen[args.Path] {
						seen[args.Path] = true
						specs = append(specs, args.Path)
					}
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})
			},
		}},
	})
	if len(result.Errors) > 0 {
		return nil, parseError(result.Errors, sourcefile, source)
	}
	return specs, nil
}

// IsBare reports whether spec names a package rather than a path.
func IsBare(spec string) bool {
	return isBare(spec) && !hasScheme(spec)
}

func (r *Rewriter) applyAlias(spec string) string {
	for _, a := range r.aliases {
		if spec == a.from {
			return a.to
		}
		if strings.HasPrefix(spec, a.from+"/") {
			return strings.TrimSuffix(a.to, "/") + spec[len(a.from):]
		}
	}
	return spec
}

func parseError(msgs []api.Message, file, source string) error {
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Text)
	}
	err := errors.New("E210").WithDetail(strings.Join(texts, "; "))
	if loc := msgs[0].Location; loc != nil {
		err = err.WithSource(file, loc.Line, loc.Column+1, source)
	}
	return err
}

func isBare(spec string) bool {
	return spec != "" && !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/")
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

func hasScheme(spec string) bool {
	return strings.Contains(spec, "://") || strings.HasPrefix(spec, "data:")
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

func appendImport(spec string) string {
	if strings.Contains(spec, "?") {
		return spec + "&" + module.ImportQuery
	}
	return spec + "?" + module.ImportQuery
}
