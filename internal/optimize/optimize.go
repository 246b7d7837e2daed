// Package optimize pre-bundles the bare imports of a project's sources into
// browser-ready ES modules under the deps directory, one output file per
// specifier, so the dev server can serve them verbatim.
package optimize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/myvite-dev/myvite/internal/errors"
	"github.com/myvite-dev/myvite/internal/rewrite"
	"github.com/myvite-dev/myvite/internal/sfc"
)

// MetadataFile is written into OutDir after a successful run.
const MetadataFile = "_metadata.json"

// FullVueEntry is the Vue build that carries the runtime template compiler.
const FullVueEntry = "vue/dist/vue.esm-bundler.js"

// Optimizer pre-bundles dependencies.
type Optimizer struct {
	// Root is the project root; bare specifiers resolve from its node_modules.
	Root string

	// SrcDir is the directory scanned for imports.
	SrcDir string

	// OutDir receives the bundled dependencies.
	OutDir string

	// Include adds specifiers that are not found by scanning.
	Include []string

	// Exclude removes specifiers from the scanned set.
	Exclude []string

	// Define holds global replacements applied while bundling.
	Define map[string]string

	// Force rebundles even when the dependency set is unchanged.
	Force bool

	// FullVue bundles "vue" from its full build so templates can be compiled
	// in the browser.
	FullVue bool

	Logger *slog.Logger
}

// Result describes a run.
type Result struct {
	Deps    []string
	Hash    string
	Skipped bool
}

type metadata struct {
	Hash string   `json:"hash"`
	Deps []string `json:"deps"`
}

var scanLoaders = map[string]api.Loader{
	".js":  api.LoaderJS,
	".mjs": api.LoaderJS,
	".jsx": api.LoaderJSX,
	".ts":  api.LoaderTS,
	".tsx": api.LoaderTSX,
}

// Scan returns the sorted, distinct bare specifiers imported by the project,
// adjusted by Include and Exclude.
func (o *Optimizer) Scan(ctx context.Context) ([]string, error) {
	found := make(map[string]bool)

	err := filepath.WalkDir(o.SrcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != o.SrcDir && (d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := scanLoaders[ext]; !ok && ext != ".vue" {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		specs, err := scanFile(path, ext, content)
		if err != nil {
			return err
		}
		for _, s := range specs {
			if rewrite.IsBare(s) {
				found[s] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, s := range o.Include {
		found[s] = true
	}
	for _, s := range o.Exclude {
		delete(found, s)
	}

	deps := make([]string, 0, len(found))
	for s := range found {
		deps = append(deps, s)
	}
	sort.Strings(deps)
	return deps, nil
}

func scanFile(path, ext string, content []byte) ([]string, error) {
	if ext != ".vue" {
		return rewrite.Scan(string(content), scanLoaders[ext], path)
	}

	desc, err := sfc.Parse(content)
	if err != nil {
		return nil, errors.New("E220").WithDetail(err.Error()).WithLocation(path, 1, 0)
	}
	var specs []string
	for _, b := range []*sfc.Block{desc.Script, desc.ScriptSetup} {
		if b == nil {
			continue
		}
		loader := api.LoaderJS
		if l, ok := scanLoaders["."+b.Lang()]; ok {
			loader = l
		}
		s, err := rewrite.Scan(b.Content, loader, path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s...)
	}
	return specs, nil
}

// Run scans the project and bundles its dependencies into OutDir. A run
// whose dependency set matches the recorded metadata is skipped unless
// Force is set.
func (o *Optimizer) Run(ctx context.Context) (*Result, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	deps, err := o.Scan(ctx)
	if err != nil {
		// Parse failures keep their own code and location.
		return nil, errors.FromError(err, "E300")
	}
	res := &Result{Deps: deps, Hash: o.hash(deps)}

	if !o.Force {
		if prev, err := o.readMetadata(); err == nil && prev.Hash == res.Hash {
			res.Skipped = true
			logger.Debug("dependencies unchanged", "count", len(deps))
			return res, nil
		}
	}

	if err := os.RemoveAll(o.OutDir); err != nil {
		return nil, errors.New("E300").Wrap(err)
	}
	if err := os.MkdirAll(o.OutDir, 0755); err != nil {
		return nil, errors.New("E300").Wrap(err)
	}

	if len(deps) > 0 {
		if err := o.bundle(deps); err != nil {
			return nil, err
		}
	}

	if err := o.writeMetadata(metadata{Hash: res.Hash, Deps: deps}); err != nil {
		return nil, errors.New("E300").Wrap(err)
	}
	logger.Info("dependencies pre-bundled", "count", len(deps), "dir", o.OutDir)
	return res, nil
}

func (o *Optimizer) bundle(deps []string) error {
	entries := make([]api.EntryPoint, 0, len(deps))
	for _, d := range deps {
		input := d
		if d == "vue" && o.FullVue {
			input = FullVueEntry
		}
		entries = append(entries, api.EntryPoint{InputPath: input, OutputPath: d})
	}

	define := map[string]string{
		"__VUE_OPTIONS_API__":                     "true",
		"__VUE_PROD_DEVTOOLS__":                   "false",
		"__VUE_PROD_HYDRATION_MISMATCH_DETAILS__": "false",
		"process.env.NODE_ENV":                    `"development"`,
	}
	for k, v := range o.Define {
		define[k] = v
	}

	opts := api.BuildOptions{
		AbsWorkingDir:       o.Root,
		EntryPointsAdvanced: entries,
		Bundle:              true,
		Write:               true,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		Splitting:           true,
		Outdir:              o.OutDir,
		Define:              define,
		LogLevel:            api.LogLevelSilent,
	}
	if o.FullVue {
		opts.Alias = map[string]string{"vue": FullVueEntry}
	}

	result := api.Build(opts)
	if len(result.Errors) > 0 {
		texts := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			texts = append(texts, m.Text)
		}
		return errors.New("E300").
			WithDetail(strings.Join(texts, "; ")).
			WithSuggestion("Check that the packages are installed in node_modules")
	}
	return nil
}

func (o *Optimizer) hash(deps []string) string {
	h := sha256.New()
	for _, d := range deps {
		h.Write([]byte(d))
		h.Write([]byte{0})
	}
	keys := make([]string, 0, len(o.Define))
	for k := range o.Define {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k + "=" + o.Define[k]))
		h.Write([]byte{0})
	}
	if o.FullVue {
		h.Write([]byte("full-vue"))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (o *Optimizer) readMetadata() (*metadata, error) {
	data, err := os.ReadFile(filepath.Join(o.OutDir, MetadataFile))
	if err != nil {
		return nil, err
	}
	var m metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (o *Optimizer) writeMetadata(m metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(o.OutDir, MetadataFile), data, 0644)
}
