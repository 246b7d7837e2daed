package build

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/myvite-dev/myvite/internal/config"
	"github.com/myvite-dev/myvite/internal/errors"
	"github.com/myvite-dev/myvite/internal/optimize"
	"github.com/myvite-dev/myvite/internal/sfc"
)

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// OutDir is the absolute output directory.
	OutDir string

	// Entry is the built entry script, relative to OutDir.
	Entry string

	// CSS lists the stylesheets the entry needs, relative to OutDir.
	CSS []string

	// Manifest maps source paths to their built files.
	Manifest map[string]ManifestChunk

	// Files is the number of files written by the bundler.
	Files int

	// Size is the total size in bytes of the bundler's output.
	Size int64
}

// ManifestChunk describes the built form of one source module.
type ManifestChunk struct {
	File    string   `json:"file"`
	Src     string   `json:"src"`
	IsEntry bool     `json:"isEntry,omitempty"`
	CSS     []string `json:"css,omitempty"`
}

// Options configures the builder.
type Options struct {
	// Minify enables minification.
	Minify bool

	// SourceMaps enables source map generation.
	SourceMaps bool

	// Compiler compiles component files.
	Compiler sfc.Compiler

	// FullVue bundles Vue's full build, needed when templates are compiled
	// in the browser.
	FullVue bool

	// Define holds extra global replacements.
	Define map[string]string

	// OnProgress is called with progress updates.
	OnProgress func(step string)

	Logger *slog.Logger
}

// Builder handles production builds.
type Builder struct {
	config  *config.Config
	options Options
}

// New creates a new builder.
func New(cfg *config.Config, options Options) *Builder {
	// Apply config defaults to options
	if !options.Minify && cfg.Build.Minify {
		options.Minify = true
	}
	if !options.SourceMaps && cfg.Build.Sourcemap {
		options.SourceMaps = true
	}
	if options.Compiler == nil {
		options.Compiler = sfc.BuiltinCompiler{}
		options.FullVue = true
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Builder{
		config:  cfg,
		options: options,
	}
}

// Build performs a production build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	root := b.config.RootPath()
	outDir := b.config.OutputPath()

	entry, err := b.config.EntryPath()
	if err != nil {
		return nil, err
	}
	indexHTML, err := os.ReadFile(b.config.IndexPath())
	if err != nil {
		return nil, errors.New("E112").WithLocation(b.config.IndexPath(), 0, 0)
	}

	// Clean output directory
	b.progress("Cleaning output directory...")
	if err := os.RemoveAll(outDir); err != nil {
		return nil, errors.New("E400").Wrap(err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, errors.New("E400").Wrap(err)
	}

	b.progress("Bundling " + relSlash(root, entry) + "...")
	result, err := b.bundle(ctx, root, outDir, entry)
	if err != nil {
		return nil, err
	}

	// Copy public before index.html so the rewritten document wins.
	b.progress("Copying public assets...")
	if err := copyDir(b.config.PublicPath(), outDir); err != nil {
		return nil, errors.New("E400").Wrap(err)
	}

	b.progress("Writing index.html...")
	html := RewriteIndex(string(indexHTML), "/"+relSlash(root, entry), "/"+result.Entry, cssURLs(result.CSS))
	if err := os.WriteFile(filepath.Join(outDir, "index.html"), []byte(html), 0644); err != nil {
		return nil, errors.New("E400").Wrap(err)
	}

	// Write manifest
	b.progress("Writing manifest...")
	if err := writeManifest(outDir, result.Manifest); err != nil {
		return nil, errors.New("E400").Wrap(err)
	}

	result.Duration = time.Since(start)
	b.options.Logger.Info("build complete",
		"entry", result.Entry,
		"files", result.Files,
		"bytes", result.Size,
		"duration", result.Duration)
	return result, nil
}

func (b *Builder) bundle(ctx context.Context, root, outDir, entry string) (*Result, error) {
	assets := strings.Trim(filepath.ToSlash(b.config.Build.AssetsDir), "/")
	names := "[name]-[hash]"
	if assets != "" {
		names = assets + "/" + names
	}

	define := map[string]string{
		"process.env.NODE_ENV":                    `"production"`,
		"__VUE_OPTIONS_API__":                     "true",
		"__VUE_PROD_DEVTOOLS__":                   "false",
		"__VUE_PROD_HYDRATION_MISMATCH_DETAILS__": "false",
	}
	for k, v := range b.options.Define {
		define[k] = v
	}

	opts := api.BuildOptions{
		AbsWorkingDir:     root,
		EntryPoints:       []string{entry},
		Bundle:            true,
		Write:             true,
		Metafile:          true,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		Splitting:         true,
		Outdir:            outDir,
		EntryNames:        names,
		ChunkNames:        names,
		AssetNames:        names,
		PublicPath:        "/",
		MinifyWhitespace:  b.options.Minify,
		MinifyIdentifiers: b.options.Minify,
		MinifySyntax:      b.options.Minify,
		Define:            define,
		Loader:            assetLoaders,
		LogLevel:          api.LogLevelSilent,
		Plugins:           []api.Plugin{componentPlugin(ctx, b.options.Compiler)},
	}
	if b.options.SourceMaps {
		opts.Sourcemap = api.SourceMapLinked
	}
	if b.options.FullVue {
		opts.Alias = map[string]string{"vue": optimize.FullVueEntry}
	}

	built := api.Build(opts)
	if len(built.Errors) > 0 {
		return nil, bundleError(built.Errors)
	}

	var meta metafile
	if err := json.Unmarshal([]byte(built.Metafile), &meta); err != nil {
		return nil, errors.New("E400").Wrap(err)
	}

	result := &Result{OutDir: outDir, Manifest: make(map[string]ManifestChunk)}
	entryRel := relSlash(root, entry)
	for out, info := range meta.Outputs {
		result.Files++
		result.Size += info.Bytes
		if info.EntryPoint != entryRel {
			continue
		}
		result.Entry = relSlash(outDir, filepath.Join(root, filepath.FromSlash(out)))
		if info.CSSBundle != "" {
			result.CSS = append(result.CSS, relSlash(outDir, filepath.Join(root, filepath.FromSlash(info.CSSBundle))))
		}
	}
	if result.Entry == "" {
		return nil, errors.New("E400").WithDetail("esbuild produced no output for " + entryRel)
	}

	result.Manifest[entryRel] = ManifestChunk{
		File:    result.Entry,
		Src:     entryRel,
		IsEntry: true,
		CSS:     result.CSS,
	}
	return result, nil
}

// metafile is the part of esbuild's metafile the builder reads.
type metafile struct {
	Outputs map[string]struct {
		Bytes      int64  `json:"bytes"`
		EntryPoint string `json:"entryPoint"`
		CSSBundle  string `json:"cssBundle"`
	} `json:"outputs"`
}

var assetLoaders = map[string]api.Loader{
	".png":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".jpeg":  api.LoaderFile,
	".gif":   api.LoaderFile,
	".webp":  api.LoaderFile,
	".avif":  api.LoaderFile,
	".ico":   api.LoaderFile,
	".svg":   api.LoaderFile,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
}

func bundleError(msgs []api.Message) error {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			lines = append(lines, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
		} else {
			lines = append(lines, m.Text)
		}
	}
	err := errors.New("E400").WithDetail(strings.Join(lines, "\n"))
	if loc := msgs[0].Location; loc != nil {
		err = err.WithLocation(loc.File, loc.Line, loc.Column+1)
	}
	return err
}

func cssURLs(files []string) []string {
	urls := make([]string, len(files))
	for i, f := range files {
		urls[i] = "/" + f
	}
	return urls
}

// writeManifest writes the asset manifest.
func writeManifest(outputDir string, manifest map[string]ManifestChunk) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}

	manifestPath := filepath.Join(outputDir, "manifest.json")
	return os.WriteFile(manifestPath, data, 0644)
}

// progress reports build progress.
func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

// copyDir copies the files under src into dst. A missing src is not an error.
func copyDir(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}

	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(src, path)
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

// copyFile copies a file.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// relSlash returns target relative to base with forward slashes.
func relSlash(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

// Clean removes the build output directory.
func (b *Builder) Clean() error {
	return os.RemoveAll(b.config.OutputPath())
}

// OutputFiles lists the files under the output directory, relative to it,
// in sorted order.
func OutputFiles(outDir string) ([]string, error) {
	var files []string
	err := filepath.Walk(outDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, relSlash(outDir, path))
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
