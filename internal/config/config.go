package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/myvite-dev/myvite/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "myvite.json"

	// DefaultPort is the default development server port.
	DefaultPort = 5173

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// DefaultAssetsDir is the default directory for hashed build assets,
	// relative to the output directory.
	DefaultAssetsDir = "assets"

	// DefaultEnvPrefix is the prefix env keys need to be exposed to client code.
	DefaultEnvPrefix = "MYVITE_"

	// DefaultSettle is the default window in which filesystem events for one
	// path are merged.
	DefaultSettle = 50 * time.Millisecond

	// DefaultCacheSize is the default number of compiled components kept in memory.
	DefaultCacheSize = 256

	// DepsDir is the pre-bundled dependency directory, relative to the root.
	DepsDir = "node_modules/.myvite/deps"
)

// ConfigFileNames lists the accepted configuration files in lookup order.
var ConfigFileNames = []string{ConfigFileName, "myvite.yaml", "myvite.yml"}

// Compiler modes.
const (
	CompilerAuto    = "auto"
	CompilerNode    = "node"
	CompilerBuiltin = "builtin"
)

// Config represents the complete myvite configuration.
type Config struct {
	// Root is the project root, relative to the config file.
	Root string `json:"root,omitempty" yaml:"root,omitempty"`

	// Mode is the env mode ("development" for dev, "production" for build).
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Server contains development server configuration.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Build contains production build configuration.
	Build BuildConfig `json:"build,omitempty" yaml:"build,omitempty"`

	// OptimizeDeps controls the dependency pre-bundler.
	OptimizeDeps OptimizeConfig `json:"optimizeDeps,omitempty" yaml:"optimizeDeps,omitempty"`

	// Resolve contains import resolution settings.
	Resolve ResolveConfig `json:"resolve,omitempty" yaml:"resolve,omitempty"`

	// Define holds global constant replacements applied to scripts.
	Define map[string]string `json:"define,omitempty" yaml:"define,omitempty"`

	// EnvPrefix selects which env variables are exposed on import.meta.env.
	EnvPrefix string `json:"envPrefix,omitempty" yaml:"envPrefix,omitempty"`

	// Compiler selects the component compiler.
	Compiler CompilerConfig `json:"compiler,omitempty" yaml:"compiler,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains development server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Open opens the browser automatically on start.
	Open bool `json:"open,omitempty" yaml:"open,omitempty"`

	// HMR enables hot module replacement. When false every change reloads the page.
	HMR bool `json:"hmr" yaml:"hmr"`

	// Proxy maps path prefixes to upstream URLs.
	Proxy map[string]string `json:"proxy,omitempty" yaml:"proxy,omitempty"`

	// Watch configures the file watcher.
	Watch WatchConfig `json:"watch,omitempty" yaml:"watch,omitempty"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	// Ignore contains extra patterns to ignore.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`

	// Settle is a Go duration string, e.g. "50ms".
	Settle string `json:"settle,omitempty" yaml:"settle,omitempty"`
}

// BuildConfig contains production build settings.
type BuildConfig struct {
	// Input is the entry module. Defaults to src/main.*.
	Input string `json:"input,omitempty" yaml:"input,omitempty"`

	// OutDir is the output directory for builds.
	OutDir string `json:"outDir,omitempty" yaml:"outDir,omitempty"`

	// AssetsDir holds hashed chunks and assets, relative to OutDir.
	AssetsDir string `json:"assetsDir,omitempty" yaml:"assetsDir,omitempty"`

	// Minify enables minification.
	Minify bool `json:"minify" yaml:"minify"`

	// Sourcemap enables source map generation.
	Sourcemap bool `json:"sourcemap,omitempty" yaml:"sourcemap,omitempty"`

	// Publish configures uploading the output to S3.
	Publish PublishConfig `json:"publish,omitempty" yaml:"publish,omitempty"`
}

// PublishConfig configures the S3 publisher.
type PublishConfig struct {
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// OptimizeConfig controls the dependency pre-bundler.
type OptimizeConfig struct {
	// Include lists bare specifiers to pre-bundle even if not found by the scan.
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`

	// Exclude lists bare specifiers never to pre-bundle.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// Force re-bundles even when the dependency list is unchanged.
	Force bool `json:"force,omitempty" yaml:"force,omitempty"`
}

// ResolveConfig contains import resolution settings.
type ResolveConfig struct {
	// Alias maps specifier prefixes to root-relative paths ("@" -> "/src").
	Alias map[string]string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// CompilerConfig selects the component compiler.
type CompilerConfig struct {
	// Mode is one of "auto", "node" or "builtin".
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// CacheSize is the number of compiled components kept in memory.
	CacheSize int `json:"cacheSize,omitempty" yaml:"cacheSize,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Mode: "development",
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
			HMR:  true,
			Watch: WatchConfig{
				Settle: DefaultSettle.String(),
			},
		},
		Build: BuildConfig{
			OutDir:    DefaultOutput,
			AssetsDir: DefaultAssetsDir,
			Minify:    true,
		},
		EnvPrefix: DefaultEnvPrefix,
		Compiler: CompilerConfig{
			Mode:      CompilerAuto,
			CacheSize: DefaultCacheSize,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for myvite.json, myvite.yaml and myvite.yml in that order.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E100").
		WithDetail("No myvite.json or myvite.yaml found in " + dir).
		WithSuggestion("Create a myvite.json file at the project root, {} is a valid config")
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E101").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid YAML")
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E101").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid JSON")
		}
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// SetDir anchors a config built with New at dir, as if it had been loaded
// from a file in that directory.
func (c *Config) SetDir(dir string) {
	c.configPath = filepath.Join(dir, ConfigFileName)
}

// applyDefaults fills in default values for fields a config file cleared.
func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "development"
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Watch.Settle == "" {
		c.Server.Watch.Settle = DefaultSettle.String()
	}
	if c.Build.OutDir == "" {
		c.Build.OutDir = DefaultOutput
	}
	if c.Build.AssetsDir == "" {
		c.Build.AssetsDir = DefaultAssetsDir
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = DefaultEnvPrefix
	}
	if c.Compiler.Mode == "" {
		c.Compiler.Mode = CompilerAuto
	}
	if c.Compiler.CacheSize <= 0 {
		c.Compiler.CacheSize = DefaultCacheSize
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E102").
			WithDetail("server.port must be between 0 and 65535")
	}
	if _, err := time.ParseDuration(c.Server.Watch.Settle); err != nil {
		return errors.New("E102").
			WithDetail("server.watch.settle is not a duration: " + c.Server.Watch.Settle).
			WithSuggestion(`Use a Go duration such as "50ms"`)
	}
	switch c.Compiler.Mode {
	case CompilerAuto, CompilerNode, CompilerBuiltin:
	default:
		return errors.New("E102").
			WithDetail("compiler.mode must be auto, node or builtin, got " + strconv.Quote(c.Compiler.Mode))
	}
	for prefix := range c.Server.Proxy {
		if !strings.HasPrefix(prefix, "/") {
			return errors.New("E102").
				WithDetail("server.proxy keys must start with '/': " + prefix)
		}
	}
	if info, err := os.Stat(c.RootPath()); err != nil || !info.IsDir() {
		return errors.New("E110").
			WithDetail("Root directory " + c.RootPath() + " does not exist")
	}
	return nil
}

// Settle returns the watcher settle window.
func (c *Config) Settle() time.Duration {
	d, err := time.ParseDuration(c.Server.Watch.Settle)
	if err != nil || d < 0 {
		return DefaultSettle
	}
	return d
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// DevURL returns the full URL for the dev server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// RootPath returns the absolute path to the project root.
func (c *Config) RootPath() string {
	if filepath.IsAbs(c.Root) {
		return c.Root
	}
	return filepath.Join(c.Dir(), c.Root)
}

// SrcPath returns the absolute path to the source directory.
func (c *Config) SrcPath() string {
	return filepath.Join(c.RootPath(), "src")
}

// PublicPath returns the absolute path to the public directory.
func (c *Config) PublicPath() string {
	return filepath.Join(c.RootPath(), "public")
}

// IndexPath returns the absolute path to the project's index.html.
func (c *Config) IndexPath() string {
	return filepath.Join(c.RootPath(), "index.html")
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Build.OutDir) {
		return c.Build.OutDir
	}
	return filepath.Join(c.RootPath(), c.Build.OutDir)
}

// DepsPath returns the absolute path to the pre-bundled dependency directory.
func (c *Config) DepsPath() string {
	return filepath.Join(c.RootPath(), filepath.FromSlash(DepsDir))
}

// EntryPath returns the absolute path of the entry module: build.input when
// set, else the first src/main.* file.
func (c *Config) EntryPath() (string, error) {
	if c.Build.Input != "" {
		path := c.Build.Input
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.RootPath(), path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", errors.New("E111").
				WithDetail("build.input " + c.Build.Input + " does not exist")
		}
		return path, nil
	}

	entries, err := os.ReadDir(c.SrcPath())
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() && strings.HasPrefix(e.Name(), "main.") {
				return filepath.Join(c.SrcPath(), e.Name()), nil
			}
		}
	}
	return "", errors.New("E111").
		WithSuggestion("Create src/main.ts or set build.input in the config file")
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E100").
				WithDetail("No myvite.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create a myvite.json file at the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
