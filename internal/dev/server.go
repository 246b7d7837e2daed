package dev

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/myvite-dev/myvite/internal/config"
	"github.com/myvite-dev/myvite/internal/errors"
	"github.com/myvite-dev/myvite/internal/hmr"
	"github.com/myvite-dev/myvite/internal/module"
	"github.com/myvite-dev/myvite/internal/optimize"
	"github.com/myvite-dev/myvite/internal/rewrite"
	"github.com/myvite-dev/myvite/internal/sfc"
	"github.com/myvite-dev/myvite/internal/transform"
)

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Logger receives server logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Registry collects the server's metrics. Defaults to a new registry.
	Registry *prometheus.Registry

	// Compiler overrides the component compiler selected by the config.
	Compiler sfc.Compiler

	// SkipOptimize skips dependency pre-bundling at startup.
	SkipOptimize bool

	// OnReady is called with the listening address once the server accepts
	// connections.
	OnReady func(addr string)
}

// Server is the development server.
type Server struct {
	config     *config.Config
	options    ServerOptions
	logger     *slog.Logger
	root       string
	pipeline   *transform.Pipeline
	registry   *hmr.Registry
	channel    *hmr.Channel
	dispatcher *hmr.Dispatcher
	watcher    *Watcher
	optimizer  *optimize.Optimizer
	metrics    *Metrics
	proxies    []proxyRule
	handler    http.Handler

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	httpServer *http.Server
}

type proxyRule struct {
	prefix string
	proxy  *httputil.ReverseProxy
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) (*Server, error) {
	cfg := options.Config
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if options.Registry == nil {
		options.Registry = prometheus.NewRegistry()
	}
	root := cfg.RootPath()

	compiler := options.Compiler
	compilerName := "custom"
	if compiler == nil {
		var err error
		compiler, compilerName, err = sfc.NewCompiler(cfg.Compiler.Mode, root, cfg.Compiler.CacheSize)
		if err != nil {
			return nil, err
		}
	}

	env, err := cfg.LoadEnv()
	if err != nil {
		return nil, err
	}
	defines := cfg.Defines(env)

	registry := hmr.NewRegistry()
	classifier := hmr.NewClassifier(compiler, hmr.NewFingerprintTable())
	channel := hmr.NewChannel(logger)
	metrics := NewMetrics(options.Registry, channel.ClientCount)

	s := &Server{
		config:   cfg,
		options:  options,
		logger:   logger,
		root:     root,
		registry: registry,
		channel:  channel,
		metrics:  metrics,
		pipeline: transform.New(transform.Options{
			Rewriter:   rewrite.New(cfg.Resolve.Alias, defines),
			Compiler:   compiler,
			Registry:   registry,
			Classifier: classifier,
			Logger:     logger,
		}),
		dispatcher: hmr.NewDispatcher(hmr.DispatcherOptions{
			Registry:   registry,
			Classifier: classifier,
			Channel:    countingBroadcaster{next: channel, metrics: metrics},
			Logger:     logger,
			Disabled:   !cfg.Server.HMR,
		}),
		watcher: NewWatcher(WatcherConfig{
			Root:    root,
			Ignore:  CollectIgnore(cfg),
			Settle:  cfg.Settle(),
			OnEvent: metrics.observeEvent,
			Logger:  logger,
		}),
		optimizer: &optimize.Optimizer{
			Root:    root,
			SrcDir:  cfg.SrcPath(),
			OutDir:  cfg.DepsPath(),
			Include: cfg.OptimizeDeps.Include,
			Exclude: cfg.OptimizeDeps.Exclude,
			Force:   cfg.OptimizeDeps.Force,
			FullVue: compilerName == config.CompilerBuiltin,
			Logger:  logger,
		},
	}

	s.proxies, err = buildProxies(cfg.Server.Proxy)
	if err != nil {
		return nil, err
	}
	s.handler = s.routes()

	logger.Debug("component compiler selected", "compiler", compilerName)
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Channel returns the update channel.
func (s *Server) Channel() *hmr.Channel {
	return s.channel
}

// Start validates the project, pre-bundles dependencies and serves until
// ctx is done or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if _, err := os.Stat(s.config.IndexPath()); err != nil {
		return errors.New("E112").WithLocation(s.config.IndexPath(), 0, 0)
	}
	if _, err := s.config.EntryPath(); err != nil {
		return err
	}

	if !s.options.SkipOptimize {
		start := time.Now()
		res, err := s.optimizer.Run(ctx)
		if err != nil {
			s.logger.Error("pre-bundling failed", "error", err)
		} else if !res.Skipped {
			s.logger.Info("pre-bundled dependencies", "count", len(res.Deps), "duration", time.Since(start).Round(time.Millisecond))
		}
	}

	ln, err := net.Listen("tcp", s.config.DevAddress())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.watcher.Run(gctx)
	})
	g.Go(func() error {
		return s.dispatcher.Run(gctx, s.watcher.Events())
	})
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.channel.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	s.logger.Info("server running", "url", "http://"+ln.Addr().String(), "hmr", s.config.Server.HMR)
	if s.options.OnReady != nil {
		s.options.OnReady(ln.Addr().String())
	}

	return g.Wait()
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.proxyMiddleware)

	r.Get(module.SocketPath, s.channel.ServeHTTP)
	r.Handle(module.MetricsPath, promhttp.HandlerFor(s.options.Registry, promhttp.HandlerOpts{}))
	r.Get("/*", s.serveModule)
	return r
}

// serveModule reads the file a request names, transforms it and writes the
// result.
func (s *Server) serveModule(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	rel, ok := requestRelPath(r.URL.Path)
	if !ok {
		s.fail(w, r, http.StatusForbidden, errors.New("E201").WithDetail(r.URL.Path))
		return
	}
	file := filepath.Join(s.root, filepath.FromSlash(rel))

	var content []byte
	if r.URL.Path != module.ClientPath {
		var err error
		content, file, err = s.readFile(rel)
		if err != nil {
			s.fail(w, r, http.StatusNotFound, errors.New("E200").WithDetail(r.URL.Path))
			return
		}
	}

	resp, err := s.pipeline.Transform(r.Context(), transform.Request{
		URL:         r.URL,
		Path:        file,
		Content:     content,
		ContentType: contentTypeFor(file, content),
	})
	if err != nil {
		e := errors.FromError(err, "E211")
		kind := module.ClassifyRequest(r.URL, "")
		s.metrics.observeRequest(kind.String(), http.StatusInternalServerError, time.Since(start))
		s.logger.Error("transform failed", "url", r.URL.String(), "code", e.Code, "error", e.Plain())
		http.Error(w, e.Plain(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(resp.Body)
	}
	s.metrics.observeRequest(resp.Kind.String(), http.StatusOK, time.Since(start))
}

// readFile reads rel from the project root, falling back to public/.
func (s *Server) readFile(rel string) ([]byte, string, error) {
	var lastErr error
	for _, dir := range []string{s.root, s.config.PublicPath()} {
		file := filepath.Join(dir, filepath.FromSlash(rel))
		info, err := os.Stat(file)
		if err != nil {
			lastErr = err
			continue
		}
		if info.IsDir() {
			lastErr = os.ErrNotExist
			continue
		}
		content, err := os.ReadFile(file)
		return content, file, err
	}
	return nil, "", lastErr
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err *errors.Error) {
	s.metrics.observeRequest(module.KindUnknown.String(), status, 0)
	s.logger.Debug("request failed", "url", r.URL.String(), "status", status, "code", err.Code)
	http.Error(w, err.Plain(), status)
}

// proxyMiddleware forwards requests under a configured prefix to its
// upstream. Longer prefixes win.
func (s *Server) proxyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, p := range s.proxies {
			if r.URL.Path == p.prefix || strings.HasPrefix(r.URL.Path, strings.TrimSuffix(p.prefix, "/")+"/") {
				p.proxy.ServeHTTP(w, r)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func buildProxies(rules map[string]string) ([]proxyRule, error) {
	proxies := make([]proxyRule, 0, len(rules))
	for prefix, target := range rules {
		targetURL, err := url.Parse(target)
		if err != nil || targetURL.Scheme == "" || targetURL.Host == "" {
			return nil, errors.New("E102").
				WithDetail("server.proxy[" + prefix + "] is not an absolute URL: " + target)
		}
		proxy := httputil.NewSingleHostReverseProxy(targetURL)
		rewriteHost := proxy.Director
		proxy.Director = func(r *http.Request) {
			rewriteHost(r)
			r.Host = targetURL.Host
		}
		proxies = append(proxies, proxyRule{prefix: prefix, proxy: proxy})
	}
	sort.Slice(proxies, func(i, j int) bool {
		return len(proxies[i].prefix) > len(proxies[j].prefix)
	})
	return proxies, nil
}
