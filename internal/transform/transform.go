// Package transform turns files read from the project into what the browser
// is served: documents get the HMR client injected, scripts are transpiled,
// stylesheets and components become self-applying modules, and every module
// has its import specifiers rewritten.
package transform

import (
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	clientdist "github.com/myvite-dev/myvite/client/dist"
	"github.com/myvite-dev/myvite/internal/hmr"
	"github.com/myvite-dev/myvite/internal/module"
	"github.com/myvite-dev/myvite/internal/rewrite"
	"github.com/myvite-dev/myvite/internal/sfc"
)

const (
	contentTypeJS   = "text/javascript; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

// Options configures a Pipeline.
type Options struct {
	Rewriter   *rewrite.Rewriter
	Compiler   sfc.Compiler
	Registry   *hmr.Registry
	Classifier *hmr.Classifier
	Logger     *slog.Logger
}

// Request is one file about to be served.
type Request struct {
	// URL is the request URL.
	URL *url.URL

	// Path is the absolute filesystem path the URL maps to.
	Path string

	// Content is the file's bytes.
	Content []byte

	// ContentType is the type the file would be served with untransformed.
	ContentType string
}

// Response is the transformed content.
type Response struct {
	Body        []byte
	ContentType string
	Kind        module.Kind
}

// Pipeline dispatches requests to the adapter for their kind.
type Pipeline struct {
	opts   Options
	tracer trace.Tracer
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{opts: opts, tracer: otel.Tracer("github.com/myvite-dev/myvite/internal/transform")}
}

// Transform produces the served form of req. Serving a stylesheet or a
// component registers it for hot updates.
func (p *Pipeline) Transform(ctx context.Context, req Request) (*Response, error) {
	kind := module.ClassifyRequest(req.URL, req.ContentType)

	ctx, span := p.tracer.Start(ctx, "transform "+kind.String(),
		trace.WithAttributes(attribute.String("url", module.Canonical(req.URL.RequestURI()))))
	defer span.End()

	var (
		body string
		err  error
	)
	contentType := contentTypeJS

	switch kind {
	case module.KindDocument:
		body, contentType = InjectClient(string(req.Content)), contentTypeHTML
	case module.KindBootstrapClient:
		return &Response{Body: clientdist.ClientModule(), ContentType: contentTypeJS, Kind: kind}, nil
	case module.KindScript:
		body, err = p.script(req)
	case module.KindStylesheet:
		body, err = p.stylesheet(req)
	case module.KindCompositeScript:
		body, err = p.componentScript(ctx, req)
	case module.KindCompositeStyle:
		body, err = p.componentStyle(ctx, req)
	case module.KindImage:
		body = imageModule(req)
	case module.KindUnknown:
		return &Response{Body: req.Content, ContentType: req.ContentType, Kind: kind}, nil
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &Response{Body: []byte(body), ContentType: contentType, Kind: kind}, nil
}

func (p *Pipeline) script(req Request) (string, error) {
	// Pre-bundled dependencies are final ESM already.
	if module.IsDep(req.URL.Path) {
		return string(req.Content), nil
	}

	code := string(req.Content)
	if loader, ok := loaderFor(req.URL.Path); ok {
		js, err := sfc.TranspileScript(code, loader, req.URL.Path)
		if err != nil {
			return "", err
		}
		code = js
	}
	return p.opts.Rewriter.Rewrite(code, req.URL.Path)
}

func (p *Pipeline) stylesheet(req Request) (string, error) {
	id := req.URL.Path
	p.opts.Registry.Register(req.Path, id)
	return p.opts.Rewriter.Rewrite(stylePreamble(id, string(req.Content)), id)
}

func (p *Pipeline) componentScript(ctx context.Context, req Request) (string, error) {
	id := req.URL.Path
	res, err := p.opts.Compiler.Compile(ctx, req.Content, req.Path)
	if err != nil {
		return "", err
	}
	p.opts.Classifier.Observe(req.Path, res)
	p.opts.Registry.Register(req.Path, id)

	parts, known := p.opts.Classifier.LastChange(req.Path)
	rerenderOnly := known && !parts.Has(hmr.PartScript)

	return p.opts.Rewriter.Rewrite(assembleComponent(id, res, rerenderOnly), id)
}

func (p *Pipeline) componentStyle(ctx context.Context, req Request) (string, error) {
	id := module.StyleVariant(req.URL.Path)
	res, err := p.opts.Compiler.Compile(ctx, req.Content, req.Path)
	if err != nil {
		return "", err
	}
	p.opts.Classifier.Observe(req.Path, res)
	p.opts.Registry.RegisterStyle(req.Path, id)
	return p.opts.Rewriter.Rewrite(stylePreamble(id, res.StyleContent()), id)
}

func loaderFor(urlPath string) (api.Loader, bool) {
	switch strings.ToLower(filepath.Ext(urlPath)) {
	case ".ts":
		return api.LoaderTS, true
	case ".tsx":
		return api.LoaderTSX, true
	case ".jsx":
		return api.LoaderJSX, true
	}
	return api.LoaderNone, false
}
