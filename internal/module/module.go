// Package module classifies served requests and files into a closed set of
// kinds and owns the URL conventions shared by the server and the browser
// runtime: the bootstrap client path, the style variant marker, the
// cache-busting revision marker and the pre-bundle directory.
package module

import (
	"net/url"
	"path"
	"strconv"
	"strings"
)

const (
	// ClientPath serves the browser runtime verbatim.
	ClientPath = "/@myvite/client.js"

	// SocketPath is the realtime update channel endpoint.
	SocketPath = "/@myvite/ws"

	// MetricsPath exposes the dev server's Prometheus metrics.
	MetricsPath = "/@myvite/metrics"

	// DepsPath is the URL of the pre-bundled dependency directory.
	DepsPath = "/node_modules/.myvite/deps"

	// StyleQuery marks the style variant of a component URL.
	StyleQuery = "type=style"

	// ImportQuery marks an asset imported from code.
	ImportQuery = "import"

	// RevisionQuery is the cache-busting marker key.
	RevisionQuery = "t"
)

// Kind is the closed set of things the server knows how to serve.
type Kind int

const (
	KindUnknown Kind = iota
	KindDocument
	KindBootstrapClient
	KindScript
	KindStylesheet
	KindCompositeScript
	KindCompositeStyle
	KindImage
)

var kindNames = [...]string{
	KindUnknown:         "unknown",
	KindDocument:        "document",
	KindBootstrapClient: "client",
	KindScript:          "script",
	KindStylesheet:      "stylesheet",
	KindCompositeScript: "composite-script",
	KindCompositeStyle:  "composite-style",
	KindImage:           "image",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Transformable reports whether serving this kind populates the hot module registry.
func (k Kind) Transformable() bool {
	switch k {
	case KindStylesheet, KindCompositeScript, KindCompositeStyle:
		return true
	}
	return false
}

var scriptExts = map[string]bool{".js": true, ".mjs": true, ".ts": true, ".jsx": true, ".tsx": true}

var imageExts = map[string]bool{
	".svg": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".webp": true, ".ico": true, ".avif": true,
}

// IsScriptExt reports whether ext names a script source.
func IsScriptExt(ext string) bool { return scriptExts[strings.ToLower(ext)] }

// IsImageExt reports whether ext names an image asset.
func IsImageExt(ext string) bool { return imageExts[strings.ToLower(ext)] }

// ClassifyRequest determines the kind of a request. The checks run in a fixed
// priority: documents, the bootstrap client, scripts, stylesheets, components,
// then imported images.
func ClassifyRequest(u *url.URL, contentType string) Kind {
	p := u.Path
	ext := strings.ToLower(path.Ext(p))
	q := u.Query()

	switch {
	case strings.HasPrefix(contentType, "text/html") || ext == ".html":
		return KindDocument
	case p == ClientPath:
		return KindBootstrapClient
	case scriptExts[ext]:
		return KindScript
	case ext == ".css":
		return KindStylesheet
	case ext == ".vue":
		if IsStyleVariant(q) {
			return KindCompositeStyle
		}
		return KindCompositeScript
	case imageExts[ext] && q.Has(ImportQuery):
		return KindImage
	}
	return KindUnknown
}

// ClassifyFile classifies a filesystem path by extension. Component files
// report KindCompositeScript.
func ClassifyFile(file string) Kind {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(file, "\\", "/")))
	switch {
	case ext == ".html":
		return KindDocument
	case scriptExts[ext]:
		return KindScript
	case ext == ".css":
		return KindStylesheet
	case ext == ".vue":
		return KindCompositeScript
	case imageExts[ext]:
		return KindImage
	}
	return KindUnknown
}

// IsStyleVariant reports whether the query addresses a component's style variant.
func IsStyleVariant(q url.Values) bool {
	return q.Get("type") == "style"
}

// StyleVariant returns the style variant URL of a component URL.
func StyleVariant(u string) string {
	return appendQuery(u, StyleQuery)
}

// WithRevision appends the cache-busting marker to u.
func WithRevision(u string, rev int64) string {
	return appendQuery(u, RevisionQuery+"="+strconv.FormatInt(rev, 10))
}

// Canonical strips the cache-busting marker from u so that every revision of
// a module maps to one identity.
func Canonical(u string) string {
	base, query, ok := strings.Cut(u, "?")
	if !ok {
		return u
	}
	var kept []string
	for _, part := range strings.Split(query, "&") {
		if part == "" || part == RevisionQuery || strings.HasPrefix(part, RevisionQuery+"=") {
			continue
		}
		kept = append(kept, part)
	}
	if len(kept) == 0 {
		return base
	}
	return base + "?" + strings.Join(kept, "&")
}

// IsDep reports whether a URL path points into the pre-bundle directory.
func IsDep(p string) bool {
	return strings.HasPrefix(p, DepsPath+"/")
}

func appendQuery(u, kv string) string {
	if strings.Contains(u, "?") {
		return u + "&" + kv
	}
	return u + "?" + kv
}
