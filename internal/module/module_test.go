package module

import (
	"net/url"
	"testing"
)

func TestClassifyRequest(t *testing.T) {
	tests := []struct {
		raw         string
		contentType string
		want        Kind
	}{
		{"/", "text/html; charset=utf-8", KindDocument},
		{"/index.html", "", KindDocument},
		{ClientPath, "text/javascript", KindBootstrapClient},
		{"/src/main.ts", "", KindScript},
		{"/src/util.mjs", "", KindScript},
		{"/src/App.tsx", "", KindScript},
		{"/src/style.css", "text/css", KindStylesheet},
		{"/src/App.vue", "", KindCompositeScript},
		{"/src/App.vue?t=123", "", KindCompositeScript},
		{"/src/App.vue?type=style", "", KindCompositeStyle},
		{"/src/App.vue?type=style&t=5", "", KindCompositeStyle},
		{"/src/logo.svg?import", "", KindImage},
		{"/src/logo.png?import&t=9", "", KindImage},
		{"/src/logo.svg", "image/svg+xml", KindUnknown},
		{"/favicon.ico", "", KindUnknown},
		{"/data.json", "", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			if got := ClassifyRequest(u, tt.contentType); got != tt.want {
				t.Errorf("ClassifyRequest(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClassifyRequest_HTMLWins(t *testing.T) {
	// A document check runs before every extension check.
	u, _ := url.Parse("/src/main.ts")
	if got := ClassifyRequest(u, "text/html"); got != KindDocument {
		t.Errorf("got %v, want document", got)
	}
}

func TestClassifyFile(t *testing.T) {
	tests := map[string]Kind{
		"/p/src/a.css":     KindStylesheet,
		"/p/src/App.vue":   KindCompositeScript,
		"/p/src/main.ts":   KindScript,
		"/p/index.html":    KindDocument,
		"/p/src/logo.PNG":  KindImage,
		"/p/package.json":  KindUnknown,
		`C:\p\src\App.vue`: KindCompositeScript,
	}
	for file, want := range tests {
		if got := ClassifyFile(file); got != want {
			t.Errorf("ClassifyFile(%q) = %v, want %v", file, got, want)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindCompositeStyle.String() != "composite-style" {
		t.Errorf("String() = %q", KindCompositeStyle.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("out of range kind should print unknown")
	}
}

func TestURLHelpers(t *testing.T) {
	if got := StyleVariant("/src/App.vue"); got != "/src/App.vue?type=style" {
		t.Errorf("StyleVariant = %q", got)
	}
	if got := WithRevision("/src/a.css", 42); got != "/src/a.css?t=42" {
		t.Errorf("WithRevision = %q", got)
	}
	if got := WithRevision("/src/App.vue?type=style", 42); got != "/src/App.vue?type=style&t=42" {
		t.Errorf("WithRevision with query = %q", got)
	}

	canon := map[string]string{
		"/src/a.css":                   "/src/a.css",
		"/src/a.css?t=1":               "/src/a.css",
		"/src/App.vue?type=style&t=42": "/src/App.vue?type=style",
		"/src/App.vue?t=42&type=style": "/src/App.vue?type=style",
		"/src/logo.svg?import":         "/src/logo.svg?import",
		"/src/x.js?tab=1":              "/src/x.js?tab=1",
	}
	for in, want := range canon {
		if got := Canonical(in); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsDep(t *testing.T) {
	if !IsDep(DepsPath + "/vue.js") {
		t.Error("deps file should be recognised")
	}
	if IsDep("/node_modules/.myvite/depsx/vue.js") {
		t.Error("sibling directory must not match")
	}
}
