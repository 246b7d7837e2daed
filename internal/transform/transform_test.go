package transform

import (
	"bytes"
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	clientdist "github.com/myvite-dev/myvite/client/dist"
	"github.com/myvite-dev/myvite/internal/errors"
	"github.com/myvite-dev/myvite/internal/hmr"
	"github.com/myvite-dev/myvite/internal/module"
	"github.com/myvite-dev/myvite/internal/rewrite"
	"github.com/myvite-dev/myvite/internal/sfc"
)

const component = `<template>
  <div>{{ msg }}</div>
</template>

<script>
export default {
  data() { return { msg: "hi" } }
}
</script>

<style>
div { color: red; }
</style>
`

type fixture struct {
	root       string
	pipeline   *Pipeline
	registry   *hmr.Registry
	classifier *hmr.Classifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	compiler := sfc.BuiltinCompiler{}
	f := &fixture{
		root:       t.TempDir(),
		registry:   hmr.NewRegistry(),
		classifier: hmr.NewClassifier(compiler, hmr.NewFingerprintTable()),
	}
	f.pipeline = New(Options{
		Rewriter:   rewrite.New(nil, nil),
		Compiler:   compiler,
		Registry:   f.registry,
		Classifier: f.classifier,
	})
	return f
}

func (f *fixture) transform(t *testing.T, rawURL, content string) (*Response, error) {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	return f.pipeline.Transform(context.Background(), Request{
		URL:         u,
		Path:        filepath.Join(f.root, filepath.FromSlash(u.Path)),
		Content:     []byte(content),
		ContentType: "application/octet-stream",
	})
}

func (f *fixture) mustTransform(t *testing.T, rawURL, content string) *Response {
	t.Helper()
	resp, err := f.transform(t, rawURL, content)
	if err != nil {
		t.Fatalf("Transform(%s) error = %v", rawURL, err)
	}
	return resp
}

func TestInjectClient(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "before head close",
			in:   "<html><head><title>x</title></head><body></body></html>",
			want: "<html><head><title>x</title>" + ClientTag + "\n</head><body></body></html>",
		},
		{
			name: "uppercase head",
			in:   "<HTML><HEAD></HEAD></HTML>",
			want: "<HTML><HEAD>" + ClientTag + "\n</HEAD></HTML>",
		},
		{
			name: "no head",
			in:   "<div id=app></div>",
			want: ClientTag + "\n<div id=app></div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InjectClient(tt.in)
			if got != tt.want {
				t.Errorf("InjectClient() = %q, want %q", got, tt.want)
			}
			if again := InjectClient(got); again != got {
				t.Errorf("InjectClient() is not idempotent: %q", again)
			}
		})
	}
}

func TestTransform_Document(t *testing.T) {
	f := newFixture(t)
	resp := f.mustTransform(t, "/index.html", "<html><head></head><body></body></html>")

	if resp.Kind != module.KindDocument {
		t.Errorf("Kind = %v, want document", resp.Kind)
	}
	if !strings.HasPrefix(resp.ContentType, "text/html") {
		t.Errorf("ContentType = %q", resp.ContentType)
	}
	if !bytes.Contains(resp.Body, []byte(ClientTag)) {
		t.Errorf("client tag not injected: %s", resp.Body)
	}
}

func TestTransform_Client(t *testing.T) {
	f := newFixture(t)
	resp := f.mustTransform(t, module.ClientPath, "")

	if !bytes.Equal(resp.Body, clientdist.ClientModule()) {
		t.Error("client module not served verbatim")
	}
	if resp.Kind != module.KindBootstrapClient {
		t.Errorf("Kind = %v", resp.Kind)
	}
}

func TestTransform_Script(t *testing.T) {
	f := newFixture(t)
	src := `import { createApp } from "vue";
import App from "./App.vue";
import logo from "./logo.png";
const n: number = 1;
createApp(App).mount("#app");
console.log(logo, n);
`
	resp := f.mustTransform(t, "/src/main.ts", src)
	body := string(resp.Body)

	for _, want := range []string{
		`"/node_modules/.myvite/deps/vue.js"`,
		`"/src/App.vue"`,
		`"./logo.png?import"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s:\n%s", want, body)
		}
	}
	if strings.Contains(body, ": number") {
		t.Errorf("type annotation not stripped:\n%s", body)
	}
	if !strings.HasPrefix(resp.ContentType, "text/javascript") {
		t.Errorf("ContentType = %q", resp.ContentType)
	}
}

func TestTransform_DepServedVerbatim(t *testing.T) {
	f := newFixture(t)
	src := `import "./chunk-abc.js"; export default 1;`
	resp := f.mustTransform(t, module.DepsPath+"/vue.js", src)

	if string(resp.Body) != src {
		t.Errorf("dep rewritten: %s", resp.Body)
	}
}

func TestTransform_ScriptParseError(t *testing.T) {
	f := newFixture(t)
	_, err := f.transform(t, "/src/broken.js", "import {")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.HasCode(err, "E210") {
		t.Errorf("error = %v, want E210", err)
	}
}

func TestTransform_Stylesheet(t *testing.T) {
	f := newFixture(t)
	resp := f.mustTransform(t, "/src/style.css", "body { margin: 0; }")
	body := string(resp.Body)

	if resp.Kind != module.KindStylesheet {
		t.Errorf("Kind = %v", resp.Kind)
	}
	for _, want := range []string{
		`"/@myvite/client.js"`,
		`"/src/style.css"`,
		`"body { margin: 0; }"`,
		`accept()`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s:\n%s", want, body)
		}
	}

	got, ok := f.registry.Lookup(filepath.Join(f.root, "src", "style.css"))
	if !ok || got != "/src/style.css" {
		t.Errorf("registry = %q, %v", got, ok)
	}
}

func TestTransform_Component(t *testing.T) {
	f := newFixture(t)
	resp := f.mustTransform(t, "/src/App.vue", component)
	body := string(resp.Body)

	if resp.Kind != module.KindCompositeScript {
		t.Errorf("Kind = %v", resp.Kind)
	}
	for _, want := range []string{
		`"/@myvite/client.js"`,
		`"/src/App.vue?type=style"`,
		`"/node_modules/.myvite/deps/vue.js"`,
		`__VUE_HMR_RUNTIME__`,
		`_rerender_only = false`,
		`__hmrId`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s:\n%s", want, body)
		}
	}

	file := filepath.Join(f.root, "src", "App.vue")
	if got, ok := f.registry.Lookup(file); !ok || got != "/src/App.vue" {
		t.Errorf("registry = %q, %v", got, ok)
	}

	// Served fingerprints are the baseline for the next change.
	parts, err := f.classifier.Classify(context.Background(), file, []byte(component))
	if err != nil {
		t.Fatal(err)
	}
	if !parts.Empty() {
		t.Errorf("unchanged component classified as %v", parts)
	}
}

func TestTransform_ComponentDefaultExport(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"js", "<script>\nexport default {\n  data() { return { greeting: \"from-script\" } }\n}\n</script>\n"},
		{"ts", "<script lang=\"ts\">\nconst greeting: string = \"from-script\"\nexport default {\n  data() { return { greeting } }\n}\n</script>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			resp := f.mustTransform(t, "/src/Hello.vue", "<template><p>{{ greeting }}</p></template>\n"+tt.script)
			body := string(resp.Body)

			if !strings.Contains(body, "from-script") {
				t.Errorf("script object missing from module:\n%s", body)
			}
			if strings.Contains(body, "__sfc_main = {}") {
				t.Errorf("component bound to an empty object:\n%s", body)
			}
			if n := strings.Count(body, "export default") + strings.Count(body, "as default"); n != 1 {
				t.Errorf("module has %d default exports:\n%s", n, body)
			}
		})
	}
}

func TestTransform_ComponentRerenderOnly(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(f.root, "src", "App.vue")
	f.mustTransform(t, "/src/App.vue", component)

	edited := strings.Replace(component, "<div>{{ msg }}</div>", "<p>{{ msg }}</p>", 1)
	parts, err := f.classifier.Classify(context.Background(), file, []byte(edited))
	if err != nil {
		t.Fatal(err)
	}
	if !parts.Has(hmr.PartTemplate) || parts.Has(hmr.PartScript) {
		t.Fatalf("parts = %v, want template only", parts)
	}

	resp := f.mustTransform(t, "/src/App.vue?t=1", edited)
	if !strings.Contains(string(resp.Body), "_rerender_only = true") {
		t.Errorf("template-only change not marked rerender only:\n%s", resp.Body)
	}
}

func TestTransform_StableHMRID(t *testing.T) {
	if hmrID("/src/App.vue") != hmrID("/src/App.vue") {
		t.Error("hmrID not stable")
	}
	if hmrID("/src/App.vue") == hmrID("/src/Other.vue") {
		t.Error("hmrID collides")
	}
}

func TestTransform_ComponentStyle(t *testing.T) {
	f := newFixture(t)
	resp := f.mustTransform(t, "/src/App.vue?type=style", component)
	body := string(resp.Body)

	if resp.Kind != module.KindCompositeStyle {
		t.Errorf("Kind = %v", resp.Kind)
	}
	if !strings.Contains(body, `"/src/App.vue?type=style"`) || !strings.Contains(body, "color: red") {
		t.Errorf("unexpected body:\n%s", body)
	}

	got, ok := f.registry.LookupStyle(filepath.Join(f.root, "src", "App.vue"))
	if !ok || got != "/src/App.vue?type=style" {
		t.Errorf("style registry = %q, %v", got, ok)
	}
}

func TestTransform_ComponentCompileError(t *testing.T) {
	f := newFixture(t)
	_, err := f.transform(t, "/src/Setup.vue", "<script setup>\nconst a = 1\n</script>\n")
	if !errors.HasCode(err, "E221") {
		t.Errorf("error = %v, want E221", err)
	}
}

func TestTransform_Image(t *testing.T) {
	f := newFixture(t)

	resp := f.mustTransform(t, "/src/logo.png?import", "\x89PNG")
	if got := string(resp.Body); got != "export default \"/src/logo.png\";\n" {
		t.Errorf("png body = %q", got)
	}

	resp = f.mustTransform(t, "/src/icon.svg?import", "<svg a='1 2'></svg>")
	body := string(resp.Body)
	if !strings.HasPrefix(body, `export default "data:image/svg+xml,`) {
		t.Errorf("svg body = %q", body)
	}
	_, payload, _ := strings.Cut(body, ",")
	if strings.Contains(payload, "+") || !strings.Contains(payload, "%20") {
		t.Errorf("svg spaces not percent-encoded: %q", body)
	}
}

func TestTransform_UnknownPassesThrough(t *testing.T) {
	f := newFixture(t)
	resp := f.mustTransform(t, "/favicon.ico", "icon")

	if resp.Kind != module.KindUnknown || string(resp.Body) != "icon" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.ContentType != "application/octet-stream" {
		t.Errorf("ContentType = %q", resp.ContentType)
	}
}
