package sfc

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/myvite-dev/myvite/internal/errors"
)

const appVue = `<template>
  <div class="app">
    <template v-if="ok"><span>{{ msg }}</span></template>
  </div>
</template>

<script lang="ts">
export default {
  data(): { msg: string } {
    return { msg: 'hi' }
  },
}
</script>

<style>
.app { color: red; }
</style>
<style scoped>
span { font-weight: bold; }
</style>
`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(appVue))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if d.Template == nil {
		t.Fatal("template block missing")
	}
	if !strings.Contains(d.Template.Content, `<template v-if="ok"><span>{{ msg }}</span></template>`) {
		t.Errorf("nested template not kept intact: %q", d.Template.Content)
	}
	if strings.Contains(d.Template.Content, "<script") {
		t.Errorf("template content overran its block: %q", d.Template.Content)
	}
	if d.Template.Line != 1 {
		t.Errorf("Template.Line = %d, want 1", d.Template.Line)
	}

	if d.Script == nil || d.Script.Lang() != "ts" {
		t.Fatalf("script block = %+v", d.Script)
	}
	if d.Script.Line != 7 {
		t.Errorf("Script.Line = %d, want 7", d.Script.Line)
	}
	if !strings.Contains(d.Script.Content, "data(): { msg: string }") {
		t.Errorf("script content = %q", d.Script.Content)
	}

	if len(d.Styles) != 2 {
		t.Fatalf("len(Styles) = %d, want 2", len(d.Styles))
	}
	if d.Styles[0].Has("scoped") || !d.Styles[1].Has("scoped") {
		t.Error("scoped attribute not detected")
	}
}

func TestParse_ScriptSetup(t *testing.T) {
	d, err := Parse([]byte("<script setup lang=\"ts\">const a = 1</script>\n<script>export default {}</script>"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if d.ScriptSetup == nil || d.ScriptSetup.Content != "const a = 1" {
		t.Errorf("ScriptSetup = %+v", d.ScriptSetup)
	}
	if d.Script == nil || d.Script.Content != "export default {}" {
		t.Errorf("Script = %+v", d.Script)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"unterminated":     "<template><div></div>",
		"duplicate script": "<script>a</script><script>b</script>",
		"duplicate tpl":    "<template>a</template><template>b</template>",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(src)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBuiltinCompiler(t *testing.T) {
	res, err := BuiltinCompiler{}.Compile(context.Background(), []byte(appVue), "/src/App.vue")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	if !strings.Contains(res.Script, "const __sfc_main =") {
		t.Errorf("Script does not bind __sfc_main:\n%s", res.Script)
	}
	if strings.Contains(res.Script, "export default") || strings.Contains(res.Script, "as default") {
		t.Errorf("Script still exports a default:\n%s", res.Script)
	}
	if strings.Contains(res.Script, "const __sfc_main = {};") {
		t.Errorf("Script binds __sfc_main to an empty object:\n%s", res.Script)
	}
	if strings.Contains(res.Script, "msg: string") {
		t.Errorf("Script still contains TypeScript:\n%s", res.Script)
	}
	if !strings.Contains(res.Template, "const render = __compile(") {
		t.Errorf("Template does not declare render:\n%s", res.Template)
	}
	if len(res.Styles) != 2 || !res.Styles[1].Scoped {
		t.Errorf("Styles = %+v", res.Styles)
	}
	if got := res.StyleContent(); !strings.Contains(got, ".app { color: red; }") || !strings.Contains(got, "font-weight") {
		t.Errorf("StyleContent = %q", got)
	}
}

func TestBindDefault(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"export default expression",
			"export default { a: 1 };\n",
			"const __sfc_main = { a: 1 };\n",
		},
		{
			"export clause",
			"var App_default = { a: 1 };\nexport { App_default as default };\n",
			"var App_default = { a: 1 };\n\n\nconst __sfc_main = App_default;\n",
		},
		{
			"export clause with other names",
			"var x = 1;\nvar App_default = {};\nexport {\n  App_default as default,\n  x\n};\n",
			"var x = 1;\nvar App_default = {};\nexport {\n  x\n};\n\nconst __sfc_main = App_default;\n",
		},
		{
			"no default",
			"export const x = 1;\n",
			"export const x = 1;\n\nconst __sfc_main = {};\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BindDefault(tt.in); got != tt.want {
				t.Errorf("BindDefault() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuiltinCompiler_StableOutput(t *testing.T) {
	a, err := BuiltinCompiler{}.Compile(context.Background(), []byte(appVue), "/src/App.vue")
	if err != nil {
		t.Fatal(err)
	}
	// Whitespace between blocks does not reach any compiled part.
	b, err := BuiltinCompiler{}.Compile(context.Background(), []byte(strings.Replace(appVue, "</template>\n\n<script", "</template>\n\n\n\n<script", 1)), "/src/App.vue")
	if err != nil {
		t.Fatal(err)
	}
	if a.Script != b.Script || a.Template != b.Template || a.StyleContent() != b.StyleContent() {
		t.Error("compiled parts changed for a whitespace-only edit between blocks")
	}
}

func TestBuiltinCompiler_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"script setup", "<script setup>const a = 1</script>", "E221"},
		{"scss", "<style lang=\"scss\">a { b: c }</style>", "E221"},
		{"bad script", "<script>export default {</script>", "E220"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuiltinCompiler{}.Compile(context.Background(), []byte(tt.src), "/src/X.vue")
			if !errors.HasCode(err, tt.code) {
				t.Errorf("Compile error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestBuiltinCompiler_NoScript(t *testing.T) {
	res, err := BuiltinCompiler{}.Compile(context.Background(), []byte("<template><p>hi</p></template>"), "/src/P.vue")
	if err != nil {
		t.Fatal(err)
	}
	if res.Script != "const __sfc_main = {};\n" {
		t.Errorf("Script = %q", res.Script)
	}
}

type countingCompiler struct {
	calls int
}

func (c *countingCompiler) Compile(_ context.Context, source []byte, filename string) (*Result, error) {
	c.calls++
	return &Result{Script: string(source)}, nil
}

func TestCachedCompiler(t *testing.T) {
	inner := &countingCompiler{}
	c, err := NewCachedCompiler(inner, 2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	c.Compile(ctx, []byte("a"), "/x.vue")
	c.Compile(ctx, []byte("a"), "/x.vue")
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1 for identical input", inner.calls)
	}

	c.Compile(ctx, []byte("a"), "/y.vue")
	c.Compile(ctx, []byte("b"), "/x.vue")
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (LRU bound)", c.Len())
	}
}

func TestNewCompiler(t *testing.T) {
	root := t.TempDir()

	c, mode, err := NewCompiler("builtin", root, 8)
	if err != nil || c == nil || mode != "builtin" {
		t.Fatalf("NewCompiler(builtin) = %v, %q, %v", c, mode, err)
	}

	// No node_modules: auto falls back to builtin, node is an error.
	if _, mode, _ := NewCompiler("auto", root, 8); mode != "builtin" {
		t.Errorf("auto mode = %q, want builtin", mode)
	}
	if _, _, err := NewCompiler("node", root, 8); !errors.HasCode(err, "E230") {
		t.Errorf("node mode error = %v, want E230", err)
	}
}

func TestNodeCompiler(t *testing.T) {
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not installed")
	}
	root := "testdata/node-project"
	if !NodeAvailable(root) {
		t.Skip("@vue/compiler-sfc not installed in " + root)
	}
	c := &NodeCompiler{Root: root}
	res, err := c.Compile(context.Background(), []byte(appVue), "/src/App.vue")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if !strings.Contains(res.Script, "__sfc_main") || !strings.Contains(res.Template, "function render") {
		t.Errorf("unexpected output: %+v", res)
	}
}

func TestScopeID(t *testing.T) {
	if ScopeID("/src/A.vue") != ScopeID("/src/A.vue") {
		t.Error("ScopeID must be stable")
	}
	if ScopeID("/src/A.vue") == ScopeID("/src/B.vue") {
		t.Error("ScopeID should differ between files")
	}
	if len(ScopeID("/src/A.vue")) != 8 {
		t.Errorf("ScopeID length = %d, want 8", len(ScopeID("/src/A.vue")))
	}
}
