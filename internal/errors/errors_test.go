package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "E100",
			wantMsg: "Config file not found",
			wantCat: CategoryConfig,
		},
		{
			name:    "transform error",
			code:    "E210",
			wantMsg: "Could not parse module specifiers",
			wantCat: CategoryTransform,
		},
		{
			name:    "compile error",
			code:    "E220",
			wantMsg: "Component compilation failed",
			wantCat: CategoryCompile,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	err := New("E210")
	if got, want := err.Error(), "E210: Could not parse module specifiers"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := New("E220").Wrap(fmt.Errorf("unexpected token"))
	if got, want := wrapped.Error(), "E220: Component compilation failed: unexpected token"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &Error{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestError_WithLocation(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "main.ts")
	content := "import a from 'a'\nimport b from 'b'\nimport { from 'c'\nconsole.log(a, b)\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E210").WithLocation(file, 3, 10)
	if err.Location == nil || err.Location.Line != 3 || err.Location.Column != 10 {
		t.Fatalf("Location = %+v", err.Location)
	}
	if len(err.Context) == 0 {
		t.Fatal("Context should contain surrounding lines")
	}
	found := false
	for _, line := range err.Context {
		if line == "import { from 'c'" {
			found = true
		}
	}
	if !found {
		t.Errorf("Context %q should include the failing line", err.Context)
	}
}

func TestError_WithSource(t *testing.T) {
	src := "a\nb\nc\nd\ne\nf"
	err := New("E210").WithSource("virtual.js", 4, 1, src)
	want := []string{"b", "c", "d", "e", "f"}
	if strings.Join(err.Context, ",") != strings.Join(want, ",") {
		t.Errorf("Context = %q, want %q", err.Context, want)
	}
}

func TestError_WithSuggestion(t *testing.T) {
	err := New("E230").WithSuggestion("npm install -D @vue/compiler-sfc")
	if err.Suggestion != "npm install -D @vue/compiler-sfc" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
}

func TestError_WithDetail(t *testing.T) {
	err := New("E111").WithDetail("custom detail")
	if err.Detail != "custom detail" {
		t.Errorf("Detail = %q, want %q", err.Detail, "custom detail")
	}
}

func TestError_Wrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	outer := New("E300").Wrap(inner)

	if outer.Wrapped != inner {
		t.Error("Wrapped error mismatch")
	}
	if !stderrors.Is(outer, inner) {
		t.Error("errors.Is should see the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E200") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	e := New("E200")
	if FromError(e, "E201") != e {
		t.Error("FromError should return *Error as-is")
	}

	std := stderrors.New("boom")
	result := FromError(std, "E400")
	if result.Wrapped != std || result.Code != "E400" {
		t.Errorf("FromError = %+v", result)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("serving /src/App.vue: %w", New("E220"))
	if !HasCode(err, "E220") {
		t.Error("HasCode should find a wrapped code")
	}
	if HasCode(err, "E210") {
		t.Error("HasCode should not match a different code")
	}
	if HasCode(nil, "E220") {
		t.Error("HasCode(nil) should be false")
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{"nil location", nil, ""},
		{"with column", &Location{File: "a.ts", Line: 10, Column: 5}, "a.ts:10:5"},
		{"without column", &Location{File: "a.ts", Line: 10}, "a.ts:10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	err := New("E210").
		WithSource("src/main.ts", 2, 8, "import a from 'a'\nimport { from 'b'\n").
		WithSuggestion("Check the import statement syntax")

	formatted := err.Format()
	for _, want := range []string{"E210", "Could not parse module specifiers", "src/main.ts:2:8", "Hint:", "Learn more:"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q:\n%s", want, formatted)
		}
	}
}

func TestPlain(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			"location",
			New("E200").WithSource("a.css", 1, 1, ""),
			"a.css:1:1: E200: File not found\n" + registry["E200"].Detail,
		},
		{
			"detail override",
			New("E210").WithDetail(`Expected "}"`),
			"E210: " + registry["E210"].Message + "\nExpected \"}\"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Plain(); got != tt.want {
				t.Errorf("Plain() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFprintError(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	var b bytes.Buffer
	fprintError(&b, fmt.Errorf("serve: %w", New("E112")))
	if !strings.Contains(b.String(), "ERROR E112: index.html not found") {
		t.Errorf("wrapped *Error not formatted:\n%s", b.String())
	}

	b.Reset()
	fprintError(&b, fmt.Errorf("plain failure"))
	if got := b.String(); got != "\nERROR: plain failure\n\n" {
		t.Errorf("plain error = %q", got)
	}
}

func TestRegistry_DocURLs(t *testing.T) {
	seen := map[string]string{}
	for code, tmpl := range registry {
		if !strings.HasSuffix(tmpl.DocURL, code) {
			t.Errorf("%s DocURL = %q", code, tmpl.DocURL)
		}
		if other, dup := seen[tmpl.DocURL]; dup {
			t.Errorf("%s and %s share a DocURL", code, other)
		}
		seen[tmpl.DocURL] = code
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	if got := wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestSetColor(t *testing.T) {
	SetColor(true)
	if !strings.Contains(paint("test", ansiRed), "\033[31m") {
		t.Error("paint should emit ANSI codes when colors are on")
	}

	SetColor(false)
	if strings.Contains(paint("test", ansiRed), "\033[") {
		t.Error("paint should not emit ANSI codes when colors are off")
	}
	SetColor(true)
}
