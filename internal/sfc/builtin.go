package sfc

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/myvite-dev/myvite/internal/errors"
)

// BuiltinCompiler compiles components without Node. Scripts go through
// esbuild, templates are compiled in the browser by Vue's runtime compiler,
// and styles are passed through unscoped.
//
// It cannot compile <script setup> or preprocessed styles; those need
// NodeCompiler.
type BuiltinCompiler struct{}

// Compile implements Compiler.
func (BuiltinCompiler) Compile(_ context.Context, source []byte, filename string) (*Result, error) {
	desc, err := Parse(source)
	if err != nil {
		return nil, errors.New("E220").WithDetail(err.Error()).WithSource(filename, 1, 0, string(source))
	}
	if desc.ScriptSetup != nil {
		return nil, errors.New("E221").
			WithDetail("<script setup> needs @vue/compiler-sfc.").
			WithSource(filename, desc.ScriptSetup.Line, 0, string(source)).
			WithSuggestion(`Install @vue/compiler-sfc and set compiler.mode to "node"`)
	}

	res := &Result{}

	res.Script, err = compileScript(desc.Script, filename, string(source))
	if err != nil {
		return nil, err
	}

	if desc.Template != nil {
		tmpl, _ := json.Marshal(strings.TrimSpace(desc.Template.Content))
		res.Template = "import { compile as __compile } from \"vue\";\n" +
			"const render = __compile(" + string(tmpl) + ");\n"
	} else {
		res.Template = "const render = undefined;\n"
	}

	for _, s := range desc.Styles {
		if lang := s.Lang(); lang != "" && lang != "css" {
			return nil, errors.New("E221").
				WithDetail(fmt.Sprintf("<style lang=%q> needs a preprocessor.", lang)).
				WithSource(filename, s.Line, 0, string(source))
		}
		res.Styles = append(res.Styles, Style{Content: s.Content, Scoped: s.Has("scoped")})
	}
	return res, nil
}

// compileScript turns a <script> block into JavaScript that binds the
// default export to __sfc_main.
func compileScript(b *Block, filename, source string) (string, error) {
	if b == nil || strings.TrimSpace(b.Content) == "" {
		return "const " + MainName + " = {};\n", nil
	}

	loader := api.LoaderJS
	switch b.Lang() {
	case "ts":
		loader = api.LoaderTS
	case "tsx":
		loader = api.LoaderTSX
	case "jsx":
		loader = api.LoaderJSX
	}

	js, err := TranspileScript(b.Content, loader, filename)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Location != nil {
			// Shift the location from block-relative to file-relative.
			e.WithSource(filename, e.Location.Line+b.Line-1, e.Location.Column, source)
		}
		return "", err
	}
	return BindDefault(js), nil
}

// TranspileScript converts TypeScript or JSX to plain ESM JavaScript.
func TranspileScript(code string, loader api.Loader, filename string) (string, error) {
	result := api.Transform(code, api.TransformOptions{
		Loader:     loader,
		Format:     api.FormatESModule,
		Target:     api.ESNext,
		Sourcefile: filename,
		Charset:    api.CharsetUTF8,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		err := errors.New("E220").WithDetail(msg.Text)
		if msg.Location != nil {
			err = err.WithSource(filename, msg.Location.Line, msg.Location.Column+1, code)
		}
		return "", err
	}
	return string(result.Code), nil
}

// exportList matches an export clause such as "export { App_default as default };".
var exportList = regexp.MustCompile(`export\s*\{([^}]*)\};?`)

// BindDefault rewrites the module's default export into a __sfc_main binding.
// esbuild prints "export default <expr>" for some inputs and a separate
// declaration plus "export { x as default }" for others; both are bound.
func BindDefault(js string) string {
	for _, m := range exportList.FindAllStringSubmatchIndex(js, -1) {
		items := strings.Split(js[m[2]:m[3]], ",")
		for i, item := range items {
			fields := strings.Fields(item)
			if len(fields) != 3 || fields[1] != "as" || fields[2] != "default" {
				continue
			}
			rest := append(items[:i:i], items[i+1:]...)
			clause := ""
			if len(rest) > 0 {
				clause = "export {" + strings.Join(rest, ",") + "};"
			}
			return js[:m[0]] + clause + js[m[1]:] + "\nconst " + MainName + " = " + fields[0] + ";\n"
		}
	}

	const marker = "export default"
	if i := strings.Index(js, marker); i >= 0 {
		return js[:i] + "const " + MainName + " =" + js[i+len(marker):]
	}
	return js + "\nconst " + MainName + " = {};\n"
}
