package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/myvite-dev/myvite/internal/module"
	"github.com/myvite-dev/myvite/internal/sfc"
)

const styleNamespace = "myvite-style"

// componentPlugin loads .vue files through compiler. A component with
// styles imports its own style variant, which the plugin loads as CSS so
// esbuild extracts it into the entry's stylesheet.
func componentPlugin(ctx context.Context, compiler sfc.Compiler) api.Plugin {
	styleFilter := `\?` + module.StyleQuery + `$`

	return api.Plugin{
		Name: "myvite-sfc",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: styleFilter}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				p := strings.TrimSuffix(args.Path, "?"+module.StyleQuery)
				if !filepath.IsAbs(p) {
					p = filepath.Join(args.ResolveDir, p)
				}
				return api.OnResolveResult{Path: p, Namespace: styleNamespace}, nil
			})

			build.OnLoad(api.OnLoadOptions{Filter: `\.vue$`, Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				res, err := compileFile(ctx, compiler, args.Path)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				code := componentModule(args.Path, res)
				return api.OnLoadResult{
					Contents:   &code,
					Loader:     api.LoaderJS,
					ResolveDir: filepath.Dir(args.Path),
				}, nil
			})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: styleNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				res, err := compileFile(ctx, compiler, args.Path)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				css := res.StyleContent()
				return api.OnLoadResult{
					Contents:   &css,
					Loader:     api.LoaderCSS,
					ResolveDir: filepath.Dir(args.Path),
				}, nil
			})
		},
	}
}

func compileFile(ctx context.Context, compiler sfc.Compiler, path string) (*sfc.Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(ctx, source, path)
}

// componentModule is the production form of a component: no hot context,
// styles left to the bundler.
func componentModule(path string, res *sfc.Result) string {
	var b strings.Builder
	if len(res.Styles) > 0 {
		spec, _ := json.Marshal(path + "?" + module.StyleQuery)
		b.WriteString("import " + string(spec) + ";\n")
	}
	b.WriteString(res.Script)
	b.WriteString("\n")
	b.WriteString(res.Template)
	b.WriteString("\n")
	b.WriteString("if (render) " + sfc.MainName + ".render = render;\n")
	b.WriteString("export default " + sfc.MainName + ";\n")
	return b.String()
}
