package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/myvite-dev/myvite/internal/module"
	"github.com/myvite-dev/myvite/internal/sfc"
)

// ClientTag is the script tag injected into every served document.
var ClientTag = `<script type="module" src="` + module.ClientPath + `"></script>`

var headClose = regexp.MustCompile(`(?i)</head\s*>`)

// InjectClient adds the HMR client tag before </head>, or at the start of a
// document without one. Documents that already carry the tag are unchanged.
func InjectClient(html string) string {
	if strings.Contains(html, ClientTag) {
		return html
	}
	if loc := headClose.FindStringIndex(html); loc != nil {
		return html[:loc[0]] + ClientTag + "\n" + html[loc[0]:]
	}
	return ClientTag + "\n" + html
}

// stylePreamble is the module served for a stylesheet: it applies css under
// id and accepts its own updates.
func stylePreamble(id, css string) string {
	return strings.Join([]string{
		`import { createHotContext as __createHotContext, updateStyle as __updateStyle } from "` + module.ClientPath + `";`,
		`const __hot = __createHotContext(` + jsString(id) + `);`,
		`__updateStyle(` + jsString(id) + `, ` + jsString(css) + `);`,
		`__hot.accept();`,
		``,
	}, "\n")
}

// assembleComponent builds the served module for a component's script view.
func assembleComponent(id string, res *sfc.Result, rerenderOnly bool) string {
	var b strings.Builder
	b.WriteString(`import { createHotContext as __createHotContext } from "` + module.ClientPath + "\";\n")
	b.WriteString(`const __hot = __createHotContext(` + jsString(id) + ");\n")
	if len(res.Styles) > 0 {
		b.WriteString(`import ` + jsString(module.StyleVariant(id)) + ";\n")
	}
	b.WriteString(res.Script)
	b.WriteString("\n")
	b.WriteString(res.Template)
	b.WriteString("\n")
	b.WriteString("if (render) " + sfc.MainName + ".render = render;\n")
	if rerenderOnly {
		b.WriteString("export const _rerender_only = true;\n")
	} else {
		b.WriteString("export const _rerender_only = false;\n")
	}
	b.WriteString(sfc.MainName + ".__hmrId = " + jsString(hmrID(id)) + ";\n")
	b.WriteString(`typeof __VUE_HMR_RUNTIME__ !== "undefined" && __VUE_HMR_RUNTIME__.createRecord(` + sfc.MainName + ".__hmrId, " + sfc.MainName + ");\n")
	b.WriteString(`__hot.accept((mod) => {
  if (!mod || typeof __VUE_HMR_RUNTIME__ === "undefined") return;
  const { default: updated, _rerender_only } = mod;
  if (_rerender_only) {
    __VUE_HMR_RUNTIME__.rerender(updated.__hmrId, updated.render);
  } else {
    __VUE_HMR_RUNTIME__.reload(updated.__hmrId, updated);
  }
});
`)
	b.WriteString("export default " + sfc.MainName + ";\n")
	return b.String()
}

// imageModule exports an imported image: SVGs inline as a data URL, other
// images as their URL.
func imageModule(req Request) string {
	if strings.EqualFold(path.Ext(req.URL.Path), ".svg") {
		data := "data:image/svg+xml," + strings.ReplaceAll(url.QueryEscape(string(req.Content)), "+", "%20")
		return "export default " + jsString(data) + ";\n"
	}
	return "export default " + jsString(req.URL.Path) + ";\n"
}

// hmrID identifies a component across edits; it depends only on its URL.
func hmrID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:4])
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
