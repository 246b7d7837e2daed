package sfc

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/myvite-dev/myvite/internal/errors"
)

//go:embed compile-sfc.mjs
var helperScript []byte

// helperPath is where the helper is written, relative to the project root.
const helperPath = "node_modules/.myvite/compile-sfc.mjs"

// NodeCompiler compiles components with @vue/compiler-sfc from the project's
// node_modules, running node once per compile.
type NodeCompiler struct {
	// Root is the project root; node runs there so the helper resolves the
	// project's own compiler.
	Root string

	// Node is the node executable. Defaults to "node" on PATH.
	Node string

	once    sync.Once
	helper  string
	initErr error
}

type nodeRequest struct {
	Filename string `json:"filename"`
	Source   string `json:"source"`
	ID       string `json:"id"`
}

type nodeResponse struct {
	Script         string   `json:"script"`
	ScriptLang     string   `json:"scriptLang"`
	Template       string   `json:"template"`
	Styles         []Style  `json:"styles"`
	HasScriptSetup bool     `json:"hasScriptSetup"`
	Errors         []string `json:"errors"`
}

// NodeAvailable reports whether node and @vue/compiler-sfc can be found for root.
func NodeAvailable(root string) bool {
	if _, err := exec.LookPath("node"); err != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(root, "node_modules", "@vue", "compiler-sfc", "package.json"))
	return err == nil
}

// Compile implements Compiler.
func (c *NodeCompiler) Compile(ctx context.Context, source []byte, filename string) (*Result, error) {
	c.once.Do(c.install)
	if c.initErr != nil {
		return nil, c.initErr
	}

	req, err := json.Marshal(nodeRequest{Filename: filename, Source: string(source), ID: ScopeID(filename)})
	if err != nil {
		return nil, err
	}

	node := c.Node
	if node == "" {
		node = "node"
	}
	cmd := exec.CommandContext(ctx, node, c.helper)
	cmd.Dir = c.Root
	cmd.Stdin = bytes.NewReader(req)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.New("E220").
			WithDetail(strings.TrimSpace(stderr.String())).
			Wrap(err)
	}

	var resp nodeResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, errors.New("E220").WithDetail("unreadable compiler output").Wrap(err)
	}
	if len(resp.Errors) > 0 {
		return nil, errors.New("E220").
			WithDetail(strings.Join(resp.Errors, "\n")).
			WithSource(filename, 1, 0, string(source))
	}

	script := resp.Script
	if resp.ScriptLang == "ts" || resp.ScriptLang == "tsx" {
		loader := api.LoaderTS
		if resp.ScriptLang == "tsx" {
			loader = api.LoaderTSX
		}
		script, err = TranspileScript(script, loader, filename)
		if err != nil {
			return nil, err
		}
	}

	return &Result{
		Script:         script,
		Template:       resp.Template,
		Styles:         resp.Styles,
		HasScriptSetup: resp.HasScriptSetup,
	}, nil
}

// install writes the embedded helper into the project's node_modules.
func (c *NodeCompiler) install() {
	c.helper = filepath.Join(c.Root, filepath.FromSlash(helperPath))
	if err := os.MkdirAll(filepath.Dir(c.helper), 0755); err != nil {
		c.initErr = errors.New("E230").Wrap(err)
		return
	}
	if err := os.WriteFile(c.helper, helperScript, 0644); err != nil {
		c.initErr = errors.New("E230").Wrap(err)
	}
}
