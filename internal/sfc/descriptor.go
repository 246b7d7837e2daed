package sfc

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Block is one top-level section of a component file.
type Block struct {
	// Content is the raw text between the opening and closing tags.
	Content string

	// Attrs holds the opening tag's attributes. Boolean attributes map to "".
	Attrs map[string]string

	// Line is the 1-based line of the first content byte.
	Line int
}

// Lang returns the block's lang attribute, or "" when absent.
func (b *Block) Lang() string {
	if b == nil {
		return ""
	}
	return b.Attrs["lang"]
}

// Has reports whether the opening tag carries the attribute.
func (b *Block) Has(attr string) bool {
	if b == nil {
		return false
	}
	_, ok := b.Attrs[attr]
	return ok
}

// Descriptor is a component file split into its blocks.
type Descriptor struct {
	Script      *Block
	ScriptSetup *Block
	Template    *Block
	Styles      []*Block
}

// Parse splits a component file into its top-level script, script setup,
// template and style blocks. Content outside those blocks is ignored.
func Parse(source []byte) (*Descriptor, error) {
	d := &Descriptor{}
	z := html.NewTokenizer(bytes.NewReader(source))

	var (
		pos   int    // offset of the current token's first byte
		open  string // top-level block being read, "" at depth 0
		depth int    // nested <template> depth inside a template block
		start int    // content offset of the open block
		attrs map[string]string
	)

	for {
		tt := z.Next()
		raw := z.Raw()
		tokenStart := pos
		pos += len(raw)

		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				if open != "" {
					return nil, fmt.Errorf("unterminated <%s> block", open)
				}
				return d, nil
			}
			return nil, z.Err()

		case html.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if open == "" {
				if tag != "script" && tag != "template" && tag != "style" {
					continue
				}
				open, start, depth = tag, pos, 0
				attrs = readAttrs(z, hasAttr)
			} else if open == "template" && tag == "template" {
				depth++
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag != open {
				continue
			}
			if open == "template" && depth > 0 {
				depth--
				continue
			}
			block := &Block{
				Content: string(source[start:tokenStart]),
				Attrs:   attrs,
				Line:    1 + bytes.Count(source[:start], []byte("\n")),
			}
			if err := d.add(open, block); err != nil {
				return nil, err
			}
			open = ""
		}
	}
}

func (d *Descriptor) add(tag string, b *Block) error {
	switch tag {
	case "script":
		if b.Has("setup") {
			if d.ScriptSetup != nil {
				return fmt.Errorf("a component can contain only one <script setup> block")
			}
			d.ScriptSetup = b
			return nil
		}
		if d.Script != nil {
			return fmt.Errorf("a component can contain only one <script> block")
		}
		d.Script = b
	case "template":
		if d.Template != nil {
			return fmt.Errorf("a component can contain only one <template> block")
		}
		d.Template = b
	case "style":
		d.Styles = append(d.Styles, b)
	}
	return nil
}

func readAttrs(z *html.Tokenizer, more bool) map[string]string {
	attrs := make(map[string]string)
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		attrs[strings.ToLower(string(key))] = string(val)
	}
	return attrs
}
