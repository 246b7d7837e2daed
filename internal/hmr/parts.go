package hmr

import "strings"

// Part is one separately fingerprinted output of a compiled file.
type Part uint8

const (
	PartScript Part = 1 << iota
	PartTemplate
	PartStyle
)

var partNames = []struct {
	part Part
	name string
}{
	{PartScript, "script"},
	{PartTemplate, "template"},
	{PartStyle, "style"},
}

func (p Part) String() string {
	for _, n := range partNames {
		if n.part == p {
			return n.name
		}
	}
	return "unknown"
}

// Parts is a set of parts.
type Parts uint8

// Has reports whether p is in the set.
func (s Parts) Has(p Part) bool { return s&Parts(p) != 0 }

// Empty reports whether no part is in the set.
func (s Parts) Empty() bool { return s == 0 }

// With returns the set plus p.
func (s Parts) With(p Part) Parts { return s | Parts(p) }

func (s Parts) String() string {
	if s.Empty() {
		return "none"
	}
	var names []string
	for _, n := range partNames {
		if s.Has(n.part) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "+")
}
