// Package pref implements the MIME preference language: a small bracket
// grammar that decides which representations of a selection are captured.
//
//	pref  := '[' pref* ']'   capture everything every branch matches
//	       | '(' pref* ')'   capture only the first branch that matches
//	       | token           a case-insensitive regex matched against the whole MIME
package pref

import (
	"regexp"
	"strings"
)

// DefaultText is used when no config file exists.
const DefaultText = `[(image/png image/jpeg image/.*) (UTF8_STRING text/plain;charset=utf8 TEXT text/plain)]`

// Node is one element of a parsed preference tree. A tree is immutable once
// parsed and safe to share.
type Node interface {
	// Select returns the subset of available chosen by this node, in
	// capture order.
	Select(available []string) []string
	String() string

	node()
}

// Single matches every available MIME that fully satisfies its pattern.
type Single struct {
	Pattern string
	re      *regexp.Regexp
}

// FirstMatching yields the result of the first child that selects anything.
type FirstMatching []Node

// AllMatching concatenates the results of all children. A MIME claimed by an
// earlier child is not offered to later ones.
type AllMatching []Node

func (Single) node()        {}
func (FirstMatching) node() {}
func (AllMatching) node()   {}

func compileSingle(pattern string) (Single, error) {
	re, err := regexp.Compile(`(?i)^(?:` + pattern + `)$`)
	if err != nil {
		return Single{}, err
	}
	return Single{Pattern: pattern, re: re}, nil
}

// Match reports whether the whole of mime satisfies the pattern, ignoring case.
func (s Single) Match(mime string) bool {
	return s.re != nil && s.re.MatchString(mime)
}

func (s Single) Select(available []string) []string {
	var out []string
	for _, mime := range available {
		if s.Match(mime) {
			out = append(out, mime)
		}
	}
	return out
}

func (s Single) String() string { return s.Pattern }

func (f FirstMatching) Select(available []string) []string {
	for _, child := range f {
		if got := child.Select(available); len(got) > 0 {
			return got
		}
	}
	return nil
}

func (f FirstMatching) String() string { return group("(", ")", f) }

func (a AllMatching) Select(available []string) []string {
	pool := append([]string(nil), available...)

	var out []string
	for _, child := range a {
		got := child.Select(pool)
		out = append(out, got...)
		pool = without(pool, got)
	}
	return out
}

func (a AllMatching) String() string { return group("[", "]", a) }

// without removes one occurrence of every element of taken from pool.
func without(pool, taken []string) []string {
	for _, t := range taken {
		for i, p := range pool {
			if p == t {
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
	}
	return pool
}

func group(open, closing string, children []Node) string {
	parts := make([]string, len(children))
	for i, child := range children {
		parts[i] = child.String()
	}
	return open + strings.Join(parts, " ") + closing
}

// Default returns the built-in tree.
func Default() Node {
	tree, err := Parse(DefaultText)
	if err != nil {
		panic("pref: default tree does not parse: " + err.Error())
	}
	return tree
}
