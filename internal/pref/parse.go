package pref

import (
	"errors"
	"fmt"
	"strings"
)

var ErrSyntax = errors.New("pref: syntax error")

const (
	whitespace = " \t\n\r\v\f"
	delimiters = "[]()"
)

type parser struct {
	text string
	pos  int

	// first regex compile failure; reported instead of a bare syntax error
	err error
}

// Parse builds a preference tree from text. The whole input must be exactly
// one preference, optionally surrounded by whitespace.
func Parse(text string) (Node, error) {
	p := &parser{text: text}
	p.skipSpace()

	node, ok := p.pref()
	if p.err != nil {
		return nil, p.err
	}
	if !ok {
		if p.eof() {
			return nil, fmt.Errorf("%w: empty preference", ErrSyntax)
		}
		return nil, fmt.Errorf("%w at offset %d: unbalanced or unexpected %q", ErrSyntax, p.pos, p.text[p.pos])
	}
	if !p.eof() {
		return nil, fmt.Errorf("%w at offset %d: trailing input %q", ErrSyntax, p.pos, p.rest())
	}
	return node, nil
}

func (p *parser) eof() bool { return p.pos >= len(p.text) }

func (p *parser) rest() string {
	const maxShown = 16
	r := p.text[p.pos:]
	if len(r) > maxShown {
		r = r[:maxShown] + "..."
	}
	return r
}

func (p *parser) skipSpace() {
	for !p.eof() && strings.IndexByte(whitespace, p.text[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *parser) accept(c byte) bool {
	if !p.eof() && p.text[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) pref() (Node, bool) {
	if p.err != nil {
		return nil, false
	}
	if children, ok := p.group('[', ']'); ok {
		return AllMatching(children), true
	}
	if children, ok := p.group('(', ')'); ok {
		return FirstMatching(children), true
	}
	return p.token()
}

// group parses a bracketed list. On failure the position is restored to
// before the opening delimiter.
func (p *parser) group(open, closing byte) ([]Node, bool) {
	start := p.pos
	if !p.accept(open) {
		return nil, false
	}
	p.skipSpace()

	children := make([]Node, 0)
	for {
		child, ok := p.pref()
		if !ok {
			break
		}
		children = append(children, child)
	}

	if p.err == nil && p.accept(closing) {
		p.skipSpace()
		return children, true
	}

	p.pos = start
	return nil, false
}

func (p *parser) token() (Node, bool) {
	start := p.pos
	for !p.eof() {
		c := p.text[p.pos]
		if strings.IndexByte(whitespace, c) >= 0 || strings.IndexByte(delimiters, c) >= 0 {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return nil, false
	}

	s, err := compileSingle(p.text[start:p.pos])
	if err != nil {
		p.err = fmt.Errorf("%w at offset %d: %w", ErrSyntax, start, err)
		return nil, false
	}
	p.skipSpace()
	return s, true
}
