package pref

import (
	"bufio"
	"fmt"
	"strings"
)

// UnknownRule is the precedence file line that places unmatched MIMEs.
const UnknownRule = "UNKNOWN"

// Precedence is the flat ranking used by single-capture mode: a MIME ranks at
// the index of the first rule it matches. MIMEs matching no rule take the
// index of the UNKNOWN line, or are never chosen if there is none.
type Precedence struct {
	rules   []Single
	unknown int
}

// ParsePrecedence reads one pattern per line; blank lines are skipped.
func ParsePrecedence(text string) (Precedence, error) {
	p := Precedence{unknown: -1}

	sc := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for sc.Scan() {
		line++
		rule := strings.TrimSpace(sc.Text())
		if rule == "" {
			continue
		}
		if rule == UnknownRule {
			p.unknown = len(p.rules)
			p.rules = append(p.rules, Single{Pattern: UnknownRule})
			continue
		}

		s, err := compileSingle(rule)
		if err != nil {
			return Precedence{}, fmt.Errorf("%w at line %d: %w", ErrSyntax, line, err)
		}
		p.rules = append(p.rules, s)
	}
	if err := sc.Err(); err != nil {
		return Precedence{}, err
	}
	return p, nil
}

// DefaultPrecedence flattens the default tree into a ranking.
func DefaultPrecedence() Precedence {
	p, err := ParsePrecedence(strings.Join([]string{
		"image/png",
		"image/jpeg",
		"image/.*",
		"UTF8_STRING",
		"text/plain;charset=utf8",
		"TEXT",
		"text/plain",
	}, "\n"))
	if err != nil {
		panic(err)
	}
	return p
}

// Rank reports the rank of mime and whether it is eligible at all.
func (p Precedence) Rank(mime string) (int, bool) {
	for i, rule := range p.rules {
		if i == p.unknown {
			continue
		}
		if rule.Match(mime) {
			return i, true
		}
	}
	if p.unknown >= 0 {
		return p.unknown, true
	}
	return 0, false
}

// Best picks the lowest-ranked MIME; ties go to the one announced first.
func (p Precedence) Best(mimes []string) (string, bool) {
	var (
		best     string
		bestRank int
		found    bool
	)
	for _, mime := range mimes {
		rank, ok := p.Rank(mime)
		if !ok {
			continue
		}
		if !found || rank < bestRank {
			best, bestRank, found = mime, rank, true
		}
	}
	return best, found
}
