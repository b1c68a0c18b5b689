package glossary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// pattern is a compiled markup template.
//
// A template is literal markup interleaved with a few tokens:
//
//	{N}  capture slot bound to argument position N (1-9), non-empty, single line
//	\s*  optional whitespace, may span lines
//	\s+  required whitespace, may span lines
//	.*   wildcard, single line
//
// Slots may appear in any textual order; match returns captures ordered by
// slot number, not by position. Templates always match the whole input.
type pattern struct {
	source string
	re     *regexp.Regexp
	slots  int
}

var patternToken = regexp.MustCompile(`\{[1-9]\}|\\s\*|\\s\+|\.\*`)

func compilePattern(source string) *pattern {
	var b strings.Builder
	b.WriteString("^")

	slots := 0
	last := 0
	for _, loc := range patternToken.FindAllStringIndex(source, -1) {
		b.WriteString(regexp.QuoteMeta(source[last:loc[0]]))
		tok := source[loc[0]:loc[1]]
		switch tok {
		case `\s*`, `\s+`:
			b.WriteString(tok)
		case `.*`:
			b.WriteString(`[^\n]*`)
		default:
			n := int(tok[1] - '0')
			fmt.Fprintf(&b, `(?P<s%d>[^\n]+?)`, n)
			if n > slots {
				slots = n
			}
		}
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(source[last:]))
	b.WriteString("$")

	return &pattern{
		source: source,
		re:     regexp.MustCompile(b.String()),
		slots:  slots,
	}
}

// match reports whether s matches the template and returns the captures,
// args[0] being slot {1}.
func (p *pattern) match(s string) ([]string, bool) {
	m := p.re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	args := make([]string, p.slots)
	for i, name := range p.re.SubexpNames() {
		if name == "" {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil || n < 1 || n > p.slots {
			continue
		}
		args[n-1] = m[i]
	}
	return args, true
}

func (p *pattern) String() string {
	return p.source
}
