package glossary

import (
	"html"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	nofollowAnchor = regexp.MustCompile(`<a\s*href="([^"]*)" rel="nofollow">((?s:.+?))</a>`)
	whitespaceRun  = regexp.MustCompile(`\s{2,}|\n`)
	strongWrapper  = compilePattern(`<strong>{1}</strong>`)
	altNameSplit   = compilePattern(`\s*{1}\s+/\s+{2}`)
)

// NormalizedName is a cleaned bit name and the links pulled out of it.
type NormalizedName struct {
	Name  string
	Links []string
}

// ExtractLinks replaces the first nofollow anchor in s with its text and
// returns the rewritten content with the anchor's URL. At most one anchor is
// extracted per call.
func ExtractLinks(s string) (string, []string) {
	links := []string{}
	loc := nofollowAnchor.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, links
	}
	href := s[loc[2]:loc[3]]
	text := s[loc[4]:loc[5]]
	links = append(links, html.UnescapeString(href))
	return s[:loc[0]] + text + s[loc[1]:], links
}

// NormalizeName cleans raw name markup using the global zap logger for
// suspicious-markup warnings.
func NormalizeName(raw string) NormalizedName {
	return normalizeName(raw, zap.L())
}

func normalizeName(raw string, logger *zap.Logger) NormalizedName {
	content, links := ExtractLinks(raw)
	name := cleanNameContent(content)
	if strings.ContainsAny(name, "<>") {
		logger.Warn("computed name contains suspicious characters", zap.String("name", name))
	}
	return NormalizedName{Name: name, Links: links}
}

// cleanNameContent unwraps a whole-name bold wrapper, trims, and collapses
// the first whitespace run only.
func cleanNameContent(name string) string {
	name = strings.TrimSpace(name)
	if args, ok := strongWrapper.match(name); ok {
		name = args[0]
	}
	name = strings.TrimSpace(name)
	if loc := whitespaceRun.FindStringIndex(name); loc != nil {
		name = name[:loc[0]] + " " + name[loc[1]:]
	}
	return name
}

// splitAltName splits "main / alt" on the first spaced slash.
func splitAltName(raw string) (string, *string) {
	args, ok := altNameSplit.match(raw)
	if !ok {
		return raw, nil
	}
	alt := args[1]
	return args[0], &alt
}
