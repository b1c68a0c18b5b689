package glossary

import (
	"strings"

	"go.uber.org/zap"

	"dbbs/pkg/domain"
)

// partialBit is what a template extracts before the timecode is parsed and
// the names are normalized.
type partialBit struct {
	episode       int
	rawName       string
	rawAltName    *string
	rawTimeCode   *string
	isHistoryRoad bool
	isLegendary   bool
	links         []string
}

// bitInput is the link-preprocessed fragment handed to template handlers.
type bitInput struct {
	content string
	episode int
	links   []string
}

func (in bitInput) partial(name string, timeCode *string, historyRoad, legendary bool) partialBit {
	return partialBit{
		episode:       in.episode,
		rawName:       name,
		rawTimeCode:   timeCode,
		isHistoryRoad: historyRoad,
		isLegendary:   legendary,
		links:         in.links,
	}
}

type bitTemplate struct {
	name    string
	pattern *pattern
	handle  func(args []string, in bitInput) (partialBit, error)
}

const malformedIndent = "                                "

// bitTemplates are tried in order and the first match wins. Several are
// deliberate subsets of later ones, so the order is load-bearing.
var bitTemplates = []bitTemplate{
	{
		name:    "history road with timecode",
		pattern: compilePattern(`<li><strong>{2}</strong>\s*<em>HR:</em>{1}</li>`),
		handle:  nameAndTimeCode(true, false),
	},
	{
		name:    "legendary",
		pattern: compilePattern(`<li><strong>{2}</strong> <strong>{1}</strong>\s*</li>`),
		handle:  nameAndTimeCode(false, true),
	},
	{
		name:    "legendary with alt name",
		pattern: compilePattern(`<li><strong>{3}</strong> <strong>{1}</strong>\s+/\s+{2}</li>`),
		handle:  nameAltAndTimeCode(false, true),
	},
	{
		name:    "name contains bold markup",
		pattern: compilePattern(`<li><strong>{1}</strong>\s*.*<strong>.*</strong>.*</li>`),
		handle:  nestedBoldName,
	},
	{
		name:    "regular",
		pattern: compilePattern(`<li><strong>{2}</strong>\s*{1}</li>`),
		handle:  nameAndTimeCode(false, false),
	},
	{
		name:    "legendary history road",
		pattern: compilePattern(`<li><em>HR:</em> <strong>{1}</strong></li>`),
		handle:  nameOnly(true, true),
	},
	{
		name:    "history road",
		pattern: compilePattern(`<li><em>HR:</em>\s*{1}</li>`),
		handle:  nameOnly(true, false),
	},
	{
		name:    "trailing history road with timecode",
		pattern: compilePattern(`<li><em>{2} HR:</em>{1}</li>`),
		handle:  nameAndTimeCode(true, false),
	},
	{
		name:    "lazy",
		pattern: compilePattern(`<li>{1}</li>`),
		handle:  nameOnly(false, false),
	},
	{
		name:    "malformed trailing newline",
		pattern: compilePattern("<li><strong>{2}</strong>{1}\n" + malformedIndent + "</li>"),
		handle:  nameAndTimeCode(false, true),
	},
	{
		name: "groove is in the heart",
		pattern: compilePattern(`<li><strong>[00:00:00]</strong> Ending the podcast after "groove is in the` +
			"\n" + malformedIndent + "    " + `heart"</li>`),
		handle: fixedBit(`Ending the podcast after "groove is in the heart"`, "[00:00:00]", false, true),
	},
}

var bitItem = compilePattern(`<li>{1}</li>`)

func nameAndTimeCode(historyRoad, legendary bool) func([]string, bitInput) (partialBit, error) {
	return func(args []string, in bitInput) (partialBit, error) {
		timeCode := args[1]
		return in.partial(args[0], &timeCode, historyRoad, legendary), nil
	}
}

func nameAltAndTimeCode(historyRoad, legendary bool) func([]string, bitInput) (partialBit, error) {
	return func(args []string, in bitInput) (partialBit, error) {
		alt := args[1]
		timeCode := args[2]
		p := in.partial(args[0], &timeCode, historyRoad, legendary)
		p.rawAltName = &alt
		return p, nil
	}
}

func nameOnly(historyRoad, legendary bool) func([]string, bitInput) (partialBit, error) {
	return func(args []string, in bitInput) (partialBit, error) {
		return in.partial(args[0], nil, historyRoad, legendary), nil
	}
}

func fixedBit(name, timeCode string, historyRoad, legendary bool) func([]string, bitInput) (partialBit, error) {
	return func(_ []string, in bitInput) (partialBit, error) {
		tc := timeCode
		return in.partial(name, &tc, historyRoad, legendary), nil
	}
}

// nestedBoldName handles names that carry their own bold markup. The outer
// template cannot tell the name's bold spans apart, so the timecode wrapper is
// removed from the fragment and the remainder is matched again.
func nestedBoldName(args []string, in bitInput) (partialBit, error) {
	timeCode := args[0]
	stripped := strings.ReplaceAll(in.content, "<strong>"+timeCode+"</strong>", "")
	rest, ok := bitItem.match(stripped)
	if !ok {
		return partialBit{}, &UnmatchedBitFragmentError{Fragment: in.content}
	}
	return in.partial(rest[0], &timeCode, false, true), nil
}

// ParseBitFragment matches one serialized bit list item against the known
// authoring conventions and builds a Bit owned by episode.
func ParseBitFragment(markup string, episode int) (domain.Bit, error) {
	return parseBitFragment(markup, episode, zap.L())
}

func parseBitFragment(markup string, episode int, logger *zap.Logger) (domain.Bit, error) {
	content, links := ExtractLinks(markup)
	in := bitInput{content: content, episode: episode, links: links}

	for _, t := range bitTemplates {
		args, ok := t.pattern.match(content)
		if !ok {
			continue
		}
		logger.Debug("bit fragment matched",
			zap.String("template", t.name),
			zap.Int("episode", episode))
		p, err := t.handle(args, in)
		if err != nil {
			return domain.Bit{}, err
		}
		return p.finish(logger)
	}

	return domain.Bit{}, &UnmatchedBitFragmentError{Fragment: markup}
}

func (p partialBit) finish(logger *zap.Logger) (domain.Bit, error) {
	var timeCode *domain.TimeCode
	if p.rawTimeCode != nil {
		tc, err := ParseTimeCode(*p.rawTimeCode)
		if err != nil {
			return domain.Bit{}, err
		}
		timeCode = &tc
	}

	rawName, rawAlt := p.rawName, p.rawAltName
	if rawAlt == nil {
		rawName, rawAlt = splitAltName(rawName)
	}

	links := make([]string, 0, len(p.links))
	links = append(links, p.links...)

	name := normalizeName(rawName, logger)
	links = append(links, name.Links...)

	var altName *string
	if rawAlt != nil {
		alt := normalizeName(*rawAlt, logger)
		altName = &alt.Name
		links = append(links, alt.Links...)
	}

	return domain.Bit{
		Name:          name.Name,
		AltName:       altName,
		Episode:       p.episode,
		TimeCode:      timeCode,
		IsHistoryRoad: p.isHistoryRoad,
		IsLegendary:   p.isLegendary,
		Links:         links,
	}, nil
}
