package glossary

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"dbbs/pkg/domain"
)

// Traversal selects the order in which the document tree is walked. Both
// orders visit every node; episode classification does not depend on order.
type Traversal int

const (
	BreadthFirst Traversal = iota
	DepthFirst
)

// Parser walks a glossary document and collects episodes and bits.
// A Parser holds no per-parse state and may be shared between goroutines.
type Parser struct {
	logger          *zap.Logger
	traversal       Traversal
	now             func() time.Time
	onFragmentError func(*FragmentError)
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for progress and suspicious-markup warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTraversal selects breadth-first (default) or depth-first traversal.
func WithTraversal(t Traversal) Option {
	return func(p *Parser) {
		p.traversal = t
	}
}

// WithClock overrides the clock used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithFragmentErrorHandler makes the parser skip bit fragments that fail to
// parse, reporting each one to fn, instead of aborting the whole document.
func WithFragmentErrorHandler(fn func(*FragmentError)) Option {
	return func(p *Parser) {
		p.onFragmentError = fn
	}
}

// NewParser creates a parser. By default the first failing fragment aborts
// the parse.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger:    zap.NewNop(),
		traversal: BreadthFirst,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses a glossary document with the default parser.
func Parse(content string) (*domain.ParseResult, error) {
	return NewParser(WithLogger(zap.L())).ParseString(content)
}

// ParseString parses an HTML document held in memory.
func (p *Parser) ParseString(content string) (*domain.ParseResult, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse reads an HTML document from r and parses it.
func (p *Parser) Parse(r io.Reader) (*domain.ParseResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("failed to parse HTML: empty document")
	}
	return p.ParseDocument(doc.Nodes[0])
}

// ParseDocument walks every node reachable from root, root included, and
// aggregates the episodes and bits found, in traversal order. The first error
// aborts the walk and no partial result is returned.
func (p *Parser) ParseDocument(root *html.Node) (*domain.ParseResult, error) {
	p.logger.Info("parsing content")

	result := domain.NewParseResult()
	nodes := []*html.Node{root}
	for len(nodes) > 0 {
		var cur *html.Node
		if p.traversal == DepthFirst {
			cur = nodes[len(nodes)-1]
			nodes = nodes[:len(nodes)-1]
		} else {
			cur = nodes[0]
			nodes = nodes[1:]
		}

		if IsEpisodeFragment(cur) {
			fragment, err := p.parseEpisodeFragment(cur)
			if err != nil {
				return nil, err
			}
			result.Append(fragment)
		}

		if p.traversal == DepthFirst {
			// pushed last-first so the stack pops children in document order
			for c := cur.LastChild; c != nil; c = c.PrevSibling {
				nodes = append(nodes, c)
			}
			continue
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			nodes = append(nodes, c)
		}
	}

	ts := FormatTimestamp(p.now())
	result.Timestamp = &ts

	p.logger.Info("parsed content",
		zap.Int("episodes", len(result.Episodes)),
		zap.Int("bits", len(result.Bits)))
	return result, nil
}

// ParseBitFragment parses one serialized bit item using the parser's logger.
func (p *Parser) ParseBitFragment(markup string, episode int) (domain.Bit, error) {
	return parseBitFragment(markup, episode, p.logger)
}

func (p *Parser) parseEpisodeFragment(n *html.Node) (*domain.ParseResult, error) {
	link := titleLink(n)
	text, ok := titleText(link)
	if !ok {
		return nil, ErrMissingEpisodeTitle
	}
	title, err := ParseEpisodeTitle(text)
	if err != nil {
		return nil, fmt.Errorf("error parsing title: %w", err)
	}

	out := &domain.ParseResult{
		Episodes: []domain.Episode{{
			Num:        title.Num,
			Name:       title.Name,
			StreamLink: attr(link, "href"),
		}},
		Bits: []domain.Bit{},
	}

	list, ok := bitList(n)
	if !ok {
		return out, nil
	}

	for _, item := range structuralChildren(list) {
		markup, err := serializeBitItem(item)
		if err != nil {
			return nil, fmt.Errorf("serialize bit fragment (episode %d): %w", title.Num, err)
		}
		bit, err := parseBitFragment(markup, title.Num, p.logger)
		if err != nil {
			ferr := &FragmentError{Episode: title.Num, Fragment: markup, Err: err}
			if p.onFragmentError == nil {
				return nil, ferr
			}
			p.logger.Warn("skipping bit fragment", zap.Int("episode", title.Num), zap.Error(err))
			p.onFragmentError(ferr)
			continue
		}
		out.Bits = append(out.Bits, bit)
	}
	return out, nil
}

// The renderer escapes quotes in text as numeric references; the hand-written
// source carries them literally and the templates expect that.
var quoteRestorer = strings.NewReplacer("&#34;", `"`, "&#39;", "'")

// serializeBitItem renders the inner markup of a bit item wrapped in <li>.
func serializeBitItem(n *html.Node) (string, error) {
	inner, err := goquery.NewDocumentFromNode(n).Html()
	if err != nil {
		return "", err
	}
	return "<li>" + quoteRestorer.Replace(inner) + "</li>", nil
}

// FormatTimestamp formats t as M-D-YYYY-HH:MM:SS.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d-%02d:%02d:%02d",
		int(t.Month()), t.Day(), t.Year(), t.Hour(), t.Minute(), t.Second())
}
