package glossary

import "golang.org/x/net/html"

// structuralChildren returns n's children minus text and comment nodes.
func structuralChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode || c.Type == html.CommentNode {
			continue
		}
		out = append(out, c)
	}
	return out
}

func isElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// IsEpisodeFragment reports whether n is an episode list item: an <li> whose
// first structural child is a <p> that itself starts with an <a>. Any other
// shape is simply not an episode; classification never fails.
func IsEpisodeFragment(n *html.Node) bool {
	if !isElement(n, "li") {
		return false
	}
	children := structuralChildren(n)
	if len(children) < 1 || !isElement(children[0], "p") {
		return false
	}
	header := structuralChildren(children[0])
	return len(header) > 0 && isElement(header[0], "a")
}

// bitList returns the <ul> holding an episode's bits. It is only present
// when the fragment has exactly two structural children.
func bitList(n *html.Node) (*html.Node, bool) {
	children := structuralChildren(n)
	if len(children) == 2 && isElement(children[1], "ul") {
		return children[1], true
	}
	return nil, false
}

// titleLink returns the episode fragment's title anchor.
func titleLink(n *html.Node) *html.Node {
	return structuralChildren(structuralChildren(n)[0])[0]
}

// titleText returns the last text child of the title link.
func titleText(link *html.Node) (string, bool) {
	var text string
	found := false
	for c := link.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			text = c.Data
			found = true
		}
	}
	return text, found
}

func attr(n *html.Node, key string) *string {
	var val *string
	for _, a := range n.Attr {
		if a.Key == key {
			v := a.Val
			val = &v
		}
	}
	return val
}
