package glossary

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func firstNode(t *testing.T, markup, selector string) *html.Node {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("Failed to parse markup: %v", err)
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		t.Fatalf("No %s in markup", selector)
	}
	return sel.Get(0)
}

func TestIsEpisodeFragment(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   bool
	}{
		{"episode", `<ul><li><p><a href="x">Episode 1: A</a></p></li></ul>`, true},
		{"episode with bits", `<ul><li><p><a>Episode 1: A</a></p><ul><li>bit</li></ul></li></ul>`, true},
		{"comment before header", `<ul><li><!-- note --> <p><a>Episode 1: A</a></p></li></ul>`, true},
		{"div header", `<ul><li><div><a>Episode 1: A</a></div></li></ul>`, false},
		{"header without link", `<ul><li><p><span>Episode 1: A</span></p></li></ul>`, false},
		{"plain item", `<ul><li>just text</li></ul>`, false},
		{"bit item", `<ul><li><strong>[00:01:00]</strong> bit</li></ul>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := firstNode(t, tt.markup, "li")
			if got := IsEpisodeFragment(n); got != tt.want {
				t.Errorf("IsEpisodeFragment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsEpisodeFragment_NonListItem(t *testing.T) {
	n := firstNode(t, `<div><p><a>Episode 1: A</a></p></div>`, "div")
	if IsEpisodeFragment(n) {
		t.Error("Expected a div never to be an episode fragment")
	}
}

func TestBitList(t *testing.T) {
	n := firstNode(t, `<ul><li><p><a>Episode 1: A</a></p>
<ul><li>bit</li></ul>
</li></ul>`, "li")
	list, ok := bitList(n)
	if !ok {
		t.Fatal("Expected a bit list")
	}
	if list.Data != "ul" {
		t.Errorf("Expected ul, got %s", list.Data)
	}

	extra := firstNode(t, `<ul><li><p><a>Episode 1: A</a></p><ul><li>bit</li></ul><div>extra</div></li></ul>`, "li")
	if _, ok := bitList(extra); ok {
		t.Error("Expected no bit list when the fragment has three children")
	}
}

func TestTitleText_LastTextChild(t *testing.T) {
	link := firstNode(t, `<a href="x"><img src="y">Ignored <b>bold</b>Episode 2: Kept</a>`, "a")
	text, ok := titleText(link)
	if !ok {
		t.Fatal("Expected a title")
	}
	if text != "Episode 2: Kept" {
		t.Errorf("Expected 'Episode 2: Kept', got %q", text)
	}

	empty := firstNode(t, `<a href="x"><img src="y"></a>`, "a")
	if _, ok := titleText(empty); ok {
		t.Error("Expected no title for a link without text")
	}
}
