package frames

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// TooltipClass marks the root element of every tooltip overlay.
	TooltipClass = "ps-tooltip"
	// ContentClass marks the element holding the tooltip rows.
	ContentClass = "ps-content"
	// LabelClass marks the label of a row.
	LabelClass = "ps-label"
	// PopoverManual keeps the overlay visible until the caller hides it.
	PopoverManual = "manual"
)

// Overlay is a rendered, detached tooltip. Attaching it to a page and
// removing it again is up to the caller.
type Overlay struct {
	Info    Info   `json:"info"`
	Lines   []Line `json:"lines"`
	Popover string `json:"popover"`
	// Markup is the serialized overlay for the render target.
	Markup string `json:"markup"`
}

// Renderer turns a tooltip payload into an overlay for a render target.
type Renderer interface {
	Render(info Info) (*Overlay, error)
}

// HTMLRenderer renders overlays as HTML popover elements.
type HTMLRenderer struct {
	policy *bluemonday.Policy
}

// NewHTMLRenderer creates a renderer whose output only keeps the markup a
// tooltip needs.
func NewHTMLRenderer() *HTMLRenderer {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "p", "strong")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^ps-[a-z]+$`)).OnElements("div", "strong")
	p.AllowAttrs("popover").Matching(regexp.MustCompile(`^manual$`)).OnElements("div")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "ws", "wss")
	p.RequireParseableURLs(true)

	return &HTMLRenderer{policy: p}
}

// Node builds the detached overlay element for info.
func (r *HTMLRenderer) Node(info Info) *html.Node {
	tooltip := element(atom.Div, html.Attribute{Key: "class", Val: TooltipClass},
		html.Attribute{Key: "popover", Val: PopoverManual})
	content := element(atom.Div, html.Attribute{Key: "class", Val: ContentClass})

	for _, line := range info.Lines() {
		p := element(atom.P)

		label := element(atom.Strong, html.Attribute{Key: "class", Val: LabelClass})
		label.AppendChild(text(line.Label))
		p.AppendChild(label)
		p.AppendChild(text(": "))

		if line.Href != "" {
			a := element(atom.A, html.Attribute{Key: "href", Val: line.Href})
			a.AppendChild(text(line.Value))
			p.AppendChild(a)
		} else {
			p.AppendChild(text(line.Value))
		}
		content.AppendChild(p)
	}

	tooltip.AppendChild(content)
	return tooltip
}

// Render implements Renderer.
func (r *HTMLRenderer) Render(info Info) (*Overlay, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, r.Node(info)); err != nil {
		return nil, fmt.Errorf("failed to render tooltip: %w", err)
	}

	return &Overlay{
		Info:    info,
		Lines:   info.Lines(),
		Popover: PopoverManual,
		Markup:  r.policy.Sanitize(buf.String()),
	}, nil
}

// TextRenderer renders overlays as "Label: value" lines.
type TextRenderer struct{}

// Render implements Renderer.
func (TextRenderer) Render(info Info) (*Overlay, error) {
	lines := info.Lines()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line.Label)
		b.WriteString(": ")
		b.WriteString(line.Value)
		b.WriteByte('\n')
	}

	return &Overlay{
		Info:    info,
		Lines:   lines,
		Popover: PopoverManual,
		Markup:  b.String(),
	}, nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
