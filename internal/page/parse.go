// Package page turns fetched documents into the frame tree the inspector
// works on.
package page

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// MaxSrcdocDepth bounds recursion into inline srcdoc documents
const MaxSrcdocDepth = 4

// SrcdocURL is the address of a document loaded through srcdoc
const SrcdocURL = "about:srcdoc"

// Document is a parsed document and the iframes it embeds.
type Document struct {
	URL     string
	Title   string
	Charset string
	Frames  []*frames.Element
}

// Parse reads an HTML document located at docURL. Frame ids are derived from
// parentID so that they stay unique across the whole page.
func Parse(body []byte, contentType, docURL, parentID string) (*Document, error) {
	r, label, err := utf8Reader(body, contentType)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	out := &Document{
		URL:     docURL,
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Charset: label,
	}

	doc.Find("iframe").Each(func(i int, s *goquery.Selection) {
		out.Frames = append(out.Frames, newFrame(s.Nodes[0], docURL, childID(parentID, i), 0))
	})

	return out, nil
}

// Root wraps a parsed top-level document in its body element.
func Root(doc *Document) *frames.Element {
	return &frames.Element{
		ID:     "0",
		Tag:    frames.TagBody,
		URL:    doc.URL,
		Rect:   &frames.Rect{Width: ViewportWidth, Height: ViewportHeight},
		Frames: doc.Frames,
	}
}

// Resolve returns the absolute address an iframe src points to, relative to
// the embedding document.
func Resolve(src, docURL string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return "about:blank"
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	base, err := url.Parse(docURL)
	if err != nil || !base.IsAbs() {
		return ""
	}
	return base.ResolveReference(u).String()
}

// Fetchable reports whether the frame loads a network document.
func Fetchable(frame *frames.Element) bool {
	return strings.HasPrefix(frame.URL, "http://") || strings.HasPrefix(frame.URL, "https://")
}

func newFrame(n *html.Node, docURL, id string, depth int) *frames.Element {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[strings.ToLower(a.Key)] = a.Val
	}

	el := &frames.Element{ID: id, Tag: frames.TagIframe, Attributes: attrs}
	if rect, err := Measure(attrs); err == nil {
		el.Rect = rect
	}

	if srcdoc, ok := attrs["srcdoc"]; ok {
		// srcdoc documents share the embedding origin
		el.URL = SrcdocURL
		if depth < MaxSrcdocDepth {
			el.Frames = srcdocFrames(srcdoc, docURL, id, depth+1)
		}
		return el
	}

	el.URL = Resolve(attrs["src"], docURL)
	el.CrossOrigin = CrossOrigin(docURL, el.URL)
	return el
}

// srcdocFrames lists the iframes of an inline document. Relative sources in
// srcdoc resolve against the embedding document.
func srcdocFrames(srcdoc, docURL, parentID string, depth int) []*frames.Element {
	root, err := htmlquery.Parse(bytes.NewReader([]byte(srcdoc)))
	if err != nil {
		return nil
	}

	var out []*frames.Element
	for i, n := range htmlquery.Find(root, "//iframe") {
		out = append(out, newFrame(n, docURL, childID(parentID, i), depth))
	}
	return out
}

// CrossOrigin reports whether a frame showing frameURL is isolated from a
// document at docURL. about: documents inherit the embedding origin.
func CrossOrigin(docURL, frameURL string) bool {
	if strings.HasPrefix(frameURL, "about:") {
		return false
	}
	parent := frames.Origin(docURL, "")
	child := frames.Origin(frameURL, "")
	return parent == "" || child == "" || parent != child
}

func childID(parentID string, i int) string {
	if parentID == "" {
		return strconv.Itoa(i)
	}
	return parentID + "." + strconv.Itoa(i)
}
