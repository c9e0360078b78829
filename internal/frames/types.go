package frames

import (
	"fmt"
	"strings"
	"sync"
)

const (
	TagBody   = "BODY"
	TagIframe = "IFRAME"
)

// Classification is the category of an inspected frame.
type Classification int

const (
	Iframe Classification = iota
	MainFrame
	NestedIframe
	HiddenIframe
)

// String returns the label shown in the tooltip
func (c Classification) String() string {
	switch c {
	case MainFrame:
		return "Main Frame"
	case NestedIframe:
		return "iframe(nested frame)"
	case HiddenIframe:
		return "Hidden iframe"
	default:
		return "iframe"
	}
}

// MarshalText encodes the classification as its label.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a label produced by MarshalText.
func (c *Classification) UnmarshalText(text []byte) error {
	for _, k := range []Classification{Iframe, MainFrame, NestedIframe, HiddenIframe} {
		if k.String() == string(text) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown frame classification %q", text)
}

// Rect is the bounding box of a frame in CSS pixels.
type Rect struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the box has no area in both dimensions.
func (r *Rect) Empty() bool {
	return r == nil || (r.Width == 0 && r.Height == 0)
}

// Attributes are the declared attributes of a frame element. A nil field
// means the attribute is absent or could not be read.
type Attributes struct {
	Src   *string `json:"src,omitempty"`
	Allow *string `json:"allow,omitempty"`
}

// Source returns the src attribute or "".
func (a Attributes) Source() string {
	if a.Src == nil {
		return ""
	}
	return *a.Src
}

// AllowedFeatures returns the allow attribute or "".
func (a Attributes) AllowedFeatures() string {
	if a.Allow == nil {
		return ""
	}
	return *a.Allow
}

// Element is a frame element of the inspected page: the body of a document
// or an iframe embedded in it.
type Element struct {
	ID         string            `json:"id"`
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes,omitempty"`
	// Rect is nil when the frame could not be measured.
	Rect *Rect `json:"rect,omitempty"`
	// URL is the resolved address of the document the frame shows.
	URL string `json:"url,omitempty"`
	// CrossOrigin is set when the frame's content document cannot be read
	// from the embedding document.
	CrossOrigin bool `json:"crossOrigin,omitempty"`
	// Frames are the iframes of the document this frame shows.
	Frames []*Element `json:"frames,omitempty"`

	mu     sync.Mutex
	marker string
}

// IsBody reports whether the element is a document body.
func (e *Element) IsBody() bool {
	return e != nil && strings.EqualFold(e.Tag, TagBody)
}

// Attr returns an attribute value and whether it is declared.
func (e *Element) Attr(name string) (string, bool) {
	if e == nil || e.Attributes == nil {
		return "", false
	}
	v, ok := e.Attributes[name]
	return v, ok
}

// SetNestedMarker records the src of the iframe inside this frame's content
// document that the pointer is currently over.
func (e *Element) SetNestedMarker(src string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.marker = src
}

// NestedMarker returns the current marker without clearing it.
func (e *Element) NestedMarker() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.marker
}

// TakeNestedMarker returns the marker and resets it to empty.
func (e *Element) TakeNestedMarker() string {
	if e == nil {
		return ""
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.marker
	e.marker = ""
	return m
}

// Walk visits e and its descendant frames depth first. Returning false from
// fn skips the subtree of that frame.
func (e *Element) Walk(fn func(*Element) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, child := range e.Frames {
		child.Walk(fn)
	}
}

// Find returns the frame with the given id in the tree rooted at e.
func (e *Element) Find(id string) *Element {
	var found *Element
	e.Walk(func(el *Element) bool {
		if found != nil {
			return false
		}
		if el.ID == id {
			found = el
			return false
		}
		return true
	})
	return found
}

// Payload is the per-frame analytics attached to a hover request.
type Payload struct {
	// SelectedFrame is the origin of the top-level frame being inspected.
	SelectedFrame     string `json:"selectedFrame"`
	FirstPartyCookies *int   `json:"firstPartyCookies,omitempty"`
	ThirdPartyCookies *int   `json:"thirdPartyCookies,omitempty"`
}

// Info is the tooltip payload for one frame.
type Info struct {
	Type              Classification `json:"type"`
	Origin            string         `json:"origin"`
	FirstPartyCookies int            `json:"firstPartyCookies"`
	ThirdPartyCookies int            `json:"thirdPartyCookies"`
	AllowedFeatures   string         `json:"allowedFeatures"`
}
