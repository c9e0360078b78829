package frames

import (
	"strconv"
	"strings"
)

// Request describes one tooltip composition.
type Request struct {
	Frame *Element
	// Nested names the src of the hovered iframe inside Frame's content
	// document. When empty the marker stored on Frame is used.
	Nested  string
	Payload Payload
	// Base is the URL of the document embedding Frame, used to resolve a
	// relative src.
	Base string
}

// Compose builds the tooltip payload for the frame in req. The frame's
// nesting marker is always cleared.
func Compose(req Request) Info {
	frame := req.Frame
	marker := frame.TakeNestedMarker()
	if req.Nested != "" {
		marker = req.Nested
	}

	var (
		attrs  Attributes
		nested *Element
		base   = req.Base
	)
	if frame != nil && !frame.IsBody() {
		nested = ResolveNested(frame, marker)
		if nested != nil {
			attrs = ReadAttributes(nested)
			// srcdoc documents resolve against their embedder
			if frame.URL != "" && !strings.HasPrefix(frame.URL, "about:") {
				base = frame.URL
			}
		} else {
			attrs = ReadAttributes(frame)
		}
	}

	var rect *Rect
	if frame != nil {
		rect = frame.Rect
	}

	info := Info{
		Type:              Classify(frame, rect, nested),
		FirstPartyCookies: count(req.Payload.FirstPartyCookies),
		ThirdPartyCookies: count(req.Payload.ThirdPartyCookies),
		AllowedFeatures:   attrs.AllowedFeatures(),
	}
	if frame.IsBody() {
		info.Origin = req.Payload.SelectedFrame
	} else {
		info.Origin = Origin(attrs.Source(), base)
	}
	return info
}

func count(n *int) int {
	if n == nil || *n < 0 {
		return 0
	}
	return *n
}

// Line is one labelled row of a tooltip.
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
	// Href is set when the value should render as a hyperlink.
	Href string `json:"href,omitempty"`
}

// Lines returns the rows to display, skipping rows with an empty value.
func (i Info) Lines() []Line {
	all := []Line{
		{Label: "Type", Value: i.Type.String()},
		{Label: "Origin", Value: i.Origin, Href: i.Origin},
		{Label: "First-party cookies", Value: strconv.Itoa(i.FirstPartyCookies)},
		{Label: "Third-party cookies", Value: strconv.Itoa(i.ThirdPartyCookies)},
		{Label: "Allowed features", Value: i.AllowedFeatures},
	}

	lines := all[:0]
	for _, l := range all {
		if strings.TrimSpace(l.Value) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
