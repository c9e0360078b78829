/*
Package frames classifies the frames of an inspected page and composes the
tooltip shown when a frame is hovered in the panel.

# Overview

A frame is either the main document body or an embedded iframe. For each
hovered frame the package reads its declared attributes, decides its
classification and builds an Info record that a Renderer turns into an
overlay:

	info := frames.Compose(frames.Request{
		Frame:   element,
		Payload: frames.Payload{SelectedFrame: "https://example.com"},
	})
	overlay, err := frames.NewHTMLRenderer().Render(info)

# Classification

Classification follows a fixed precedence: the body element is always the
main frame; a zero-size frame is hidden even when it hosts a nested frame;
a frame whose nested frame resolved is a nested iframe; everything else is
a plain iframe.

# Nesting marker

A frame may carry a transient marker naming the src of an iframe inside its
content document. Compose consumes the marker and clears it, so a second
hover never observes a stale value. Callers may also pass the marker
explicitly through Request.Nested.
*/
package frames
