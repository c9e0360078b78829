package frames

// ReadAttributes returns the declared src and allow attributes of frame.
// A nil frame yields empty attributes.
func ReadAttributes(frame *Element) Attributes {
	var attrs Attributes
	if src, ok := frame.Attr("src"); ok {
		attrs.Src = &src
	}
	if allow, ok := frame.Attr("allow"); ok {
		attrs.Allow = &allow
	}
	return attrs
}

// ResolveNested finds the iframe whose src equals marker inside the content
// document of frame. It returns nil when the marker is empty, nothing
// matches or the content document is not readable.
func ResolveNested(frame *Element, marker string) *Element {
	if frame == nil || marker == "" || frame.CrossOrigin {
		return nil
	}
	for _, child := range frame.Frames {
		if src, ok := child.Attr("src"); ok && src == marker {
			return child
		}
	}
	return nil
}
