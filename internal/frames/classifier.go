package frames

// Classify decides the category of frame. rect is the measured bounding box;
// nil means the measurement failed and counts as an empty box. nested is the
// resolved nested frame, if any.
func Classify(frame *Element, rect *Rect, nested *Element) Classification {
	switch {
	case frame.IsBody():
		return MainFrame
	case rect.Empty():
		return HiddenIframe
	case nested != nil:
		return NestedIframe
	default:
		return Iframe
	}
}
