package page

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
)

// Default iframe dimensions when nothing is declared
const (
	DefaultFrameWidth  = 300
	DefaultFrameHeight = 150

	ViewportWidth  = 1280
	ViewportHeight = 800
)

// Measure estimates the bounding box of an iframe from its width and height
// attributes and inline style. Without a layout engine, relative lengths
// fall back to the defaults. Values that cannot be interpreted at all return
// an error.
func Measure(attrs map[string]string) (*frames.Rect, error) {
	style := parseStyle(attrs["style"])
	if strings.EqualFold(style["display"], "none") {
		return &frames.Rect{}, nil
	}

	width, err := dimension(style["width"], attrs["width"], DefaultFrameWidth)
	if err != nil {
		return nil, fmt.Errorf("width: %w", err)
	}
	height, err := dimension(style["height"], attrs["height"], DefaultFrameHeight)
	if err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}

	return &frames.Rect{Width: width, Height: height}, nil
}

func dimension(styleValue, attrValue string, fallback float64) (float64, error) {
	if v := strings.TrimSpace(styleValue); v != "" {
		return cssLength(v, fallback)
	}
	if v := strings.TrimSpace(attrValue); v != "" {
		// presentational attributes are lenient: "300", "300px", "50%"
		return cssLength(v, fallback)
	}
	return fallback, nil
}

func cssLength(v string, fallback float64) (float64, error) {
	v = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(v), "!important"))
	v = strings.TrimSpace(v)

	switch {
	case v == "auto" || v == "initial" || v == "inherit" || v == "unset":
		return fallback, nil
	case strings.HasSuffix(v, "%"), strings.HasSuffix(v, "vw"), strings.HasSuffix(v, "vh"),
		strings.HasSuffix(v, "em"), strings.HasSuffix(v, "rem"):
		n, err := strconv.ParseFloat(strings.TrimRight(v, "%vwhrem"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid length %q", v)
		}
		if n == 0 {
			return 0, nil
		}
		return fallback, nil
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid length %q", v)
	}
	return n, nil
}

func parseStyle(style string) map[string]string {
	props := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		props[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return props
}
