package effects

import (
	"fmt"
	"math"
	"strings"
)

// Size is a frame geometry in pixels.
type Size struct {
	Width  int
	Height int
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Effect is an opaque transform applied by the compositing graph.
type Effect interface {
	Kind() string
	OutputSize(in Size) Size
}

// Chain is an ordered list of effects applied first to last.
type Chain []Effect

// OutputSize folds the chain over the input geometry.
func (c Chain) OutputSize(in Size) Size {
	out := in
	for _, effect := range c {
		if effect == nil {
			continue
		}
		out = effect.OutputSize(out)
	}
	return out
}

// Kinds lists the effect kinds in chain order.
func (c Chain) Kinds() []string {
	kinds := make([]string, 0, len(c))
	for _, effect := range c {
		if effect != nil {
			kinds = append(kinds, effect.Kind())
		}
	}
	return kinds
}

func (c Chain) String() string {
	if len(c) == 0 {
		return "none"
	}
	return strings.Join(c.Kinds(), ",")
}

// Layout controls how a Presentation maps input onto its requested size.
type Layout string

const (
	LayoutScaleToFit         Layout = "scale_to_fit"
	LayoutScaleToFitWithCrop Layout = "scale_to_fit_with_crop"
	LayoutStretchToFit       Layout = "stretch_to_fit"
)

// ParseLayout normalizes a layout name; empty selects scale_to_fit.
func ParseLayout(value string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(value))) {
	case "", LayoutScaleToFit:
		return LayoutScaleToFit, nil
	case LayoutScaleToFitWithCrop:
		return LayoutScaleToFitWithCrop, nil
	case LayoutStretchToFit:
		return LayoutStretchToFit, nil
	default:
		return "", fmt.Errorf("unknown layout %q", value)
	}
}

// Presentation resizes frames to a target width and/or height. A zero width
// keeps the input aspect ratio for the requested height.
type Presentation struct {
	Width  int
	Height int
	Layout Layout
}

// PresentationForHeight keeps the aspect ratio and sets the output height.
func PresentationForHeight(height int) Presentation {
	return Presentation{Height: height, Layout: LayoutScaleToFit}
}

// PresentationForWidthAndHeight fixes the output size using the given layout.
func PresentationForWidthAndHeight(width, height int, layout Layout) Presentation {
	if layout == "" {
		layout = LayoutScaleToFit
	}
	return Presentation{Width: width, Height: height, Layout: layout}
}

func (p Presentation) Kind() string { return "presentation" }

func (p Presentation) OutputSize(in Size) Size {
	switch {
	case p.Width > 0 && p.Height > 0:
		return Size{Width: p.Width, Height: p.Height}
	case p.Height > 0:
		if !in.Valid() {
			return Size{Width: p.Height, Height: p.Height}
		}
		width := int(math.Round(float64(in.Width) * float64(p.Height) / float64(in.Height)))
		return Size{Width: width, Height: p.Height}
	case p.Width > 0:
		if !in.Valid() {
			return Size{Width: p.Width, Height: p.Width}
		}
		height := int(math.Round(float64(in.Height) * float64(p.Width) / float64(in.Width)))
		return Size{Width: p.Width, Height: height}
	default:
		return in
	}
}

// Scale multiplies both dimensions.
type Scale struct {
	X float64
	Y float64
}

func (s Scale) Kind() string { return "scale" }

func (s Scale) OutputSize(in Size) Size {
	x, y := s.X, s.Y
	if x <= 0 {
		x = 1
	}
	if y <= 0 {
		y = 1
	}
	return Size{
		Width:  int(math.Round(float64(in.Width) * x)),
		Height: int(math.Round(float64(in.Height) * y)),
	}
}
