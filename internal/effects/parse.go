package effects

import (
	"errors"
	"fmt"
	"strings"
)

// Spec is the table form of an effect inside a composition file.
type Spec struct {
	Type   string  `toml:"type"`
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	Layout string  `toml:"layout"`
	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
}

// Parse builds an effect from its table form.
func Parse(spec Spec) (Effect, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Type)) {
	case "presentation":
		if spec.Width < 0 || spec.Height < 0 {
			return nil, errors.New("presentation: width and height must not be negative")
		}
		if spec.Width == 0 && spec.Height == 0 {
			return nil, errors.New("presentation: width or height is required")
		}
		layout, err := ParseLayout(spec.Layout)
		if err != nil {
			return nil, fmt.Errorf("presentation: %w", err)
		}
		return Presentation{Width: spec.Width, Height: spec.Height, Layout: layout}, nil
	case "scale":
		if spec.X <= 0 || spec.Y <= 0 {
			return nil, errors.New("scale: x and y must be positive")
		}
		return Scale{X: spec.X, Y: spec.Y}, nil
	case "":
		return nil, errors.New("effect type is required")
	default:
		return nil, fmt.Errorf("unknown effect type %q", spec.Type)
	}
}

// ParseChain parses every spec in order.
func ParseChain(specs []Spec) (Chain, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	chain := make(Chain, 0, len(specs))
	for i, spec := range specs {
		effect, err := Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		chain = append(chain, effect)
	}
	return chain, nil
}
