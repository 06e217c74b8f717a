package graph

import (
	"fmt"
	"strconv"

	"reel/internal/effects"
)

// ColorInfo describes colour characteristics of a stream.
type ColorInfo struct {
	Space    string
	Range    string
	Transfer string
}

func (c ColorInfo) String() string {
	if c == (ColorInfo{}) {
		return "unspecified"
	}
	return fmt.Sprintf("%s/%s/%s", orDash(c.Space), orDash(c.Range), orDash(c.Transfer))
}

// Format is an opaque description of a stream used to select colour and size
// paths. Zero FrameRate means the rate is variable or unknown.
type Format struct {
	MimeType  string
	Width     int
	Height    int
	FrameRate float64
	Color     ColorInfo
}

// Size returns the frame dimensions.
func (f Format) Size() effects.Size {
	return effects.Size{Width: f.Width, Height: f.Height}
}

func (f Format) String() string {
	mime := f.MimeType
	if mime == "" {
		mime = "unknown"
	}
	s := fmt.Sprintf("%s %dx%d", mime, f.Width, f.Height)
	if f.FrameRate > 0 {
		s += "@" + strconv.FormatFloat(f.FrameRate, 'f', -1, 64)
	}
	return s + " " + f.Color.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
