package timeline

import (
	"fmt"
	"path/filepath"
	"strings"
)

// InputType tags where a contiguous block of frames comes from. The set is
// closed: release control and offset handling treat every kind identically.
type InputType int

const (
	// InputBuffer frames are decoded video buffers.
	InputBuffer InputType = iota + 1
	// InputSurface frames are rendered by an external producer onto a surface.
	InputSurface
	// InputImage frames are synthesized from a still image.
	InputImage
)

func (t InputType) String() string {
	switch t {
	case InputBuffer:
		return "buffer"
	case InputSurface:
		return "surface"
	case InputImage:
		return "image"
	default:
		return fmt.Sprintf("input(%d)", int(t))
	}
}

// Valid reports whether t is one of the three known kinds.
func (t InputType) Valid() bool {
	return t == InputBuffer || t == InputSurface || t == InputImage
}

// ParseInputType accepts the String form; "video" is an alias for buffer.
func ParseInputType(value string) (InputType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "buffer", "video":
		return InputBuffer, nil
	case "surface":
		return InputSurface, nil
	case "image":
		return InputImage, nil
	default:
		return 0, fmt.Errorf("unknown input type %q", value)
	}
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// InferInputType guesses the input kind from a source reference's extension.
func InferInputType(source string) InputType {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(source)))
	if _, ok := imageExtensions[ext]; ok {
		return InputImage
	}
	return InputBuffer
}
