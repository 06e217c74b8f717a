package timeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"reel/internal/effects"
)

type fileComposition struct {
	Name      string         `toml:"name"`
	Effects   []effects.Spec `toml:"effects"`
	Sequences []fileSequence `toml:"sequences"`
}

type fileSequence struct {
	Repeat  int         `toml:"repeat"`
	Entries []fileEntry `toml:"entries"`
}

type fileEntry struct {
	Source      string         `toml:"source"`
	Kind        string         `toml:"kind"`
	DurationUs  int64          `toml:"duration_us"`
	DurationMs  int64          `toml:"duration_ms"`
	FrameRate   float64        `toml:"frame_rate"`
	RemoveAudio bool           `toml:"remove_audio"`
	Effects     []effects.Spec `toml:"effects"`
}

// LoadFile reads a composition file. Relative entry sources are resolved
// against the file's directory.
func LoadFile(path string) (Composition, error) {
	file, err := os.Open(path)
	if err != nil {
		return Composition{}, fmt.Errorf("open composition: %w", err)
	}
	defer file.Close()

	comp, err := decode(file, filepath.Dir(path))
	if err != nil {
		return Composition{}, fmt.Errorf("composition %s: %w", filepath.Base(path), err)
	}
	if strings.TrimSpace(comp.Name) == "" {
		comp.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return comp, nil
}

// Decode parses a composition from r. Entry sources are kept as written.
func Decode(r io.Reader) (Composition, error) {
	return decode(r, "")
}

func decode(r io.Reader, baseDir string) (Composition, error) {
	var raw fileComposition
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Composition{}, fmt.Errorf("parse: %s", strict.String())
		}
		return Composition{}, fmt.Errorf("parse: %w", err)
	}

	chain, err := effects.ParseChain(raw.Effects)
	if err != nil {
		return Composition{}, fmt.Errorf("composition effects: %w", err)
	}
	if len(raw.Sequences) == 0 {
		return Composition{}, errors.New("at least one [[sequences]] table is required")
	}

	sequences := make([]Sequence, 0, len(raw.Sequences))
	for si, rawSeq := range raw.Sequences {
		if len(rawSeq.Entries) == 0 {
			return Composition{}, fmt.Errorf("sequence %d: no entries", si)
		}
		if rawSeq.Repeat < 0 {
			return Composition{}, fmt.Errorf("sequence %d: repeat must not be negative", si)
		}
		entries := make([]Entry, 0, len(rawSeq.Entries))
		for ei, rawEntry := range rawSeq.Entries {
			entry, err := rawEntry.build(baseDir)
			if err != nil {
				return Composition{}, fmt.Errorf("sequence %d entry %d: %w", si, ei, err)
			}
			entries = append(entries, entry)
		}
		sequences = append(sequences, NewSequence(entries...).Repeat(rawSeq.Repeat))
	}

	return NewComposition(strings.TrimSpace(raw.Name), chain, sequences...)
}

func (f fileEntry) build(baseDir string) (Entry, error) {
	var kind InputType
	if strings.TrimSpace(f.Kind) != "" {
		parsed, err := ParseInputType(f.Kind)
		if err != nil {
			return Entry{}, err
		}
		kind = parsed
	}
	if f.DurationUs != 0 && f.DurationMs != 0 {
		return Entry{}, errors.New("set duration_us or duration_ms, not both")
	}
	durationUs := f.DurationUs
	if f.DurationMs != 0 {
		durationUs = f.DurationMs * 1000
	}
	chain, err := effects.ParseChain(f.Effects)
	if err != nil {
		return Entry{}, err
	}
	source := strings.TrimSpace(f.Source)
	if source != "" && baseDir != "" && !filepath.IsAbs(source) && !strings.Contains(source, "://") {
		source = filepath.Join(baseDir, source)
	}
	return NewEntry(EntryOptions{
		Source:      source,
		Kind:        kind,
		DurationUs:  durationUs,
		FrameRate:   f.FrameRate,
		Effects:     chain,
		RemoveAudio: f.RemoveAudio,
	})
}
