package timeline

import (
	"errors"
	"fmt"

	"reel/internal/effects"
)

// Sequence is an ordered list of entries played back-to-back with no gaps.
type Sequence struct {
	entries []Entry
}

// NewSequence copies entries in playback order.
func NewSequence(entries ...Entry) Sequence {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return Sequence{entries: out}
}

// Repeat returns a sequence with entries repeated count times.
func (s Sequence) Repeat(count int) Sequence {
	if count <= 1 {
		return s
	}
	out := make([]Entry, 0, len(s.entries)*count)
	for i := 0; i < count; i++ {
		out = append(out, s.entries...)
	}
	return Sequence{entries: out}
}

// Entries returns a copy of the entries in playback order.
func (s Sequence) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s Sequence) Len() int { return len(s.entries) }

func (s Sequence) Entry(i int) Entry { return s.entries[i] }

// Validate enforces that the sequence is non-empty and that every entry has a
// positive duration.
func (s Sequence) Validate() error {
	if len(s.entries) == 0 {
		return errors.New("sequence has no entries")
	}
	for i, entry := range s.entries {
		if entry.durationUs <= 0 {
			return fmt.Errorf("entry %d (%s): duration must be positive", i, entry.source)
		}
	}
	return nil
}

// RequestedDurationUs sums the entry durations.
func (s Sequence) RequestedDurationUs() int64 {
	var total int64
	for _, entry := range s.entries {
		total += entry.durationUs
	}
	return total
}

// StartUs returns the timeline position at which entry i begins.
func (s Sequence) StartUs(i int) int64 {
	var start int64
	for _, entry := range s.entries[:i] {
		start += entry.durationUs
	}
	return start
}

// Map returns a new sequence with fn applied to every entry.
func (s Sequence) Map(fn func(int, Entry) (Entry, error)) (Sequence, error) {
	out := make([]Entry, len(s.entries))
	for i, entry := range s.entries {
		mapped, err := fn(i, entry)
		if err != nil {
			return Sequence{}, err
		}
		out[i] = mapped
	}
	return Sequence{entries: out}, nil
}

// Composition is one or more sequences plus an effect chain applied after the
// sequences are merged.
type Composition struct {
	Name      string
	sequences []Sequence
	effects   effects.Chain
}

// NewComposition requires at least one sequence.
func NewComposition(name string, chain effects.Chain, sequences ...Sequence) (Composition, error) {
	if len(sequences) == 0 {
		return Composition{}, errors.New("composition requires at least one sequence")
	}
	seqs := make([]Sequence, len(sequences))
	copy(seqs, sequences)
	fx := make(effects.Chain, len(chain))
	copy(fx, chain)
	return Composition{Name: name, sequences: seqs, effects: fx}, nil
}

// Sequences returns a copy of the composition's sequences.
func (c Composition) Sequences() []Sequence {
	out := make([]Sequence, len(c.sequences))
	copy(out, c.sequences)
	return out
}

// Effects returns a copy of the composition-level effect chain.
func (c Composition) Effects() effects.Chain {
	out := make(effects.Chain, len(c.effects))
	copy(out, c.effects)
	return out
}

// DurationUs is the longest sequence's requested duration; sequences play in
// parallel.
func (c Composition) DurationUs() int64 {
	var longest int64
	for _, seq := range c.sequences {
		if d := seq.RequestedDurationUs(); d > longest {
			longest = d
		}
	}
	return longest
}

// WithSequence returns a copy of the composition with sequence i replaced.
func (c Composition) WithSequence(i int, seq Sequence) Composition {
	seqs := make([]Sequence, len(c.sequences))
	copy(seqs, c.sequences)
	seqs[i] = seq
	c.sequences = seqs
	return c
}
