package styles

import (
	"fmt"
	"strings"

	"tunely/internal/timing"
)

// DefaultID is the style every unmapped speaker falls back to.
const DefaultID = "Default"

// Spec is a named ASS style. SecondaryColor is the karaoke fill color that
// sweeps across each word as it is sung.
type Spec struct {
	ID             string
	Font           string
	Size           int
	Bold           bool
	PrimaryColor   Color
	SecondaryColor Color
	OutlineColor   Color
	BackColor      Color
	Outline        float64
	Shadow         float64
	Alignment      int
	MarginL        int
	MarginR        int
	MarginV        int
}

// Validate checks the fields the serializer relies on.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("style: id is required")
	}
	if strings.ContainsAny(s.ID, ",\r\n") {
		return fmt.Errorf("style %q: id must not contain commas or newlines", s.ID)
	}
	if strings.TrimSpace(s.Font) == "" {
		return fmt.Errorf("style %q: font is required", s.ID)
	}
	if strings.ContainsAny(s.Font, ",\r\n") {
		return fmt.Errorf("style %q: font must not contain commas or newlines", s.ID)
	}
	if s.Size <= 0 {
		return fmt.Errorf("style %q: size must be positive", s.ID)
	}
	if s.Alignment < 1 || s.Alignment > 9 {
		return fmt.Errorf("style %q: alignment must be between 1 and 9 (numpad layout)", s.ID)
	}
	return nil
}

// WithPrimary returns a copy of s renamed to id with a different primary color.
func (s Spec) WithPrimary(id string, primary Color) Spec {
	s.ID = id
	s.PrimaryColor = primary
	return s
}

// DefaultSpec is the base karaoke look: white Arial with a yellow sweep over
// a semi-transparent black box.
func DefaultSpec() Spec {
	return Spec{
		ID:             DefaultID,
		Font:           "Arial",
		Size:           28,
		Bold:           true,
		PrimaryColor:   Color{R: 0xFF, G: 0xFF, B: 0xFF},
		SecondaryColor: Color{R: 0xFF, G: 0xFF, B: 0x00},
		OutlineColor:   Color{},
		BackColor:      Color{A: 0x80},
		Outline:        2,
		Shadow:         0,
		Alignment:      2,
		MarginL:        10,
		MarginR:        10,
		MarginV:        20,
	}
}

// DefaultSpecs returns Default plus the two singer styles, Default first.
func DefaultSpecs() []Spec {
	base := DefaultSpec()
	return []Spec{
		base,
		base.WithPrimary("Speaker1", Color{R: 0xFF, G: 0xFF, B: 0x00}),
		base.WithPrimary("Speaker2", Color{R: 0xFF, G: 0xCC, B: 0xDA}),
	}
}

// Mapping maps diarizer speaker labels to style identifiers.
type Mapping map[string]string

// DefaultMapping assigns the first two diarized singers their own styles.
func DefaultMapping() Mapping {
	return Mapping{
		"SPEAKER_00": "Speaker1",
		"SPEAKER_01": "Speaker2",
	}
}

// Resolve returns the style for speaker, falling back to DefaultID for
// UNKNOWN, blank, or unmapped labels.
func Resolve(speaker string, mapping Mapping) string {
	label := strings.TrimSpace(speaker)
	if label == "" || label == timing.UnknownSpeaker {
		return DefaultID
	}
	if id := strings.TrimSpace(mapping[label]); id != "" {
		return id
	}
	return DefaultID
}

// Resolver binds a mapping for repeated resolution.
type Resolver struct {
	mapping Mapping
}

// NewResolver copies mapping so later edits by the caller are not observed.
func NewResolver(mapping Mapping) *Resolver {
	cp := make(Mapping, len(mapping))
	for k, v := range mapping {
		cp[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return &Resolver{mapping: cp}
}

// Resolve implements the speaker-to-style lookup.
func (r *Resolver) Resolve(speaker string) string {
	if r == nil {
		return DefaultID
	}
	return Resolve(speaker, r.mapping)
}

// Set is an ordered collection of style specs with unique IDs and Default first.
type Set struct {
	specs []Spec
	index map[string]int
}

// NewSet validates specs, moves Default to the front (synthesizing it when
// absent) and rejects duplicate IDs.
func NewSet(specs []Spec) (*Set, error) {
	set := &Set{index: make(map[string]int, len(specs)+1)}
	var def *Spec
	for i := range specs {
		if specs[i].ID == DefaultID {
			if def != nil {
				return nil, fmt.Errorf("style %q defined more than once", DefaultID)
			}
			def = &specs[i]
		}
	}
	if def == nil {
		d := DefaultSpec()
		def = &d
	}
	if err := set.add(*def); err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if spec.ID == DefaultID {
			continue
		}
		if err := set.add(spec); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (s *Set) add(spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if _, ok := s.index[spec.ID]; ok {
		return fmt.Errorf("style %q defined more than once", spec.ID)
	}
	s.index[spec.ID] = len(s.specs)
	s.specs = append(s.specs, spec)
	return nil
}

// Specs returns a copy of the ordered specs.
func (s *Set) Specs() []Spec {
	out := make([]Spec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Has reports whether id is defined.
func (s *Set) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Lookup returns the spec with the given id.
func (s *Set) Lookup(id string) (Spec, bool) {
	i, ok := s.index[id]
	if !ok {
		return Spec{}, false
	}
	return s.specs[i], true
}

// CheckMapping reports mapping targets that are not defined in the set.
func (s *Set) CheckMapping(mapping Mapping) error {
	for label, id := range mapping {
		if !s.Has(id) {
			return fmt.Errorf("speaker %q maps to undefined style %q", label, id)
		}
	}
	return nil
}
