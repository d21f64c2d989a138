package config

import (
	"fmt"
	"sort"

	"tunely/internal/styles"
)

// StyleSet builds the style set used for subtitles: the built-in styles with
// any [styles.<id>] overrides applied, plus new styles those sections define.
func (c *Config) StyleSet() (*styles.Set, error) {
	specs := styles.DefaultSpecs()
	index := make(map[string]int, len(specs))
	for i, spec := range specs {
		index[spec.ID] = i
	}

	ids := make([]string, 0, len(c.Styles))
	for id := range c.Styles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		override := c.Styles[id]
		base := styles.DefaultSpec()
		pos, known := index[id]
		if known {
			base = specs[pos]
		}
		base.ID = id
		spec, err := override.apply(base)
		if err != nil {
			return nil, fmt.Errorf("styles.%s: %w", id, err)
		}
		if known {
			specs[pos] = spec
		} else {
			index[id] = len(specs)
			specs = append(specs, spec)
		}
	}
	return styles.NewSet(specs)
}

// SpeakerMapping returns the diarizer label to style mapping.
func (c *Config) SpeakerMapping() styles.Mapping {
	mapping := make(styles.Mapping, len(c.Speakers))
	for label, id := range c.Speakers {
		mapping[label] = id
	}
	return mapping
}

func (s Style) apply(base styles.Spec) (styles.Spec, error) {
	if s.Font != "" {
		base.Font = s.Font
	}
	if s.Size != 0 {
		base.Size = s.Size
	}
	if s.Bold != nil {
		base.Bold = *s.Bold
	}
	for _, field := range []struct {
		name  string
		value string
		dst   *styles.Color
	}{
		{"primary_color", s.PrimaryColor, &base.PrimaryColor},
		{"secondary_color", s.SecondaryColor, &base.SecondaryColor},
		{"outline_color", s.OutlineColor, &base.OutlineColor},
		{"back_color", s.BackColor, &base.BackColor},
	} {
		if field.value == "" {
			continue
		}
		color, err := styles.ParseColor(field.value)
		if err != nil {
			return styles.Spec{}, fmt.Errorf("%s: %w", field.name, err)
		}
		*field.dst = color
	}
	if s.Outline != nil {
		base.Outline = *s.Outline
	}
	if s.Shadow != nil {
		base.Shadow = *s.Shadow
	}
	if s.Alignment != 0 {
		base.Alignment = s.Alignment
	}
	if s.MarginL != nil {
		base.MarginL = *s.MarginL
	}
	if s.MarginR != nil {
		base.MarginR = *s.MarginR
	}
	if s.MarginV != nil {
		base.MarginV = *s.MarginV
	}
	if err := base.Validate(); err != nil {
		return styles.Spec{}, err
	}
	return base, nil
}
