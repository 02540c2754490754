// Package catalog holds the static table of output formats and their encode
// settings. A Catalog is built once at start-up and never changes afterwards.
package catalog

import (
	"fmt"
	"strings"

	"image-optimizer/internal/domain/entities"
	perrors "image-optimizer/pkg/errors"
)

// order is the canonical listing order of the supported formats.
var order = []entities.Format{
	entities.FormatPNG,
	entities.FormatJPEG,
	entities.FormatWebP,
	entities.FormatAVIF,
}

func defaults() map[entities.Format]entities.FormatSpec {
	return map[entities.Format]entities.FormatSpec{
		// quality is honored in palette mode, where it bounds the palette size
		entities.FormatPNG: {
			ID:        entities.FormatPNG,
			Options:   entities.EncodeOptions{CompressionLevel: 8, Palette: true, Effort: 8, Quality: 90},
			MimeType:  "image/png",
			Extension: "png",
		},
		entities.FormatJPEG: {
			ID:        entities.FormatJPEG,
			Options:   entities.EncodeOptions{Optimize: true},
			MimeType:  "image/jpeg",
			Extension: "jpg",
		},
		entities.FormatWebP: {
			ID:        entities.FormatWebP,
			MimeType:  "image/webp",
			Extension: "webp",
		},
		entities.FormatAVIF: {
			ID:        entities.FormatAVIF,
			MimeType:  "image/avif",
			Extension: "avif",
		},
	}
}

// Overrides replaces individual encode options of one format. Nil fields keep
// the built-in default.
type Overrides struct {
	Quality          *int  `yaml:"quality"`
	CompressionLevel *int  `yaml:"compressionLevel"`
	Palette          *bool `yaml:"palette"`
	Effort           *int  `yaml:"effort"`
	Optimize         *bool `yaml:"optimize"`
	Lossless         *bool `yaml:"lossless"`
	NearLossless     *bool `yaml:"nearLossless"`
	Speed            *int  `yaml:"speed"`
}

func (o Overrides) apply(opts entities.EncodeOptions) entities.EncodeOptions {
	if o.Quality != nil {
		opts.Quality = *o.Quality
	}
	if o.CompressionLevel != nil {
		opts.CompressionLevel = *o.CompressionLevel
	}
	if o.Palette != nil {
		opts.Palette = *o.Palette
	}
	if o.Effort != nil {
		opts.Effort = *o.Effort
	}
	if o.Optimize != nil {
		opts.Optimize = *o.Optimize
	}
	if o.Lossless != nil {
		opts.Lossless = *o.Lossless
	}
	if o.NearLossless != nil {
		opts.NearLossless = *o.NearLossless
	}
	if o.Speed != nil {
		opts.Speed = *o.Speed
	}
	return opts
}

type Catalog struct {
	specs map[entities.Format]entities.FormatSpec
}

// Default returns the catalog with the built-in settings only.
func Default() *Catalog {
	return &Catalog{specs: defaults()}
}

// New builds a catalog from the built-in settings plus per-format overrides.
// Overrides for unknown formats or out-of-range values are rejected.
func New(overrides map[string]Overrides) (*Catalog, error) {
	specs := defaults()
	for id, o := range overrides {
		format := entities.Format(normalize(id))
		spec, ok := specs[format]
		if !ok {
			return nil, fmt.Errorf("catalog override: %w", perrors.ErrUnsupportedFormat(id))
		}
		spec.Options = o.apply(spec.Options)
		if err := spec.Options.Validate(); err != nil {
			return nil, fmt.Errorf("catalog override for %s: %w", format, err)
		}
		specs[format] = spec
	}
	return &Catalog{specs: specs}, nil
}

// Lookup returns the spec registered for id.
func (c *Catalog) Lookup(id string) (entities.FormatSpec, error) {
	spec, ok := c.specs[entities.Format(normalize(id))]
	if !ok {
		return entities.FormatSpec{}, perrors.ErrUnsupportedFormat(id)
	}
	return spec, nil
}

// Specs lists every entry in canonical order.
func (c *Catalog) Specs() []entities.FormatSpec {
	out := make([]entities.FormatSpec, 0, len(order))
	for _, f := range order {
		out = append(out, c.specs[f])
	}
	return out
}

// ParseFormats splits a comma separated format list. Order and duplicates are
// preserved; ids are not validated here.
func ParseFormats(s string) []string {
	var formats []string
	for _, part := range strings.Split(s, ",") {
		if p := normalize(part); p != "" {
			formats = append(formats, p)
		}
	}
	return formats
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
