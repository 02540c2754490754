package catalog

import (
	"testing"

	"image-optimizer/internal/domain/entities"
	perrors "image-optimizer/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Defaults(t *testing.T) {
	c := Default()

	tests := []struct {
		id   string
		mime string
		ext  string
	}{
		{"png", "image/png", "png"},
		{"jpeg", "image/jpeg", "jpg"},
		{"webp", "image/webp", "webp"},
		{"avif", "image/avif", "avif"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			spec, err := c.Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, entities.Format(tt.id), spec.ID)
			assert.Equal(t, tt.mime, spec.MimeType)
			assert.Equal(t, tt.ext, spec.Extension)
		})
	}
}

func TestLookup_TuningDefaults(t *testing.T) {
	c := Default()

	png, _ := c.Lookup("png")
	assert.Equal(t, entities.EncodeOptions{CompressionLevel: 8, Palette: true, Effort: 8, Quality: 90}, png.Options)

	jpeg, _ := c.Lookup("jpeg")
	assert.True(t, jpeg.Options.Optimize)
	assert.Zero(t, jpeg.Options.Quality)

	webp, _ := c.Lookup("webp")
	assert.Equal(t, entities.EncodeOptions{}, webp.Options)

	avif, _ := c.Lookup("avif")
	assert.Equal(t, entities.EncodeOptions{}, avif.Options)
}

func TestLookup_Unsupported(t *testing.T) {
	_, err := Default().Lookup("bmp")
	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.UnsupportedFormat)
	assert.Contains(t, err.Error(), "bmp")
}

func TestNew_Overrides(t *testing.T) {
	q := 75
	off := false
	c, err := New(map[string]Overrides{
		"webp": {Quality: &q},
		"PNG":  {Palette: &off},
	})
	require.NoError(t, err)

	webp, _ := c.Lookup("webp")
	assert.Equal(t, 75, webp.Options.Quality)

	png, _ := c.Lookup("png")
	assert.False(t, png.Options.Palette)
	assert.Equal(t, 8, png.Options.CompressionLevel, "untouched fields keep defaults")

	// the default catalog is not affected
	def, _ := Default().Lookup("png")
	assert.True(t, def.Options.Palette)
}

func TestNew_RejectsBadOverrides(t *testing.T) {
	bad := 120
	_, err := New(map[string]Overrides{"jpeg": {Quality: &bad}})
	assert.Error(t, err)

	_, err = New(map[string]Overrides{"gif": {}})
	assert.ErrorIs(t, err, perrors.UnsupportedFormat)
}

func TestSpecs_CanonicalOrder(t *testing.T) {
	var ids []entities.Format
	for _, s := range Default().Specs() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []entities.Format{"png", "jpeg", "webp", "avif"}, ids)
}

func TestParseFormats(t *testing.T) {
	assert.Equal(t, []string{"png", "jpeg", "png"}, ParseFormats(" png, JPEG ,,png"))
	assert.Nil(t, ParseFormats(""))
}
