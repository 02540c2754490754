package codec

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"image-optimizer/internal/infrastructure/catalog"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int, alpha bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if alpha && x < w/4 {
				a = 0
			}
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: a})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncode_FormatFidelity(t *testing.T) {
	ctx := context.Background()
	c := New()
	img, err := c.Decode(ctx, pngBytes(t, gradient(32, 24, true)))
	require.NoError(t, err)

	for _, spec := range catalog.Default().Specs() {
		t.Run(string(spec.ID), func(t *testing.T) {
			data, info, err := c.Encode(ctx, img, spec)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			assert.True(t, mimetype.Detect(data).Is(spec.MimeType),
				"got %s, want %s", mimetype.Detect(data).String(), spec.MimeType)
			assert.Equal(t, string(spec.ID), info.Format)
			assert.Equal(t, 32, info.Width)
			assert.Equal(t, 24, info.Height)
			assert.Equal(t, int64(len(data)), info.Size)
		})
	}
}

func TestEncode_DoesNotMutateSharedImage(t *testing.T) {
	ctx := context.Background()
	c := New()
	img, err := c.Decode(ctx, pngBytes(t, gradient(16, 16, true)))
	require.NoError(t, err)

	before := pngBytes(t, img)

	var wg sync.WaitGroup
	for _, spec := range catalog.Default().Specs() {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := c.Encode(ctx, img, spec)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, before, pngBytes(t, img))
}

func TestEncode_JPEGFlattensTransparencyOnWhite(t *testing.T) {
	ctx := context.Background()
	c := New()
	spec, err := catalog.Default().Lookup("jpeg")
	require.NoError(t, err)

	data, info, err := c.Encode(ctx, gradient(32, 32, true), spec)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Channels)

	out, err := c.Decode(ctx, data)
	require.NoError(t, err)
	r, g, b, _ := out.At(1, 16).RGBA()
	assert.Greater(t, r>>8, uint32(200))
	assert.Greater(t, g>>8, uint32(200))
	assert.Greater(t, b>>8, uint32(200))
}

func TestEncode_PalettePNGIsPaletted(t *testing.T) {
	ctx := context.Background()
	c := New()
	spec, err := catalog.Default().Lookup("png")
	require.NoError(t, err)

	data, _, err := c.Encode(ctx, gradient(64, 64, false), spec)
	require.NoError(t, err)

	out, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	p, ok := out.(*image.Paletted)
	require.True(t, ok, "palette mode should produce an indexed png, got %T", out)
	assert.LessOrEqual(t, len(p.Palette), paletteSize(spec.Options.Quality))
}

func TestDecode_Errors(t *testing.T) {
	c := New()
	_, err := c.Decode(context.Background(), nil)
	assert.Error(t, err)

	_, err = c.Decode(context.Background(), []byte("definitely not an image"))
	assert.Error(t, err)
}

func TestDecode_HonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Decode(ctx, []byte{1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPaletteSize(t *testing.T) {
	assert.Equal(t, 256, paletteSize(0))
	assert.Equal(t, 256, paletteSize(100))
	assert.Equal(t, 230, paletteSize(90))
	assert.Equal(t, 2, paletteSize(0+1))
}
