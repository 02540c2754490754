// Package codec adapts the image libraries used by the optimizer to the
// repositories.Codec interface. Inputs are decoded through the image format
// registry (jpeg, png, gif, bmp, tiff, webp, avif); outputs are produced by
// imaging (png, jpeg), chai2010/webp and gen2brain/avif.
package codec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"image-optimizer/internal/domain/entities"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/gen2brain/avif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Codec defaults, matching what the encoders use when a knob is left unset.
const (
	DefaultJPEGQuality = 80
	DefaultWebPQuality = 80
	DefaultAVIFQuality = 50
	DefaultAVIFEffort  = 4
	maxPaletteColors   = 256
)

type ImageCodec struct{}

func New() *ImageCodec {
	return &ImageCodec{}
}

// Decode decodes data once, applying any EXIF orientation.
func (c *ImageCodec) Decode(ctx context.Context, data []byte) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Encode encodes img into spec's format. img is only read.
func (c *ImageCodec) Encode(ctx context.Context, img image.Image, spec entities.FormatSpec) ([]byte, entities.ImageInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.ImageInfo{}, err
	}

	var (
		buf      bytes.Buffer
		err      error
		channels = channelCount(img)
		opts     = spec.Options
	)

	switch spec.ID {
	case entities.FormatPNG:
		err = encodePNG(&buf, img, opts)
	case entities.FormatJPEG:
		err = encodeJPEG(&buf, img, opts)
		channels = 3
	case entities.FormatWebP:
		err = encodeWebP(&buf, img, opts)
	case entities.FormatAVIF:
		err = encodeAVIF(&buf, img, opts)
	default:
		err = fmt.Errorf("codec has no encoder for %q", spec.ID)
	}
	if err != nil {
		return nil, entities.ImageInfo{}, err
	}

	bounds := img.Bounds()
	info := entities.ImageInfo{
		Format:   string(spec.ID),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: channels,
		Size:     int64(buf.Len()),
	}
	return buf.Bytes(), info, nil
}

func encodePNG(buf *bytes.Buffer, img image.Image, opts entities.EncodeOptions) error {
	src := img
	if opts.Palette {
		src = quantizeImage(img, paletteSize(opts.Quality), opts.Effort)
	}
	return imaging.Encode(buf, src, imaging.PNG, imaging.PNGCompressionLevel(pngLevel(opts.CompressionLevel)))
}

func encodeJPEG(buf *bytes.Buffer, img image.Image, opts entities.EncodeOptions) error {
	quality := opts.Quality
	if quality == 0 {
		quality = DefaultJPEGQuality
	}
	src := img
	if opts.Optimize && !isOpaque(img) {
		// jpeg has no alpha; composite over white instead of letting
		// transparent pixels turn black
		src = flatten(img, color.White)
	}
	return imaging.Encode(buf, src, imaging.JPEG, imaging.JPEGQuality(quality))
}

func encodeWebP(buf *bytes.Buffer, img image.Image, opts entities.EncodeOptions) error {
	quality := opts.Quality
	if quality == 0 {
		quality = DefaultWebPQuality
	}
	return webp.Encode(buf, img, &webp.Options{
		Lossless: opts.Lossless || opts.NearLossless,
		Quality:  float32(quality),
		Exact:    opts.NearLossless,
	})
}

func encodeAVIF(buf *bytes.Buffer, img image.Image, opts entities.EncodeOptions) error {
	quality := opts.Quality
	if quality == 0 {
		quality = DefaultAVIFQuality
	}
	effort := opts.Effort
	if effort == 0 {
		effort = DefaultAVIFEffort
	}
	speed := opts.Speed
	if speed == 0 {
		speed = 10 - effort
	}
	return avif.Encode(buf, img, avif.Options{
		Quality:           quality,
		QualityAlpha:      quality,
		Speed:             speed,
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
	})
}

// paletteSize scales the palette with quality: 100 keeps all 256 entries.
func paletteSize(quality int) int {
	if quality <= 0 || quality >= 100 {
		return maxPaletteColors
	}
	n := maxPaletteColors * quality / 100
	if n < 2 {
		n = 2
	}
	return n
}

// quantizeImage builds a median-cut palette of at most colors entries and
// maps img onto it. Higher effort enables Floyd-Steinberg dithering.
func quantizeImage(img image.Image, colors, effort int) *image.Paletted {
	q := quantize.MedianCutQuantizer{}
	palette := q.Quantize(make(color.Palette, 0, colors), img)

	bounds := img.Bounds()
	dst := image.NewPaletted(bounds, palette)
	var drawer draw.Drawer = draw.Src
	if effort >= 5 {
		drawer = draw.FloydSteinberg
	}
	drawer.Draw(dst, bounds, img, bounds.Min)
	return dst
}

func pngLevel(level int) png.CompressionLevel {
	switch {
	case level == 0:
		return png.DefaultCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

func flatten(img image.Image, bg color.Color) *image.NRGBA {
	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func channelCount(img image.Image) int {
	if isOpaque(img) {
		return 3
	}
	return 4
}
