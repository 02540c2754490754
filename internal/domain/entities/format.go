package entities

import "fmt"

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
)

// EncodeOptions enumerates every tuning knob the codec recognizes. Zero values
// mean "codec default".
type EncodeOptions struct {
	Quality          int  `yaml:"quality" json:"quality,omitempty"`                   // 1-100
	CompressionLevel int  `yaml:"compressionLevel" json:"compressionLevel,omitempty"` // png zlib level 0-9
	Palette          bool `yaml:"palette" json:"palette,omitempty"`                   // png
	Effort           int  `yaml:"effort" json:"effort,omitempty"`                     // png, avif 0-10
	Optimize         bool `yaml:"optimize" json:"optimize,omitempty"`                 // jpeg
	Lossless         bool `yaml:"lossless" json:"lossless,omitempty"`                 // webp
	NearLossless     bool `yaml:"nearLossless" json:"nearLossless,omitempty"`         // webp
	Speed            int  `yaml:"speed" json:"speed,omitempty"`                       // avif 0-10
}

func (o EncodeOptions) Validate() error {
	if o.Quality < 0 || o.Quality > 100 {
		return fmt.Errorf("quality %d out of range 0-100", o.Quality)
	}
	if o.CompressionLevel < 0 || o.CompressionLevel > 9 {
		return fmt.Errorf("compressionLevel %d out of range 0-9", o.CompressionLevel)
	}
	if o.Effort < 0 || o.Effort > 10 {
		return fmt.Errorf("effort %d out of range 0-10", o.Effort)
	}
	if o.Speed < 0 || o.Speed > 10 {
		return fmt.Errorf("speed %d out of range 0-10", o.Speed)
	}
	return nil
}

// FormatSpec is the catalog entry for one output format.
type FormatSpec struct {
	ID        Format        `json:"id"`
	Options   EncodeOptions `json:"options"`
	MimeType  string        `json:"mimeType"`
	Extension string        `json:"extension"`
}

// ImageInfo describes an encoded image. It is flattened into the JSON of
// every produced OutputRecord.
type ImageInfo struct {
	Format        string `json:"format"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Channels      int    `json:"channels"`
	Size          int64  `json:"size"`
	Premultiplied bool   `json:"premultiplied"`
}

func (i ImageInfo) Map() map[string]any {
	return map[string]any{
		"format":        i.Format,
		"width":         i.Width,
		"height":        i.Height,
		"channels":      i.Channels,
		"size":          i.Size,
		"premultiplied": i.Premultiplied,
	}
}

// EncodeResult is the immutable outcome of one successful encode.
type EncodeResult struct {
	Format Format
	Data   []byte
	Info   ImageInfo
}
