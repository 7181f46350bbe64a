package imagegen

import (
	"image"
	"image/png"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/lmittmann/ppm"
	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/prism/internal/errs"
)

// FormatJPEG is the canonical name of the JPEG format.
const FormatJPEG = "jpeg"

// codec describes one output format of CreateImage.
type codec struct {
	mime   string
	ext    string
	encode func(w io.Writer, img image.Image, quality int) error
}

var pngEncoder = &png.Encoder{
	CompressionLevel: png.DefaultCompression,
	BufferPool:       &pngBufferPool{},
}

var codecs = map[string]codec{
	FormatJPEG: {mime: "image/jpeg", ext: ".jpg"},
	"png": {
		mime: "image/png",
		ext:  ".png",
		encode: func(w io.Writer, img image.Image, _ int) error {
			return pngEncoder.Encode(w, img)
		},
	},
	"bmp": {
		mime: "image/bmp",
		ext:  ".bmp",
		encode: func(w io.Writer, img image.Image, _ int) error {
			return bmp.Encode(w, img)
		},
	},
	"tiff": {
		mime: "image/tiff",
		ext:  ".tiff",
		encode: func(w io.Writer, img image.Image, _ int) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		},
	},
	"tga": {
		mime: "image/x-tga",
		ext:  ".tga",
		encode: func(w io.Writer, img image.Image, _ int) error {
			return encodeTGA(w, img)
		},
	},
	"qoi": {
		mime: "image/qoi",
		ext:  ".qoi",
		encode: func(w io.Writer, img image.Image, _ int) error {
			return qoi.Encode(w, img)
		},
	},
	"ppm": {
		mime: "image/x-portable-pixmap",
		ext:  ".ppm",
		encode: func(w io.Writer, img image.Image, _ int) error {
			return ppm.Encode(w, img)
		},
	},
}

var aliases = map[string]string{
	"jpg":  FormatJPEG,
	"tif":  "tiff",
	"tpic": "tga",
}

// NormalizeFormat returns the canonical name of a format selector, or an
// UnsupportedFormatError. Matching is case-insensitive.
func NormalizeFormat(format string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(format))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	if _, ok := codecs[name]; !ok {
		return "", errs.UnsupportedImageFormat(format)
	}
	return name, nil
}

// Formats returns the canonical names of all supported formats, sorted.
func Formats() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MIMEType returns the MIME type of a format, or "" if unknown.
func MIMEType(format string) string {
	name, err := NormalizeFormat(format)
	if err != nil {
		return ""
	}
	return codecs[name].mime
}

// Extension returns the file extension (with dot) of a format, or "" if unknown.
func Extension(format string) string {
	name, err := NormalizeFormat(format)
	if err != nil {
		return ""
	}
	return codecs[name].ext
}

// pngBufferPool shares zlib state between PNG encodes.
type pngBufferPool struct {
	pool sync.Pool
}

func (p *pngBufferPool) Get() *png.EncoderBuffer {
	b, _ := p.pool.Get().(*png.EncoderBuffer)
	return b
}

func (p *pngBufferPool) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}
