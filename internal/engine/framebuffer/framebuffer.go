// Package framebuffer provides a CPU frame buffer that a renderer writes
// finished pixels into and the image generator reads from.
package framebuffer

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PixelFormat is the in-memory layout of one pixel.
type PixelFormat int

// Supported pixel layouts.
const (
	RGBA8 PixelFormat = iota
	BGRA8
	RGB8
	BGR8
	RGBAF32 // linear float accumulation buffer, 4 x float32 little-endian
)

// BytesPerPixel returns the pixel size in bytes, or 0 for an unknown format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case RGBA8, BGRA8:
		return 4
	case RGB8, BGR8:
		return 3
	case RGBAF32:
		return 16
	default:
		return 0
	}
}

func (f PixelFormat) String() string {
	switch f {
	case RGBA8:
		return "RGBA8"
	case BGRA8:
		return "BGRA8"
	case RGB8:
		return "RGB8"
	case BGR8:
		return "BGR8"
	case RGBAF32:
		return "RGBAF32"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// Framebuffer holds one frame of raw pixels, rows top to bottom.
type Framebuffer struct {
	pixels []byte
	width  int
	height int
	format PixelFormat
}

// New creates a new framebuffer with the specified dimensions.
// Zero dimensions are allowed so that renderers can size the buffer later.
func New(width, height int, format PixelFormat) (*Framebuffer, error) {
	if format.BytesPerPixel() == 0 {
		return nil, fmt.Errorf("creating framebuffer: unknown pixel format %v", format)
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("creating framebuffer: negative size %dx%d", width, height)
	}

	fb := &Framebuffer{format: format}
	if err := fb.Resize(width, height); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}
	return fb, nil
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (width, height int) {
	return fb.width, fb.height
}

// PixelFormat returns the pixel layout.
func (fb *Framebuffer) PixelFormat() PixelFormat {
	return fb.format
}

// Pixels returns the raw pixel bytes. The slice aliases the framebuffer.
func (fb *Framebuffer) Pixels() []byte {
	return fb.pixels
}

// Stride returns the number of bytes per row.
func (fb *Framebuffer) Stride() int {
	return fb.width * fb.format.BytesPerPixel()
}

// Resize updates the framebuffer dimensions if they have changed.
// Contents are cleared when the size changes. On error the buffer is left
// as it was.
func (fb *Framebuffer) Resize(width, height int) error {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if width == fb.width && height == fb.height && fb.pixels != nil {
		return nil
	}
	bpp := fb.format.BytesPerPixel()
	if height > 0 && width > math.MaxInt/bpp/height {
		return fmt.Errorf("size %dx%d too large", width, height)
	}

	fb.width = width
	fb.height = height

	n := width * height * bpp
	if cap(fb.pixels) >= n {
		fb.pixels = fb.pixels[:n]
		clear(fb.pixels)
		return nil
	}
	fb.pixels = make([]byte, n)
	return nil
}

// Clear fills every pixel with the given color. Components are in [0, 1].
func (fb *Framebuffer) Clear(r, g, b, a float32) {
	px := fb.encode(r, g, b, a)
	for off := 0; off+len(px) <= len(fb.pixels); off += len(px) {
		copy(fb.pixels[off:], px)
	}
}

// SetPixel writes one pixel. Out-of-bounds coordinates are ignored.
func (fb *Framebuffer) SetPixel(x, y int, r, g, b, a float32) {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return
	}
	off := y*fb.Stride() + x*fb.format.BytesPerPixel()
	copy(fb.pixels[off:], fb.encode(r, g, b, a))
}

// encode converts a color into the framebuffer's pixel layout.
func (fb *Framebuffer) encode(r, g, b, a float32) []byte {
	switch fb.format {
	case RGBA8:
		return []byte{unorm(r), unorm(g), unorm(b), unorm(a)}
	case BGRA8:
		return []byte{unorm(b), unorm(g), unorm(r), unorm(a)}
	case RGB8:
		return []byte{unorm(r), unorm(g), unorm(b)}
	case BGR8:
		return []byte{unorm(b), unorm(g), unorm(r)}
	case RGBAF32:
		px := make([]byte, 16)
		for i, c := range [4]float32{r, g, b, a} {
			binary.LittleEndian.PutUint32(px[i*4:], math.Float32bits(c))
		}
		return px
	default:
		return nil
	}
}

// unorm maps [0, 1] to a byte. NaN maps to 0.
func unorm(c float32) byte {
	if c != c || c <= 0 {
		return 0
	}
	if c >= 1 {
		return 255
	}
	return byte(c*255 + 0.5)
}

// Destroy releases the pixel storage.
func (fb *Framebuffer) Destroy() {
	fb.pixels = nil
	fb.width = 0
	fb.height = 0
}
