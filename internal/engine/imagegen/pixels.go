package imagegen

import (
	"image"
	"math"

	"github.com/Faultbox/prism/internal/engine/framebuffer"
	"github.com/Faultbox/prism/internal/errs"
)

// FrameBuffer is the read-only pixel source an encode call consumes. The
// caller guarantees nothing writes to Pixels() while the call runs.
type FrameBuffer interface {
	Size() (width, height int)
	PixelFormat() framebuffer.PixelFormat
	Pixels() []byte
}

// layout maps a frame buffer pixel format onto the codec's RGBA input:
// byte offsets of each channel within one pixel. a < 0 means opaque.
type layout struct {
	r, g, b, a int
	bpp        int
}

func layoutFor(pf framebuffer.PixelFormat) (layout, error) {
	switch pf {
	case framebuffer.RGBA8:
		return layout{r: 0, g: 1, b: 2, a: 3, bpp: 4}, nil
	case framebuffer.BGRA8:
		return layout{r: 2, g: 1, b: 0, a: 3, bpp: 4}, nil
	case framebuffer.RGB8:
		return layout{r: 0, g: 1, b: 2, a: -1, bpp: 3}, nil
	case framebuffer.BGR8:
		return layout{r: 2, g: 1, b: 0, a: -1, bpp: 3}, nil
	default:
		return layout{}, errs.UnsupportedPixelFormat(pf.String())
	}
}

// frame is a validated view of a FrameBuffer.
type frame struct {
	width, height int
	layout        layout
	pixels        []byte
}

func checkFrame(op string, fb FrameBuffer) (frame, error) {
	if fb == nil {
		return frame{}, errs.Encodingf(op, "nil frame buffer")
	}
	w, h := fb.Size()
	if w <= 0 || h <= 0 {
		return frame{}, errs.Encodingf(op, "frame buffer is %dx%d", w, h)
	}
	lay, err := layoutFor(fb.PixelFormat())
	if err != nil {
		return frame{}, err
	}
	// 4 bytes covers every source layout and the RGBA copy the codecs read.
	if w > math.MaxInt/4/h {
		return frame{}, errs.Encodingf(op, "frame buffer %dx%d too large", w, h)
	}
	pix := fb.Pixels()
	if want := w * h * lay.bpp; len(pix) != want {
		return frame{}, errs.Encodingf(op, "pixel data size mismatch: expected %d, got %d", want, len(pix))
	}
	return frame{width: w, height: h, layout: lay, pixels: pix}, nil
}

// copyInto writes the frame into a 4-channel destination (image.RGBA or
// image.NRGBA pixel storage). With opaque set the alpha channel is forced to
// 255. With flipY rows are copied bottom-up, for renderers whose origin is
// the bottom-left corner.
func (f frame) copyInto(dst []byte, dstStride int, flipY, opaque bool) {
	lay := f.layout
	srcStride := f.width * lay.bpp
	fast := lay == layout{r: 0, g: 1, b: 2, a: 3, bpp: 4} && !opaque

	for y := 0; y < f.height; y++ {
		srcY := y
		if flipY {
			srcY = f.height - 1 - y
		}
		src := f.pixels[srcY*srcStride : (srcY+1)*srcStride]
		row := dst[y*dstStride : y*dstStride+f.width*4]

		if fast {
			copy(row, src)
			continue
		}
		for x := 0; x < f.width; x++ {
			s := src[x*lay.bpp : (x+1)*lay.bpp]
			d := row[x*4 : x*4+4]
			d[0] = s[lay.r]
			d[1] = s[lay.g]
			d[2] = s[lay.b]
			if lay.a < 0 || opaque {
				d[3] = 0xff
			} else {
				d[3] = s[lay.a]
			}
		}
	}
}

// toNRGBA copies the frame into a freshly allocated straight-alpha image.
func (f frame) toNRGBA(flipY bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.width, f.height))
	f.copyInto(img.Pix, img.Stride, flipY, false)
	return img
}
