package imagegen

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// MaxBufferHint bounds Options.BufferHint.
const MaxBufferHint = 256 << 20

const writerSize = 64 << 10

// compressor is the persistent JPEG compression context: scratch image,
// output buffer and the buffered writer the codec flushes through. It is
// reused across frames and is not safe for concurrent use.
type compressor struct {
	out     bytes.Buffer
	w       *bufio.Writer
	scratch *image.RGBA

	encodes       int
	scratchAllocs int
}

func acquireCompressor(bufferHint int) (*compressor, error) {
	if bufferHint < 0 || bufferHint > MaxBufferHint {
		return nil, fmt.Errorf("buffer hint %d outside [0, %d]", bufferHint, MaxBufferHint)
	}
	c := &compressor{}
	c.out.Grow(bufferHint)
	c.w = bufio.NewWriterSize(&c.out, writerSize)
	return c, nil
}

// compress encodes f as baseline JPEG. The returned slice aliases the
// compressor's output buffer and is only valid until the next call.
func (c *compressor) compress(f frame, quality int, flipY bool) ([]byte, error) {
	img := c.scratchFor(f.width, f.height)
	// JPEG has no alpha channel; forcing opaque keeps the codec on its
	// *image.RGBA fast path without premultiplying.
	f.copyInto(img.Pix, img.Stride, flipY, true)

	c.out.Reset()
	c.w.Reset(&c.out)
	if err := jpeg.Encode(c.w, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	if err := c.w.Flush(); err != nil {
		return nil, err
	}
	if c.out.Len() == 0 {
		return nil, fmt.Errorf("codec produced no output")
	}
	c.encodes++
	return c.out.Bytes(), nil
}

// scratchFor returns a scratch image of exactly w x h, reusing the backing
// array when it is large enough.
func (c *compressor) scratchFor(w, h int) *image.RGBA {
	if c.scratch != nil {
		b := c.scratch.Bounds()
		if b.Dx() == w && b.Dy() == h {
			return c.scratch
		}
		if n := w * h * 4; cap(c.scratch.Pix) >= n {
			c.scratch = &image.RGBA{
				Pix:    c.scratch.Pix[:n],
				Stride: w * 4,
				Rect:   image.Rect(0, 0, w, h),
			}
			return c.scratch
		}
	}
	c.scratch = image.NewRGBA(image.Rect(0, 0, w, h))
	c.scratchAllocs++
	return c.scratch
}

func (c *compressor) release() {
	c.out = bytes.Buffer{}
	c.w = nil
	c.scratch = nil
}
