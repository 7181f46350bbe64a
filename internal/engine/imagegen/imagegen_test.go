package imagegen

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/lmittmann/ppm"
	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/prism/internal/engine/framebuffer"
	"github.com/Faultbox/prism/internal/errs"
)

func newGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	g, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func solidFrame(t *testing.T, w, h int, pf framebuffer.PixelFormat, r, g, b, a float32) *framebuffer.Framebuffer {
	t.Helper()
	fb, err := framebuffer.New(w, h, pf)
	if err != nil {
		t.Fatalf("framebuffer.New: %v", err)
	}
	fb.Clear(r, g, b, a)
	return fb
}

// rawFrame lets tests hand the generator inconsistent data.
type rawFrame struct {
	w, h   int
	format framebuffer.PixelFormat
	pixels []byte
}

func (f rawFrame) Size() (int, int)                     { return f.w, f.h }
func (f rawFrame) PixelFormat() framebuffer.PixelFormat { return f.format }
func (f rawFrame) Pixels() []byte                       { return f.pixels }

func TestLifecycle(t *testing.T) {
	g, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if g.State() != StateReady {
		t.Errorf("State() = %v, want ready", g.State())
	}

	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if g.State() != StateDestroyed {
		t.Errorf("State() = %v, want destroyed", g.State())
	}
	if err := g.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}

	fb := solidFrame(t, 8, 8, framebuffer.RGBA8, 1, 1, 1, 1)
	if _, err := g.CreateJPEG(fb, 80); !errors.Is(err, errs.ErrClosed) {
		t.Errorf("CreateJPEG after Close error = %v, want ErrClosed", err)
	}
	if _, err := g.CreateImage(fb, "png", 80); !errs.IsEncoding(err) {
		t.Errorf("CreateImage after Close error = %v, want EncodingError", err)
	}
}

func TestNewRejectsBadBufferHint(t *testing.T) {
	for _, hint := range []int{-1, MaxBufferHint + 1} {
		g, err := New(Options{BufferHint: hint})
		if !errs.IsResourceAcquisition(err) {
			t.Errorf("New(hint=%d) error = %v, want ResourceAcquisitionError", hint, err)
		}
		if g != nil {
			t.Errorf("New(hint=%d) returned a generator on failure", hint)
		}
	}
}

func TestCreateJPEGDeterministic(t *testing.T) {
	fb, err := framebuffer.New(32, 16, framebuffer.RGBA8)
	if err != nil {
		t.Fatalf("framebuffer.New: %v", err)
	}
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			fb.SetPixel(x, y, float32(x)/31, float32(y)/15, 0.5, 1)
		}
	}

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		g := newGenerator(t, Options{})
		j, err := g.CreateJPEG(fb, 75)
		if err != nil {
			t.Fatalf("CreateJPEG: %v", err)
		}
		outputs = append(outputs, bytes.Clone(j.Bytes()))
		j.Release()
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Error("CreateJPEG output differs between fresh generators")
	}
}

func TestCreateJPEGZeroSize(t *testing.T) {
	g := newGenerator(t, Options{})
	for _, size := range [][2]int{{0, 4}, {4, 0}, {0, 0}} {
		fb := solidFrame(t, size[0], size[1], framebuffer.RGBA8, 1, 0, 0, 1)
		j, err := g.CreateJPEG(fb, 80)
		if !errs.IsEncoding(err) {
			t.Errorf("CreateJPEG(%dx%d) error = %v, want EncodingError", size[0], size[1], err)
		}
		if j != nil {
			t.Errorf("CreateJPEG(%dx%d) returned a buffer on failure", size[0], size[1])
		}
	}
	if _, err := g.CreateJPEG(nil, 80); !errs.IsEncoding(err) {
		t.Errorf("CreateJPEG(nil) error = %v, want EncodingError", err)
	}
}

func TestCreateJPEGCompressesSolidColor(t *testing.T) {
	// A 4x4 frame cannot come out smaller than its 64 raw bytes: JPEG headers
	// and tables alone are a few hundred bytes. Compression is checked on
	// 64x64 instead, and 4x4 only has to produce a non-empty buffer.
	g := newGenerator(t, Options{})
	fb := solidFrame(t, 64, 64, framebuffer.RGBA8, 0.2, 0.4, 0.6, 1)

	j, err := g.CreateJPEG(fb, 80)
	if err != nil {
		t.Fatalf("CreateJPEG: %v", err)
	}
	defer j.Release()

	raw := 64 * 64 * 4
	if j.Size() == 0 || j.Size() >= raw {
		t.Errorf("Size() = %d, want in (0, %d)", j.Size(), raw)
	}
	if w, h := j.Dimensions(); w != 64 || h != 64 {
		t.Errorf("Dimensions() = %dx%d, want 64x64", w, h)
	}

	small, err := g.CreateJPEG(solidFrame(t, 4, 4, framebuffer.RGBA8, 0.2, 0.4, 0.6, 1), 80)
	if err != nil {
		t.Fatalf("CreateJPEG(4x4): %v", err)
	}
	defer small.Release()
	if small.Size() == 0 {
		t.Error("CreateJPEG(4x4) returned an empty buffer")
	}
}

func TestCreateJPEGPixelFormats(t *testing.T) {
	for _, pf := range []framebuffer.PixelFormat{framebuffer.RGBA8, framebuffer.BGRA8, framebuffer.RGB8, framebuffer.BGR8} {
		t.Run(pf.String(), func(t *testing.T) {
			g := newGenerator(t, Options{})
			fb := solidFrame(t, 16, 16, pf, 1, 0, 0, 1)

			j, err := g.CreateJPEG(fb, 90)
			if err != nil {
				t.Fatalf("CreateJPEG: %v", err)
			}
			defer j.Release()

			img, err := jpeg.Decode(bytes.NewReader(j.Bytes()))
			if err != nil {
				t.Fatalf("jpeg.Decode: %v", err)
			}
			r, gr, b, _ := img.At(8, 8).RGBA()
			if r>>8 < 200 || gr>>8 > 60 || b>>8 > 60 {
				t.Errorf("center pixel = (%d, %d, %d), want red", r>>8, gr>>8, b>>8)
			}
		})
	}
}

func TestUnsupportedPixelFormat(t *testing.T) {
	g := newGenerator(t, Options{})
	fb := solidFrame(t, 4, 4, framebuffer.RGBAF32, 1, 1, 1, 1)

	if _, err := g.CreateJPEG(fb, 80); !errs.IsUnsupportedFormat(err) {
		t.Errorf("CreateJPEG(RGBAF32) error = %v, want UnsupportedFormatError", err)
	}
	if _, err := g.CreateImage(fb, "png", 80); !errs.IsUnsupportedFormat(err) {
		t.Errorf("CreateImage(RGBAF32) error = %v, want UnsupportedFormatError", err)
	}
}

func TestPixelSizeMismatch(t *testing.T) {
	g := newGenerator(t, Options{})
	fb := rawFrame{w: 4, h: 4, format: framebuffer.RGBA8, pixels: make([]byte, 10)}
	if _, err := g.CreateJPEG(fb, 80); !errs.IsEncoding(err) {
		t.Errorf("CreateJPEG(short pixels) error = %v, want EncodingError", err)
	}
}

func TestHugeFrameDimensions(t *testing.T) {
	g := newGenerator(t, Options{})
	tests := []struct {
		name string
		w, h int
	}{
		{"wide", 1 << 62, 1},
		{"tall", 1, 1 << 62},
		{"wraps to zero", 1 << 32, 1 << 32},
		{"max int", math.MaxInt, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := rawFrame{w: tt.w, h: tt.h, format: framebuffer.RGBA8}
			if _, err := g.CreateJPEG(fb, 80); !errs.IsEncoding(err) {
				t.Errorf("CreateJPEG(%dx%d) error = %v, want EncodingError", tt.w, tt.h, err)
			}
			if _, err := g.CreateImage(fb, "png", 80); !errs.IsEncoding(err) {
				t.Errorf("CreateImage(png, %dx%d) error = %v, want EncodingError", tt.w, tt.h, err)
			}
		})
	}
	if got := g.Stats().JPEGEncodes; got != 0 {
		t.Errorf("JPEGEncodes = %d, want 0", got)
	}
}

func TestQualityRange(t *testing.T) {
	g := newGenerator(t, Options{})
	fb := solidFrame(t, 8, 8, framebuffer.RGB8, 0, 1, 0, 1)

	for _, q := range []int{-1, 101, 255} {
		if _, err := g.CreateJPEG(fb, q); !errs.IsValidation(err) {
			t.Errorf("CreateJPEG(quality=%d) error = %v, want ValidationError", q, err)
		}
		if _, err := g.CreateImage(fb, "png", q); !errs.IsValidation(err) {
			t.Errorf("CreateImage(quality=%d) error = %v, want ValidationError", q, err)
		}
	}
	for _, q := range []int{MinQuality, MaxQuality} {
		j, err := g.CreateJPEG(fb, q)
		if err != nil {
			t.Errorf("CreateJPEG(quality=%d): %v", q, err)
			continue
		}
		j.Release()
	}
}

func TestQualityAffectsSize(t *testing.T) {
	g := newGenerator(t, Options{})
	fb, err := framebuffer.New(64, 64, framebuffer.RGBA8)
	if err != nil {
		t.Fatalf("framebuffer.New: %v", err)
	}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			fb.SetPixel(x, y, float32((x*7+y*13)%64)/63, float32((x*x+y)%64)/63, float32(y)/63, 1)
		}
	}

	low, err := g.CreateJPEG(fb, 10)
	if err != nil {
		t.Fatalf("CreateJPEG(10): %v", err)
	}
	defer low.Release()
	high, err := g.CreateJPEG(fb, 95)
	if err != nil {
		t.Fatalf("CreateJPEG(95): %v", err)
	}
	defer high.Release()

	if low.Size() >= high.Size() {
		t.Errorf("quality 10 size %d >= quality 95 size %d", low.Size(), high.Size())
	}
}

func TestCreateImageUnsupportedFormatLeavesContext(t *testing.T) {
	g := newGenerator(t, Options{})
	fb := solidFrame(t, 8, 8, framebuffer.RGBA8, 0, 0, 1, 1)

	before := g.Stats()
	if _, err := g.CreateImage(fb, "gif", 80); !errs.IsUnsupportedFormat(err) {
		t.Fatalf("CreateImage(gif) error = %v, want UnsupportedFormatError", err)
	}
	if g.Stats() != before {
		t.Errorf("Stats() changed after unsupported format: %+v -> %+v", before, g.Stats())
	}
	if g.State() != StateReady {
		t.Errorf("State() = %v, want ready", g.State())
	}

	img, err := g.CreateImage(fb, "jpeg", 80)
	if err != nil {
		t.Fatalf("CreateImage(jpeg) after failure: %v", err)
	}
	if len(img.Data) == 0 {
		t.Error("expected non-empty image")
	}
}

func TestCreateImageFormats(t *testing.T) {
	g := newGenerator(t, Options{})
	fb := solidFrame(t, 6, 5, framebuffer.RGBA8, 1, 0.5, 0, 1)

	tests := []struct {
		format string
		name   string
		mime   string
		decode func([]byte) (image.Image, error)
	}{
		{"jpeg", "jpeg", "image/jpeg", func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) }},
		{"JPG", "jpeg", "image/jpeg", func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) }},
		{"png", "png", "image/png", func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) }},
		{" PNG ", "png", "image/png", func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) }},
		{"bmp", "bmp", "image/bmp", func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) }},
		{"tif", "tiff", "image/tiff", func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) }},
		{"qoi", "qoi", "image/qoi", func(b []byte) (image.Image, error) { return qoi.Decode(bytes.NewReader(b)) }},
		{"ppm", "ppm", "image/x-portable-pixmap", func(b []byte) (image.Image, error) { return ppm.Decode(bytes.NewReader(b)) }},
		{"TGA", "tga", "image/x-tga", decodeTGA},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			img, err := g.CreateImage(fb, tt.format, 80)
			if err != nil {
				t.Fatalf("CreateImage: %v", err)
			}
			if img.Format != tt.name {
				t.Errorf("Format = %q, want %q", img.Format, tt.name)
			}
			if img.MIMEType != tt.mime {
				t.Errorf("MIMEType = %q, want %q", img.MIMEType, tt.mime)
			}
			if img.Width != 6 || img.Height != 5 {
				t.Errorf("size = %dx%d, want 6x5", img.Width, img.Height)
			}

			decoded, err := tt.decode(img.Data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if b := decoded.Bounds(); b.Dx() != 6 || b.Dy() != 5 {
				t.Errorf("decoded bounds = %v, want 6x5", b)
			}
		})
	}
}

func TestCreateImageLosslessKeepsAlpha(t *testing.T) {
	g := newGenerator(t, Options{})
	fb := rawFrame{w: 1, h: 1, format: framebuffer.BGRA8, pixels: []byte{30, 20, 10, 128}}

	img, err := g.CreateImage(fb, "png", 100)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	got := color.NRGBAModel.Convert(decoded.At(0, 0)).(color.NRGBA)
	want := color.NRGBA{R: 10, G: 20, B: 30, A: 128}
	if got != want {
		t.Errorf("pixel = %+v, want %+v", got, want)
	}
}

func TestFlipY(t *testing.T) {
	fb := rawFrame{w: 1, h: 2, format: framebuffer.RGB8, pixels: []byte{
		255, 0, 0, // row 0: red
		0, 0, 255, // row 1: blue
	}}

	tests := []struct {
		flip bool
		top  color.NRGBA
	}{
		{false, color.NRGBA{R: 255, A: 255}},
		{true, color.NRGBA{B: 255, A: 255}},
	}
	for _, tt := range tests {
		g := newGenerator(t, Options{FlipY: tt.flip})
		img, err := g.CreateImage(fb, "png", 80)
		if err != nil {
			t.Fatalf("CreateImage: %v", err)
		}
		decoded, err := png.Decode(bytes.NewReader(img.Data))
		if err != nil {
			t.Fatalf("png.Decode: %v", err)
		}
		got := color.NRGBAModel.Convert(decoded.At(0, 0)).(color.NRGBA)
		if got != tt.top {
			t.Errorf("FlipY=%v top pixel = %+v, want %+v", tt.flip, got, tt.top)
		}
	}
}

func TestCompressionContextReused(t *testing.T) {
	g := newGenerator(t, Options{BufferHint: 4096})
	fb := solidFrame(t, 32, 32, framebuffer.RGBA8, 0.5, 0.5, 0.5, 1)

	for i := 0; i < 3; i++ {
		j, err := g.CreateJPEG(fb, 80)
		if err != nil {
			t.Fatalf("CreateJPEG: %v", err)
		}
		j.Release()
	}
	small := solidFrame(t, 16, 16, framebuffer.RGBA8, 0.5, 0.5, 0.5, 1)
	j, err := g.CreateJPEG(small, 80)
	if err != nil {
		t.Fatalf("CreateJPEG(small): %v", err)
	}
	j.Release()

	if got := g.Stats(); got != (Stats{JPEGEncodes: 4, ScratchAllocs: 1}) {
		t.Errorf("Stats() = %+v, want 4 encodes with 1 scratch allocation", got)
	}

	big := solidFrame(t, 64, 64, framebuffer.RGBA8, 0.5, 0.5, 0.5, 1)
	j, err = g.CreateJPEG(big, 80)
	if err != nil {
		t.Fatalf("CreateJPEG(big): %v", err)
	}
	j.Release()
	if got := g.Stats().ScratchAllocs; got != 2 {
		t.Errorf("ScratchAllocs = %d, want 2 after growing", got)
	}
}

func TestConcurrentCreateJPEG(t *testing.T) {
	g := newGenerator(t, Options{})
	fb := solidFrame(t, 24, 24, framebuffer.BGRA8, 0.1, 0.7, 0.3, 1)

	ref, err := g.CreateJPEG(fb, 70)
	if err != nil {
		t.Fatalf("CreateJPEG: %v", err)
	}
	want := bytes.Clone(ref.Bytes())
	ref.Release()

	var wg sync.WaitGroup
	errc := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 5; n++ {
				j, err := g.CreateJPEG(fb, 70)
				if err != nil {
					errc <- err
					return
				}
				if !bytes.Equal(j.Bytes(), want) {
					errc <- errors.New("concurrent encode produced different bytes")
					j.Release()
					return
				}
				j.Release()
			}
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		t.Error(err)
	}
}

func TestJPEGOwnership(t *testing.T) {
	g := newGenerator(t, Options{})
	a, err := g.CreateJPEG(solidFrame(t, 8, 8, framebuffer.RGBA8, 1, 0, 0, 1), 80)
	if err != nil {
		t.Fatalf("CreateJPEG: %v", err)
	}
	first := bytes.Clone(a.Bytes())

	b, err := g.CreateJPEG(solidFrame(t, 8, 8, framebuffer.RGBA8, 0, 0, 1, 1), 80)
	if err != nil {
		t.Fatalf("CreateJPEG: %v", err)
	}
	defer b.Release()

	// A later encode must not overwrite a buffer the caller still owns.
	if !bytes.Equal(a.Bytes(), first) {
		t.Error("first JPEG changed after second encode")
	}

	a.Release()
	if a.Size() != 0 || a.Bytes() != nil {
		t.Error("Release should drop the buffer")
	}
	a.Release()
}

func TestImageBase64(t *testing.T) {
	img := &Image{Format: "png", MIMEType: "image/png", Data: []byte("hello")}
	if got, want := img.Base64(), base64.StdEncoding.EncodeToString([]byte("hello")); got != want {
		t.Errorf("Base64() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(img.DataURI(), "data:image/png;base64,") {
		t.Errorf("DataURI() = %q, want data:image/png;base64 prefix", img.DataURI())
	}
}

func TestFormatLookup(t *testing.T) {
	want := []string{"bmp", "jpeg", "png", "ppm", "qoi", "tga", "tiff"}
	got := Formats()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
	if Extension("JPG") != ".jpg" {
		t.Errorf("Extension(JPG) = %q, want .jpg", Extension("JPG"))
	}
	if MIMEType("webp") != "" {
		t.Errorf("MIMEType(webp) = %q, want empty", MIMEType("webp"))
	}
	if _, err := NormalizeFormat(""); !errs.IsUnsupportedFormat(err) {
		t.Errorf("NormalizeFormat(\"\") error = %v, want UnsupportedFormatError", err)
	}
}
