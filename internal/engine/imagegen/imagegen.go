// Package imagegen turns rendered frame buffers into images ready for
// delivery to a remote client.
//
// A Generator owns one JPEG compression context for its whole lifetime. The
// context is acquired by New, reused by every CreateJPEG call, and released
// exactly once by Close. JPEG encodes through one Generator are serialized
// by an internal mutex; callers that need parallel JPEG encoding should use
// one Generator per goroutine.
package imagegen

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/errs"
	"github.com/Faultbox/prism/internal/logger"
)

// Quality bounds. Out-of-range values are rejected, not clamped.
const (
	MinQuality = 0
	MaxQuality = 100
)

// State is the lifecycle state of a Generator.
type State int

// Generator states.
const (
	StateUninitialized State = iota
	StateReady
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Generator.
type Options struct {
	// BufferHint pre-sizes the compressor output buffer, in bytes.
	BufferHint int
	// FlipY copies rows bottom-up, for renderers with a bottom-left origin.
	FlipY bool
}

// Stats reports how the compression context has been used.
type Stats struct {
	JPEGEncodes   int
	ScratchAllocs int
}

// Generator encodes frame buffers into images.
type Generator struct {
	mu    sync.Mutex
	state State
	comp  *compressor
	opts  Options
	log   *zap.Logger
}

// New creates a Generator and acquires its compression context. On failure
// it returns a ResourceAcquisitionError and no Generator.
func New(opts Options) (*Generator, error) {
	comp, err := acquireCompressor(opts.BufferHint)
	if err != nil {
		return nil, &errs.ResourceAcquisitionError{Resource: "jpeg compressor", Err: err}
	}

	g := &Generator{
		state: StateReady,
		comp:  comp,
		opts:  opts,
		log:   logger.Named("imagegen"),
	}
	g.log.Debug("compression context acquired",
		zap.Int("buffer_hint", opts.BufferHint),
		zap.Bool("flip_y", opts.FlipY))
	return g, nil
}

// State returns the current lifecycle state.
func (g *Generator) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Stats returns compression context usage counters.
func (g *Generator) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.comp == nil {
		return Stats{}
	}
	return Stats{JPEGEncodes: g.comp.encodes, ScratchAllocs: g.comp.scratchAllocs}
}

// Close releases the compression context. It is safe to call more than once.
func (g *Generator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateReady {
		return nil
	}
	g.comp.release()
	g.comp = nil
	g.state = StateDestroyed
	g.log.Debug("compression context released")
	return nil
}

// CreateJPEG compresses fb at the given quality using the shared context.
// Ownership of the returned buffer passes to the caller.
func (g *Generator) CreateJPEG(fb FrameBuffer, quality int) (*JPEG, error) {
	if err := checkQuality(quality); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateReady {
		return nil, errs.ErrClosed
	}

	f, err := checkFrame("create jpeg", fb)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := g.comp.compress(f, quality, g.opts.FlipY)
	if err != nil {
		return nil, errs.Encoding("create jpeg", err)
	}

	j := newJPEG(data, f.width, f.height)
	g.log.Debug("encoded jpeg",
		zap.Int("width", f.width),
		zap.Int("height", f.height),
		zap.Int("quality", quality),
		zap.Int("bytes", j.Size()),
		zap.Duration("took", time.Since(start)))
	return j, nil
}

// CreateImage encodes fb in the named format. JPEG goes through CreateJPEG;
// other formats do not touch the compression context.
func (g *Generator) CreateImage(fb FrameBuffer, format string, quality int) (*Image, error) {
	name, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	if err := checkQuality(quality); err != nil {
		return nil, err
	}

	if name == FormatJPEG {
		j, err := g.CreateJPEG(fb, quality)
		if err != nil {
			return nil, err
		}
		img := &Image{
			Format:   name,
			MIMEType: codecs[name].mime,
			Width:    j.width,
			Height:   j.height,
			Data:     j.take(),
		}
		return img, nil
	}

	if g.State() != StateReady {
		return nil, errs.ErrClosed
	}

	op := "create " + name
	f, err := checkFrame(op, fb)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := codecs[name].encode(&buf, f.toNRGBA(g.opts.FlipY), quality); err != nil {
		return nil, errs.Encoding(op, err)
	}
	if buf.Len() == 0 {
		return nil, errs.Encodingf(op, "codec produced no output")
	}

	g.log.Debug("encoded image",
		zap.String("format", name),
		zap.Int("width", f.width),
		zap.Int("height", f.height),
		zap.Int("bytes", buf.Len()))

	return &Image{
		Format:   name,
		MIMEType: codecs[name].mime,
		Width:    f.width,
		Height:   f.height,
		Data:     buf.Bytes(),
	}, nil
}

func checkQuality(quality int) error {
	if quality < MinQuality || quality > MaxQuality {
		return errs.Validation("quality", "%d outside [%d, %d]", quality, MinQuality, MaxQuality)
	}
	return nil
}

// Image is an encoded image for inline delivery. Transport framing is left
// to the caller.
type Image struct {
	Format   string
	MIMEType string
	Width    int
	Height   int
	Data     []byte
}

// Base64 returns the payload in standard base64.
func (img *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// DataURI returns the payload as a data: URI.
func (img *Image) DataURI() string {
	return "data:" + img.MIMEType + ";base64," + img.Base64()
}

var jpegPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, writerSize)
		return &b
	},
}

// JPEG is a compressed frame owned by the caller. Call Release when done so
// the buffer can be reused.
type JPEG struct {
	data   []byte
	width  int
	height int
}

func newJPEG(src []byte, width, height int) *JPEG {
	bp := jpegPool.Get().(*[]byte)
	data := append((*bp)[:0], src...)
	return &JPEG{data: data, width: width, height: height}
}

// Bytes returns the compressed data. It is invalid after Release.
func (j *JPEG) Bytes() []byte {
	return j.data
}

// Size returns the compressed length in bytes.
func (j *JPEG) Size() int {
	return len(j.data)
}

// Dimensions returns the encoded image size.
func (j *JPEG) Dimensions() (width, height int) {
	return j.width, j.height
}

// Release returns the buffer to the pool. Safe to call more than once.
func (j *JPEG) Release() {
	if j.data == nil {
		return
	}
	b := j.data[:0]
	j.data = nil
	jpegPool.Put(&b)
}

// take hands the buffer to a new owner without returning it to the pool.
func (j *JPEG) take() []byte {
	data := j.data
	j.data = nil
	return data
}
