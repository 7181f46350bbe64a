// Package snapshot writes encoded frames to timestamped files.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Faultbox/prism/internal/engine/imagegen"
)

// Encoder turns a frame buffer into an image. *imagegen.Generator satisfies it.
type Encoder interface {
	CreateImage(fb imagegen.FrameBuffer, format string, quality int) (*imagegen.Image, error)
}

// Capture writes frames through an Encoder into an output directory.
type Capture struct {
	enc       Encoder
	outputDir string
	prefix    string
	format    string
	quality   int
	now       func() time.Time
}

// New creates a capture handler. format and quality are passed to the encoder
// unchanged.
func New(enc Encoder, outputDir, prefix, format string, quality int) *Capture {
	return &Capture{
		enc:       enc,
		outputDir: outputDir,
		prefix:    prefix,
		format:    format,
		quality:   quality,
		now:       time.Now,
	}
}

// SetOutputDir sets the output directory for snapshots.
func (c *Capture) SetOutputDir(dir string) {
	c.outputDir = dir
}

// CaptureFrame encodes fb and writes it to a new file. It returns the path.
func (c *Capture) CaptureFrame(fb imagegen.FrameBuffer) (string, error) {
	img, err := c.enc.CreateImage(fb, c.format, c.quality)
	if err != nil {
		return "", fmt.Errorf("encoding frame: %w", err)
	}

	// Create output directory if needed
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := c.filename(img.Format)
	if err := os.WriteFile(filename, img.Data, 0644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return filename, nil
}

// GenerateFilename generates a snapshot filename without saving.
func (c *Capture) GenerateFilename() string {
	return c.filename(c.format)
}

func (c *Capture) filename(format string) string {
	timestamp := c.now().Format("2006-01-02_15-04-05.000")
	filename := fmt.Sprintf("%s_%s%s", c.prefix, timestamp, imagegen.Extension(format))
	if c.outputDir != "" {
		filename = filepath.Join(c.outputDir, filename)
	}
	return filename
}
