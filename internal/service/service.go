// Package service wires configuration, the image generator and the scene
// geometry into one renderer-facing session.
package service

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/config"
	"github.com/Faultbox/prism/internal/engine/geometry"
	"github.com/Faultbox/prism/internal/engine/imagegen"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/internal/engine/snapshot"
	"github.com/Faultbox/prism/internal/logger"
)

// generator is the part of *imagegen.Generator the service uses.
type generator interface {
	CreateImage(fb imagegen.FrameBuffer, format string, quality int) (*imagegen.Image, error)
	CreateJPEG(fb imagegen.FrameBuffer, quality int) (*imagegen.JPEG, error)
	Close() error
}

var newGenerator = func(opts imagegen.Options) (generator, error) {
	g, err := imagegen.New(opts)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Service owns one generator and one geometry group.
type Service struct {
	cfg     *config.Config
	gen     generator
	group   *geometry.Group
	capture *snapshot.Capture
	log     *zap.Logger
}

// New validates cfg, acquires the generator and loads the scene. If any step
// after acquisition fails, the generator is closed before returning.
func New(cfg *config.Config) (svc *Service, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	gen, err := newGenerator(cfg.GeneratorOptions())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, gen.Close())
		}
	}()

	group := geometry.NewGroup()
	if cfg.Scene.Path != "" {
		group, err = scene.Load(cfg.Scene.Path, cfg.Scene.Timestamp)
		if err != nil {
			return nil, err
		}
	}

	svc = &Service{
		cfg:     cfg,
		gen:     gen,
		group:   group,
		capture: snapshot.New(gen, cfg.Output.Dir, cfg.Output.Prefix, cfg.Encoding.Format, cfg.Encoding.Quality),
		log:     logger.Named("service"),
	}
	svc.log.Info("service ready",
		zap.String("scene", cfg.Scene.Path),
		zap.Int("primitives", group.Len()),
		zap.String("format", cfg.Encoding.Format),
		zap.Int("quality", cfg.Encoding.Quality))
	return svc, nil
}

// Group returns the scene geometry.
func (s *Service) Group() *geometry.Group {
	return s.group
}

// Submit serializes the scene geometry for upload to the renderer.
func (s *Service) Submit() (*geometry.Buffers, error) {
	buf, err := s.group.Serialize()
	if err != nil {
		return nil, fmt.Errorf("submitting geometry: %w", err)
	}
	for _, k := range geometry.Kinds() {
		if n := buf.Count(k); n > 0 {
			s.log.Debug("serialized primitives",
				zap.Stringer("kind", k),
				zap.Int("count", n),
				zap.Int("stride", buf.Stride(k)))
		}
	}
	return buf, nil
}

// Encode encodes a frame with the configured format and quality.
func (s *Service) Encode(fb imagegen.FrameBuffer) (*imagegen.Image, error) {
	return s.gen.CreateImage(fb, s.cfg.Encoding.Format, s.cfg.Encoding.Quality)
}

// EncodeJPEG encodes a frame as JPEG with the configured quality.
func (s *Service) EncodeJPEG(fb imagegen.FrameBuffer) (*imagegen.JPEG, error) {
	return s.gen.CreateJPEG(fb, s.cfg.Encoding.Quality)
}

// Capture writes a frame to the snapshot directory and returns the path.
func (s *Service) Capture(fb imagegen.FrameBuffer) (string, error) {
	path, err := s.capture.CaptureFrame(fb)
	if err != nil {
		return "", err
	}
	s.log.Info("snapshot written", zap.String("path", path))
	return path, nil
}

// Close releases the scene and the generator.
func (s *Service) Close() error {
	s.group.Clear()
	return s.gen.Close()
}
