// prism is a CLI for serializing scene geometry and encoding frames.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/prism/internal/config"
	"github.com/Faultbox/prism/internal/engine/framebuffer"
	"github.com/Faultbox/prism/internal/engine/geometry"
	"github.com/Faultbox/prism/internal/engine/imagegen"
	"github.com/Faultbox/prism/internal/logger"
	"github.com/Faultbox/prism/internal/service"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "serialize", "ser":
		err = cmdSerialize(cfg, args)
	case "encode", "enc":
		err = cmdEncode(cfg, args)
	case "info":
		cmdInfo()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		logger.Sync()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`prism - scene geometry serializer and frame encoder

Usage:
  prism [global options] <command> [options]

Commands:
  serialize [-o prefix] [scene.yaml]   Serialize scene primitives into float buffers
  encode [-w W] [-h H] [-pixel fmt]    Encode a test frame and write a snapshot
  info                                 Show formats and primitive strides

Global options:
  -config path    Config file
  -format name    Image format (jpeg, png, bmp, tiff, tga, qoi, ppm)
  -quality n      Encoding quality 0-100
  -flip-y         Flip frames vertically before encoding
  -scene path     Scene description file
  -timestamp t    Default primitive timestamp
  -output dir     Snapshot output directory
  -debug          Enable debug logging

Examples:
  prism serialize scenes/demo.yaml
  prism serialize -o build/demo scenes/demo.yaml
  prism -format png encode -w 640 -h 480`)
}

func cmdSerialize(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serialize", flag.ExitOnError)
	out := fs.String("o", "", "Write raw little-endian float32 buffers to <prefix>.<kind>.f32")
	fs.Parse(args)

	if fs.NArg() > 0 {
		cfg.Scene.Path = fs.Arg(0)
	}
	if cfg.Scene.Path == "" {
		return fmt.Errorf("no scene given (use -scene or pass a path)")
	}

	svc, err := service.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	buf, err := svc.Submit()
	if err != nil {
		return err
	}

	fmt.Printf("Scene:  %s\n", cfg.Scene.Path)
	fmt.Printf("Floats: %d (%.2f KB)\n", buf.Total(), float64(buf.Total()*4)/1024)
	fmt.Println()
	fmt.Printf("  %-10s %8s %8s %10s\n", "KIND", "COUNT", "STRIDE", "FLOATS")
	for _, k := range geometry.Kinds() {
		fmt.Printf("  %-10s %8d %8d %10d\n", k, buf.Count(k), buf.Stride(k), len(buf.Floats(k)))
	}

	if *out == "" {
		return nil
	}
	for _, k := range geometry.Kinds() {
		floats := buf.Floats(k)
		if len(floats) == 0 {
			continue
		}
		path := fmt.Sprintf("%s.%s.f32", *out, k)
		if err := writeFloats(path, floats); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}

func writeFloats(path string, floats []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := binary.Write(f, binary.LittleEndian, floats); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func cmdEncode(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	width := fs.Int("w", 320, "Frame width")
	height := fs.Int("h", 240, "Frame height")
	pixel := fs.String("pixel", "rgba8", "Pixel format (rgba8, bgra8, rgb8, bgr8)")
	fs.Parse(args)

	pf, err := parsePixelFormat(*pixel)
	if err != nil {
		return err
	}
	fb, err := framebuffer.New(*width, *height, pf)
	if err != nil {
		return err
	}
	defer fb.Destroy()
	drawTestPattern(fb)

	svc, err := service.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	path, err := svc.Capture(fb)
	if err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	raw := len(fb.Pixels())
	fmt.Printf("Wrote %s (%dx%d %s, %d bytes, %.1f%% of raw)\n",
		path, *width, *height, pf, st.Size(), 100*float64(st.Size())/float64(raw))
	return nil
}

func parsePixelFormat(name string) (framebuffer.PixelFormat, error) {
	for _, pf := range []framebuffer.PixelFormat{framebuffer.RGBA8, framebuffer.BGRA8, framebuffer.RGB8, framebuffer.BGR8} {
		if strings.EqualFold(pf.String(), name) {
			return pf, nil
		}
	}
	return 0, fmt.Errorf("unknown pixel format %q", name)
}

// drawTestPattern fills fb with a horizontal/vertical gradient and a
// checker overlay.
func drawTestPattern(fb *framebuffer.Framebuffer) {
	w, h := fb.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := float32(x) / float32(max(w-1, 1))
			g := float32(y) / float32(max(h-1, 1))
			b := float32(0.25)
			if (x/16+y/16)%2 == 0 {
				b = 0.75
			}
			fb.SetPixel(x, y, r, g, b, 1)
		}
	}
}

func cmdInfo() {
	fmt.Println("Image formats:")
	for _, name := range imagegen.Formats() {
		fmt.Printf("  %-6s %-26s %s\n", name, imagegen.MIMEType(name), imagegen.Extension(name))
	}
	fmt.Println()
	fmt.Println("Primitive strides (floats):")
	for _, k := range geometry.Kinds() {
		fmt.Printf("  %-10s %d\n", k, geometry.SerializationSize(k))
	}
}
