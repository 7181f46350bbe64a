package config

import (
	"flag"
	"fmt"
	"math"
	"strconv"
)

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagFormat    = flag.String("format", "", "Image format (jpeg, png, bmp, tiff, tga, qoi, ppm)")
	flagQuality   = flag.Int("quality", -1, "Encoding quality 0-100")
	flagFlipY     = flag.Bool("flip-y", false, "Flip frames vertically before encoding")
	flagScene     = flag.String("scene", "", "Scene description file")
	flagTimestamp = flag.String("timestamp", "", "Default primitive timestamp (scene units, may be negative)")
	flagOutput    = flag.String("output", "", "Snapshot output directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagFormat != "" {
		cfg.Encoding.Format = *flagFormat
	}
	if *flagQuality >= 0 {
		cfg.Encoding.Quality = *flagQuality
	}
	if *flagFlipY {
		cfg.Encoding.FlipY = true
	}
	if *flagScene != "" {
		cfg.Scene.Path = *flagScene
	}
	if *flagTimestamp != "" {
		ts, err := strconv.ParseFloat(*flagTimestamp, 32)
		if err != nil || math.IsNaN(ts) || math.IsInf(ts, 0) {
			return fmt.Errorf("invalid -timestamp %q: want a finite number", *flagTimestamp)
		}
		cfg.Scene.Timestamp = float32(ts)
	}
	if *flagOutput != "" {
		cfg.Output.Dir = *flagOutput
	}
	return nil
}
