package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/C-Radius/ni-watcher/internal/config"
	"github.com/C-Radius/ni-watcher/internal/normalize"
)

// ni normalizes the given image files once and exits. It shares its
// defaults with the watch service, so a file run through ni looks exactly
// like one picked up from the watch folder.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	var inputs stringList
	flag.Var(&inputs, "i", "input file (repeatable)")
	format := flag.String("format", cfg.OutputFormat, "output format (jpeg, png, gif, bmp, tiff, webp)")
	canvasWidth := flag.Int("canvas-width", cfg.CanvasWidth, "canvas width in pixels")
	canvasHeight := flag.Int("canvas-height", cfg.CanvasHeight, "canvas height in pixels")
	padding := flag.Int("padding", cfg.Padding, "padding around the content in pixels")
	tolerance := flag.Int("tolerance", cfg.Tolerance, "background luminance tolerance")
	quality := flag.Int("quality", cfg.JPEGQuality, "lossy encode quality (1-100)")
	flag.Parse()

	files, err := collectInputs(inputs, flag.Args())
	if err != nil {
		log.Fatalf("%v (use -i or positional paths)", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	normalizer, err := normalize.New(normalize.Options{
		Format:           *format,
		CanvasWidth:      *canvasWidth,
		CanvasHeight:     *canvasHeight,
		Padding:          *padding,
		Tolerance:        *tolerance,
		JPEGQuality:      *quality,
		DecodeAttempts:   cfg.DecodeAttempts,
		DecodeRetryDelay: cfg.DecodeRetryDelay,
		Logger:           logger,
	})
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, path := range files {
		if _, err := normalizer.Normalize(ctx, path); err != nil {
			failed++
		}
		if ctx.Err() != nil {
			break
		}
	}
	if failed > 0 {
		logger.Error().Int("failed", failed).Int("total", len(files)).Msg("normalization finished with failures")
		os.Exit(1)
	}
}

type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("empty path")
	}
	*s = append(*s, value)
	return nil
}

// collectInputs merges -i flags and positional arguments, dropping blanks
// and duplicates while keeping order.
func collectInputs(flagged, positional []string) ([]string, error) {
	seen := map[string]struct{}{}
	var files []string
	for _, path := range append(append([]string{}, flagged...), positional...) {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}
	if len(files) == 0 {
		return nil, errors.New("no input files given")
	}
	return files, nil
}
