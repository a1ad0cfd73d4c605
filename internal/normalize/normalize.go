// Package normalize implements the image transform applied to each stable
// file: crop to content, rescale onto a fixed white canvas with padding,
// re-encode to the configured format, and replace the source atomically.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

// normalizedMarker sits between the stem and the extension of the temporary
// sibling file, so the watch filter can recognize in-progress artifacts.
const normalizedMarker = ".normalized"

// Options fixes the transform parameters for a Normalizer.
type Options struct {
	Format           string
	CanvasWidth      int
	CanvasHeight     int
	Padding          int
	Tolerance        int
	JPEGQuality      int
	DecodeAttempts   int
	DecodeRetryDelay time.Duration
	Logger           zerolog.Logger
}

// Normalizer applies one fixed transform to any number of files. Safe for
// concurrent use; it holds no per-call state.
type Normalizer struct {
	format       Format
	canvasWidth  int
	canvasHeight int
	padding      int
	tolerance    int
	quality      int
	attempts     int
	retryDelay   time.Duration
	logger       zerolog.Logger

	// sleep waits between decode attempts; replaced in tests so retries
	// run without real time elapsing.
	sleep func(ctx context.Context, delay time.Duration) error
}

// Result describes a completed normalization for logging and the journal.
type Result struct {
	Output   string
	Format   Format
	Attempts int
	Width    int
	Height   int
}

// New validates the options and builds a Normalizer. The output format is
// checked here, once, so a misconfigured codec name fails before any file
// is ever decoded.
func New(opts Options) (*Normalizer, error) {
	format, err := ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.CanvasWidth < 1 || opts.CanvasHeight < 1 {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", opts.CanvasWidth, opts.CanvasHeight)
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	if opts.CanvasWidth-2*opts.Padding < 1 || opts.CanvasHeight-2*opts.Padding < 1 {
		return nil, fmt.Errorf("padding %d leaves no content area on a %dx%d canvas", opts.Padding, opts.CanvasWidth, opts.CanvasHeight)
	}
	if opts.JPEGQuality < 1 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 90
	}
	if opts.DecodeAttempts < 1 {
		opts.DecodeAttempts = 5
	}
	if opts.DecodeRetryDelay <= 0 {
		opts.DecodeRetryDelay = 200 * time.Millisecond
	}
	return &Normalizer{
		format:       format,
		canvasWidth:  opts.CanvasWidth,
		canvasHeight: opts.CanvasHeight,
		padding:      opts.Padding,
		tolerance:    opts.Tolerance,
		quality:      opts.JPEGQuality,
		attempts:     opts.DecodeAttempts,
		retryDelay:   opts.DecodeRetryDelay,
		logger:       opts.Logger,
		sleep:        waitWithContext,
	}, nil
}

// Format returns the parsed output format.
func (n *Normalizer) Format() Format {
	return n.format
}

// Normalize runs the full transform on one file and publishes the result
// over the source. The final filename never holds a partial file: output is
// written to a temporary sibling and renamed into place. When the output
// extension differs from the source the original is removed after the
// rename. Failures abort this file only.
func (n *Normalizer) Normalize(ctx context.Context, path string) (Result, error) {
	logger := n.logger.With().Str("path", path).Logger()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Msg("source vanished before processing")
			return Result{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		logger.Error().Err(err).Msg("stat source failed")
		return Result{}, fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}

	img, attempts, err := n.decodeWithRetry(ctx, path, logger)
	if err != nil {
		logger.Error().Err(err).Int("attempts", attempts).Msg("decode failed")
		return Result{Attempts: attempts}, err
	}

	box := contentBox(img, n.tolerance)
	logger.Debug().
		Int("box_width", box.Dx()).
		Int("box_height", box.Dy()).
		Msg("content box computed")

	composed := n.compose(img, box)

	output := outputPath(path, n.format)
	temp := temporaryPath(path, n.format)
	if err := n.publish(temp, output, composed); err != nil {
		logger.Error().Err(err).Str("output", output).Msg("publish failed")
		return Result{Attempts: attempts}, err
	}
	if output != path {
		if err := os.Remove(path); err != nil {
			logger.Error().Err(err).Msg("remove source after re-encode failed")
			return Result{Attempts: attempts}, fmt.Errorf("%w: remove %s: %v", ErrIO, path, err)
		}
	}

	logger.Info().
		Str("output", output).
		Int("attempts", attempts).
		Msg("image normalized")
	return Result{
		Output:   output,
		Format:   n.format,
		Attempts: attempts,
		Width:    n.canvasWidth,
		Height:   n.canvasHeight,
	}, nil
}

// decodeWithRetry opens and decodes the source, retrying on failure with a
// fixed delay. A producer may still be flushing the file when the first
// attempts run; the bounded loop gives it time to finish.
func (n *Normalizer) decodeWithRetry(ctx context.Context, path string, logger zerolog.Logger) (image.Image, int, error) {
	var lastErr error
	for attempt := 1; attempt <= n.attempts; attempt++ {
		img, err := imaging.Open(path)
		if err == nil {
			return img, attempt, nil
		}
		lastErr = err
		logger.Warn().Err(err).Int("attempt", attempt).Msg("decode attempt failed")
		if attempt < n.attempts {
			if waitErr := n.sleep(ctx, n.retryDelay); waitErr != nil {
				return nil, attempt, waitErr
			}
		}
	}
	return nil, n.attempts, &DecodeError{Path: path, Attempts: n.attempts, Last: lastErr}
}

// compose crops the image to the content box, scales it so the longer
// cropped axis exactly fills canvas minus twice the padding on that axis
// (the other axis floors proportionally), and centers it on a white canvas.
func (n *Normalizer) compose(img image.Image, box image.Rectangle) *image.NRGBA {
	cropped := imaging.Crop(img, box)
	cropW, cropH := box.Dx(), box.Dy()

	var scaledW, scaledH int
	if cropW >= cropH {
		scaledW = n.canvasWidth - 2*n.padding
		scaledH = cropH * scaledW / cropW
		if scaledH < 1 {
			scaledH = 1
		}
	} else {
		scaledH = n.canvasHeight - 2*n.padding
		scaledW = cropW * scaledH / cropH
		if scaledW < 1 {
			scaledW = 1
		}
	}
	scaled := imaging.Resize(cropped, scaledW, scaledH, imaging.Gaussian)

	canvas := imaging.New(n.canvasWidth, n.canvasHeight, color.White)
	offset := image.Pt((n.canvasWidth-scaledW)/2, (n.canvasHeight-scaledH)/2)
	return imaging.Paste(canvas, scaled, offset)
}

func (n *Normalizer) publish(temp, final string, img *image.NRGBA) error {
	file, err := os.Create(temp)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, temp, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(temp)
		}
	}()
	if err := encode(file, img, n.format, n.quality); err != nil {
		_ = file.Close()
		return &EncodeError{Path: final, Format: string(n.format), Err: err}
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, temp, err)
	}
	if err := os.Rename(temp, final); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrIO, temp, err)
	}
	committed = true
	return nil
}

func outputPath(path string, format Format) string {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	return stem + "." + format.Ext()
}

func temporaryPath(path string, format Format) string {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	return stem + normalizedMarker + "." + format.Ext()
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
