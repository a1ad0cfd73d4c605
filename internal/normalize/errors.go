package normalize

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("source not found")
	ErrDecodeFailed      = errors.New("decode failed")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrEncodeFailed      = errors.New("encode failed")
	ErrIO                = errors.New("io failure")
)

// DecodeError reports an exhausted decode retry loop. It carries the last
// underlying codec error so truncated and still-being-written files can be
// told apart in logs.
type DecodeError struct {
	Path     string
	Attempts int
	Last     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s failed after %d attempts: %v", e.Path, e.Attempts, e.Last)
}

func (e *DecodeError) Unwrap() error {
	return e.Last
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecodeFailed
}

type EncodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s as %s: %v", e.Path, e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func (e *EncodeError) Is(target error) bool {
	return target == ErrEncodeFailed
}
