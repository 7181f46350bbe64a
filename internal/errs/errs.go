// Package errs defines the typed failures surfaced by geometry serialization
// and frame encoding. Match them with errors.As.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input caught before any stateful work.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedFormatError reports an image format or pixel layout the codec
// path does not recognize.
type UnsupportedFormatError struct {
	Kind   string // "image format" or "pixel format"
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported %s: %q", e.Kind, e.Format)
}

// UnsupportedImageFormat builds an UnsupportedFormatError for an image format name.
func UnsupportedImageFormat(format string) error {
	return &UnsupportedFormatError{Kind: "image format", Format: format}
}

// UnsupportedPixelFormat builds an UnsupportedFormatError for a pixel layout.
func UnsupportedPixelFormat(format string) error {
	return &UnsupportedFormatError{Kind: "pixel format", Format: format}
}

// EncodingError reports a codec or serialization failure after validation passed.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	if e.Err == nil {
		return e.Op + ": encoding failed"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Encoding builds an EncodingError wrapping err.
func Encoding(op string, err error) error {
	return &EncodingError{Op: op, Err: err}
}

// Encodingf builds an EncodingError with a formatted cause.
func Encodingf(op, format string, args ...any) error {
	return &EncodingError{Op: op, Err: fmt.Errorf(format, args...)}
}

// ResourceAcquisitionError reports that a compression context could not be
// created. The owning object must not be used.
type ResourceAcquisitionError struct {
	Resource string
	Err      error
}

func (e *ResourceAcquisitionError) Error() string {
	return fmt.Sprintf("acquiring %s: %v", e.Resource, e.Err)
}

func (e *ResourceAcquisitionError) Unwrap() error {
	return e.Err
}

// ErrClosed is returned when encoding through a generator that was already closed.
var ErrClosed = &EncodingError{Op: "encode", Err: errors.New("generator is closed")}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsUnsupportedFormat reports whether err is or wraps an UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var target *UnsupportedFormatError
	return errors.As(err, &target)
}

// IsEncoding reports whether err is or wraps an EncodingError.
func IsEncoding(err error) bool {
	var target *EncodingError
	return errors.As(err, &target)
}

// IsResourceAcquisition reports whether err is or wraps a ResourceAcquisitionError.
func IsResourceAcquisition(err error) bool {
	var target *ResourceAcquisitionError
	return errors.As(err, &target)
}
