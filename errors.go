package compactor

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// CompactorError is the interface shared by every error kind in this module.
// Kinds are compared with [errors.Is]; messages are refined with WithMessage
// and causes are attached with Wrap.
type CompactorError interface {
	error
	WithMessage(message string) CompactorError
	Wrap(err error) CompactorError
}

type baseCompactorError string

const rootError = baseCompactorError("")

// ErrBufferBounds is returned by [bytebuffer.ByteBuffer] when a position or
// length falls outside the valid bytes.
var ErrBufferBounds = rootError.WithMessage("Buffer access out of bounds")

// ErrCodecInternal wraps any fault raised while a codec transforms its input.
var ErrCodecInternal = rootError.WithMessage("Internal codec error")

// ErrHeaderInvalid is returned when an archive header is truncated or corrupt.
var ErrHeaderInvalid = rootError.WithMessage("Invalid archive header")

// ErrCodecNotFound is returned when looking up a codec by an unknown name.
var ErrCodecNotFound = rootError.WithMessage("Codec not found")

// ErrUnsupportedInput is returned when a folder archive contains a file whose
// extension has no codec assigned.
var ErrUnsupportedInput = rootError.WithMessage("Unsupported input file")

// ErrStorageIO is returned by storage backends on any I/O failure.
var ErrStorageIO = rootError.WithMessage("Input/output error")

var ErrStatisticsCorrupt = rootError.WithMessage("Statistics file corrupted")
var ErrHistoryCorrupt = rootError.WithMessage("History log corrupted")
var ErrDestinationNotWritable = rootError.WithMessage("Destination not writable")

func (e baseCompactorError) Error() string {
	return string(e)
}

func (e baseCompactorError) WithMessage(message string) CompactorError {
	return customCompactorError{
		message:       message,
		originalError: e,
	}
}

func (e baseCompactorError) Wrap(err error) CompactorError {
	return customCompactorError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

// -----------------------------------------------------------------------------

type customCompactorError struct {
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e customCompactorError) Error() string {
	return e.message
}

func (e customCompactorError) WithMessage(message string) CompactorError {
	return customCompactorError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customCompactorError) Wrap(err error) CompactorError {
	return customCompactorError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

func (e customCompactorError) Unwrap() error {
	return e.originalError
}
