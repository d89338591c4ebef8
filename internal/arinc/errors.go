package arinc

import "fmt"

// ErrorType classifies codec failures, mirroring the typed-error convention
// used throughout this module (see pkg/hashing/core.HashError in the
// teacher repository) rather than returning sentinel integer codes.
type ErrorType int

const (
	// ErrBadArgument marks an invalid caller-supplied argument (e.g. a
	// ratio that isn't exactly 3 ASCII digits).
	ErrBadArgument ErrorType = iota
	// ErrMalformed marks a wire-format frame that could not be parsed.
	ErrMalformed
)

// CodecError is returned by every encode/parse operation in this package.
type CodecError struct {
	Type    ErrorType
	Message string
}

func (e *CodecError) Error() string {
	return e.Message
}

func badArgument(format string, args ...interface{}) error {
	return &CodecError{Type: ErrBadArgument, Message: fmt.Sprintf(format, args...)}
}

func malformed(format string, args ...interface{}) error {
	return &CodecError{Type: ErrMalformed, Message: fmt.Sprintf(format, args...)}
}
