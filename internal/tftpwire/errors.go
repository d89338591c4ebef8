package tftpwire

import "fmt"

// Error reports a TFTP frame that could not be decoded.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func malformed(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}
