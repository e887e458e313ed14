package pdftext

import (
	"errors"
	"fmt"
)

// ReadErrorCode classifies why a document produced no text.
type ReadErrorCode string

const (
	ErrEncrypted  ReadErrorCode = "ENCRYPTED"
	ErrUnreadable ReadErrorCode = "UNREADABLE"
	ErrEmpty      ReadErrorCode = "EMPTY"
)

// ReadError is returned for documents that cannot be turned into text.
type ReadError struct {
	Code    ReadErrorCode
	Message string
	Cause   error
}

func (e *ReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ReadError) Unwrap() error {
	return e.Cause
}

// IsEncrypted reports whether err means the document needs a working password.
func IsEncrypted(err error) bool {
	var re *ReadError
	return errors.As(err, &re) && re.Code == ErrEncrypted
}
