// Package protocol classifies raw device frames and dispatches them to the
// decoder and reply encoder of the matching device family.
package protocol

import (
	"errors"
	"fmt"
)

// Error kinds reported by classification, decoding, derivation and reply encoding.
var (
	ErrUnrecognizedFrame      = errors.New("unrecognized frame")
	ErrMalformedFrame         = errors.New("malformed frame")
	ErrUnsupportedMessageType = errors.New("unsupported message type")
	ErrUnsupportedReplyType   = errors.New("unsupported reply type")
	ErrOverlappingSignature   = errors.New("overlapping decoder signature")
)

// FrameError describes a frame that matched a decoder signature but failed
// structural or field validation.
type FrameError struct {
	Protocol string
	Field    string
	Reason   string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s: malformed frame: %s: %s", e.Protocol, e.Field, e.Reason)
}

func (e *FrameError) Unwrap() error {
	return ErrMalformedFrame
}

// Malformed builds a FrameError for the named field.
func Malformed(protocol, field, format string, args ...interface{}) error {
	return &FrameError{
		Protocol: protocol,
		Field:    field,
		Reason:   fmt.Sprintf(format, args...),
	}
}
