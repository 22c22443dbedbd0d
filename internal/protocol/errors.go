package protocol

import "errors"

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrFrameTooLarge    = errors.New("frame exceeds maximum size")
	ErrMalformedEvent   = errors.New("malformed event")
)
