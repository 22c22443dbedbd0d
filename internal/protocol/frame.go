package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// HeaderSize is the width of the big-endian length prefix.
const HeaderSize = 4

// DefaultMaxFrameSize bounds a single payload when no limit is configured.
const DefaultMaxFrameSize uint32 = 1 << 20

// WriteFrame writes one frame to w.
// Wire format: [4 bytes BE: len(payload)][payload].
// Header and payload go out in a single Write so that concurrent writers
// serialized by the caller never interleave partial frames.
func WriteFrame(w io.Writer, payload []byte, maxSize uint32) error {
	if maxSize == 0 {
		maxSize = DefaultMaxFrameSize
	}
	if uint64(len(payload)) > uint64(maxSize) {
		return fmt.Errorf("write frame (%d bytes): %w", len(payload), ErrFrameTooLarge)
	}

	frame := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(frame[:HeaderSize], uint32(len(payload)))
	copy(frame[HeaderSize:], payload)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", classify(err))
	}
	return nil
}

// ReadFrame reads one frame from r and returns its payload. It blocks until
// the whole frame has arrived; short reads are retried by io.ReadFull.
func ReadFrame(r io.Reader, maxSize uint32) ([]byte, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxFrameSize
	}

	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", classify(err))
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > maxSize {
		return nil, fmt.Errorf("declared length %d > %d: %w", size, maxSize, ErrFrameTooLarge)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", size, classify(err))
	}
	return payload, nil
}

// classify folds the ways a peer can go away into ErrConnectionClosed and
// leaves every other error untouched.
func classify(err error) error {
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}
	return err
}
