// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package swapsetup

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// maxFrameSize bounds the length prefix so a misbehaving peer cannot make us
// allocate an unbounded buffer before we've even looked at the payload.
const maxFrameSize = 1 << 20 // 1 MiB

// ErrFrameTooLarge is returned by Read when a peer's declared frame length
// exceeds maxFrameSize.
var ErrFrameTooLarge = errors.New("swapsetup: frame exceeds maximum size")

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("swapsetup: invalid cbor encoding options: %s", err))
	}
	return mode
}

// Read decodes one self-delimiting message of type T from r: a 4-byte
// big-endian length prefix followed by that many bytes of CBOR. It never
// reads past the declared frame, so the stream can be reused for the next
// message immediately after Read returns.
func Read[T any](r io.Reader) (T, error) {
	var zero T

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return zero, fmt.Errorf("swapsetup: reading frame length: %w", err)
	}

	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return zero, ErrFrameTooLarge
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return zero, fmt.Errorf("swapsetup: reading frame body: %w", err)
	}

	var msg T
	if err := cbor.Unmarshal(body, &msg); err != nil {
		return zero, fmt.Errorf("swapsetup: decoding message: %w", err)
	}

	return msg, nil
}

// Write encodes msg as CBOR and writes it to w prefixed with its length.
func Write[T any](w io.Writer, msg T) error {
	body, err := encMode.Marshal(msg)
	if err != nil {
		return fmt.Errorf("swapsetup: encoding message: %w", err)
	}

	if len(body) > maxFrameSize {
		return ErrFrameTooLarge
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))

	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("swapsetup: writing frame length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("swapsetup: writing frame body: %w", err)
	}

	return nil
}
