// Package wire implements the length-prefixed JSON framing shared by the
// socket server and its client transports (spec.md §6, §9 Open Question
// resolved in SPEC_FULL.md §3.1): a fixed 4-byte big-endian length header
// followed by a JSON payload, capped at 16 MiB.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

const (
	// HeaderSize is the byte width of the frame length prefix.
	HeaderSize = 4
	// MaxFrameSize caps a single frame's payload to guard against a
	// corrupt or hostile length header forcing an unbounded allocation.
	MaxFrameSize = 16 << 20
)

// WriteFrame encodes v as JSON and writes it to w as one length-prefixed
// frame.
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: encode frame: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("wire: frame of %d bytes exceeds max %d", len(payload), MaxFrameSize)
	}

	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wire: write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r and decodes its JSON
// payload into a generic map.
func ReadFrame(r io.Reader) (map[string]any, error) {
	raw, err := ReadFrameRaw(r)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("wire: decode frame: %w", err)
	}
	return m, nil
}

// ReadFrameRaw reads one length-prefixed frame and returns its raw JSON
// payload bytes, for callers that want to decode into a concrete type.
func ReadFrameRaw(r io.Reader) ([]byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("wire: frame of %d bytes exceeds max %d", size, MaxFrameSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wire: read payload: %w", err)
	}
	return payload, nil
}
