// Package codec compresses the opaque blobs the store persists: record
// metadata, summary top lists, and cached query results. Callers round a
// payload through Compress before writes and Decompress after reads; the
// store never inspects decompressed content.
package codec

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// ErrCorrupt marks a blob that cannot be decoded. It is distinct from a
// missing row: callers typically skip-and-log the offending row and keep
// aggregating the rest of the result set.
var ErrCorrupt = errors.New("codec: corrupt blob")

// Blob framing: one header byte, then the payload.
const (
	formatRaw  = 0x00 // payload stored as-is (compression disabled, or empty)
	formatZstd = 0x01 // zstd frame
)

// Codec compresses and decompresses blobs. Both directions are pure and
// safe for concurrent use. The zero value is not usable; call New.
type Codec struct {
	enabled bool
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

// New returns a Codec. When enabled is false, Compress stores payloads
// raw but Decompress still understands both formats, so toggling the
// setting never invalidates existing rows.
//
// The compression level is fixed at SpeedFastest: this runs on every
// write, and titles/metadata are small enough that peak ratio buys
// nothing measurable.
func New(enabled bool) (*Codec, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("codec: init encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("codec: init decoder: %w", err)
	}
	return &Codec{enabled: enabled, enc: enc, dec: dec}, nil
}

// Compress frames and (when enabled) compresses payload. Empty and nil
// payloads produce a one-byte raw frame.
func (c *Codec) Compress(payload []byte) []byte {
	if !c.enabled || len(payload) == 0 {
		out := make([]byte, 1+len(payload))
		out[0] = formatRaw
		copy(out[1:], payload)
		return out
	}
	return c.enc.EncodeAll(payload, []byte{formatZstd})
}

// Decompress reverses Compress. A blob with no header byte, an unknown
// format, or an undecodable zstd frame returns ErrCorrupt.
func (c *Codec) Decompress(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrCorrupt)
	}
	switch blob[0] {
	case formatRaw:
		out := make([]byte, len(blob)-1)
		copy(out, blob[1:])
		return out, nil
	case formatZstd:
		out, err := c.dec.DecodeAll(blob[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown format 0x%02x", ErrCorrupt, blob[0])
	}
}
