package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, enabled bool) *Codec {
	t.Helper()
	c, err := New(enabled)
	require.NoError(t, err)
	return c
}

func TestCodec_Roundtrip(t *testing.T) {
	c := newTestCodec(t, true)

	payloads := [][]byte{
		[]byte(`{"is_idle":false,"url":"https://example.com"}`),
		[]byte("short"),
		bytes.Repeat([]byte("Visual Studio Code - main.go "), 200),
		{0x00, 0xff, 0x01, 0xfe},
	}
	for _, payload := range payloads {
		blob := c.Compress(payload)
		got, err := c.Decompress(blob)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	}
}

func TestCodec_Roundtrip_Empty(t *testing.T) {
	c := newTestCodec(t, true)

	blob := c.Compress(nil)
	require.Len(t, blob, 1, "empty payload should frame to a single header byte")

	got, err := c.Decompress(blob)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCodec_DisabledStoresRaw(t *testing.T) {
	c := newTestCodec(t, false)

	payload := []byte("plain text title")
	blob := c.Compress(payload)

	// Raw frame: header byte plus the untouched payload.
	require.Equal(t, byte(formatRaw), blob[0])
	assert.Equal(t, payload, blob[1:])

	got, err := c.Decompress(blob)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCodec_ToggleInterop(t *testing.T) {
	enabled := newTestCodec(t, true)
	disabled := newTestCodec(t, false)

	payload := bytes.Repeat([]byte("spotify - artist - song "), 50)

	// Blobs written while compression was on stay readable after it is
	// turned off, and vice versa.
	got, err := disabled.Decompress(enabled.Compress(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	got, err = enabled.Decompress(disabled.Compress(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCodec_CorruptBlobs(t *testing.T) {
	c := newTestCodec(t, true)

	cases := map[string][]byte{
		"empty frame":       {},
		"unknown format":    {0x7f, 0x01, 0x02},
		"truncated zstd":    c.Compress(bytes.Repeat([]byte("x"), 1000))[:5],
		"garbage zstd body": {formatZstd, 0xde, 0xad, 0xbe, 0xef},
	}
	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decompress(blob)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestCodec_CompressShrinksRepetitiveData(t *testing.T) {
	c := newTestCodec(t, true)

	payload := bytes.Repeat([]byte("the same window title over and over "), 100)
	blob := c.Compress(payload)
	assert.Less(t, len(blob), len(payload))
}
