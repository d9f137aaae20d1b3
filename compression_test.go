package gokafka

import (
	"testing"

	"github.com/golang/snappy"
	"github.com/trivago/gokafka/shared"
)

func TestCompressionRoundTrip(t *testing.T) {
	expect := shared.NewExpect(t)
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility, " +
		"the quick brown fox jumps over the lazy dog")

	for _, codec := range []CompressionCodec{CompressionNone, CompressionGZIP, CompressionSnappy, CompressionLZ4} {
		compressed, err := compress(codec, payload)
		expect.Nil(err)

		decompressed, err := decompress(codec, compressed)
		expect.Nil(err)
		expect.BytesEq(payload, decompressed)
	}
}

// TestSnappyRawFallback covers the Xerial-absent-magic-header
// compatibility path spec.md §4.1 requires: a raw (unframed) snappy blob
// still decodes.
func TestSnappyRawFallback(t *testing.T) {
	expect := shared.NewExpect(t)
	payload := []byte("raw snappy, no xerial framing")

	// Producers that skip Xerial block-framing entirely still need to be
	// readable; xerial.Decode falls back to treating the whole buffer as
	// one raw snappy block when the framing magic is absent.
	raw := snappy.Encode(nil, payload)
	decoded, err := decompress(CompressionSnappy, raw)
	expect.Nil(err)
	expect.BytesEq(payload, decoded)
}
