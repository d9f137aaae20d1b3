package gokafka

import (
	"bytes"
	"compress/gzip"
	"io"

	xerial "github.com/eapache/go-xerial-snappy"
	"github.com/pierrec/lz4/v4"
)

// compress wraps raw (an already-encoded, uncompressed MessageSet) with
// the given codec, returning the bytes to place in the wrapper message's
// Value field (spec.md §4.1 "MessageSet encoding").
func compress(codec CompressionCodec, raw []byte) ([]byte, *Error) {
	switch codec {
	case CompressionNone:
		return raw, nil
	case CompressionGZIP:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, wrapError(ErrMalformed, err)
		}
		if err := w.Close(); err != nil {
			return nil, wrapError(ErrMalformed, err)
		}
		return buf.Bytes(), nil
	case CompressionSnappy:
		// xerial.Encode frames the compressed blocks with Kafka's
		// "\x82SNAPPY\x00" magic header and 32KiB blocks, exactly as
		// spec.md §4.1 "Snappy framing" describes.
		return xerial.Encode(raw), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if err := w.Apply(lz4.ChecksumOption(true)); err != nil {
			return nil, wrapError(ErrMalformed, err)
		}
		if _, err := w.Write(raw); err != nil {
			return nil, wrapError(ErrMalformed, err)
		}
		if err := w.Close(); err != nil {
			return nil, wrapError(ErrMalformed, err)
		}
		return buf.Bytes(), nil
	default:
		return nil, newArgumentError("unsupported compression codec %d", codec)
	}
}

// decompress reverses compress. Snappy decoding relies on
// eapache/go-xerial-snappy's own fallback to raw (unframed) snappy when
// the Xerial magic header is absent, satisfying spec.md §4.1's "On
// decode, if the magic header is absent, attempt raw-snappy as a
// compatibility fallback."
func decompress(codec CompressionCodec, data []byte) ([]byte, *Error) {
	switch codec {
	case CompressionNone:
		return data, nil
	case CompressionGZIP:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, wrapError(ErrMalformed, err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, wrapError(ErrMalformed, err)
		}
		return out, nil
	case CompressionSnappy:
		out, err := xerial.Decode(data)
		if err != nil {
			return nil, wrapError(ErrMalformed, err)
		}
		return out, nil
	case CompressionLZ4:
		r := lz4.NewReader(bytes.NewReader(data))
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, wrapError(ErrMalformed, err)
		}
		return out, nil
	default:
		return nil, newArgumentError("unsupported compression codec %d", codec)
	}
}
