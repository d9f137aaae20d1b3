package gokafka

// CompressionCodec is the codec field in the low 3 bits of a message's
// attributes byte (compressionMask). Values 0-3 are the codecs below; a
// decoded message with a higher value is marked invalid.
type CompressionCodec int8

const (
	// CompressionNone leaves a message set uncompressed.
	CompressionNone CompressionCodec = 0
	// CompressionGZIP compresses the inner message set with gzip.
	CompressionGZIP CompressionCodec = 1
	// CompressionSnappy compresses the inner message set with
	// Xerial-framed Snappy.
	CompressionSnappy CompressionCodec = 2
	// CompressionLZ4 compresses the inner message set with the LZ4 frame
	// format (content checksum, post-0.10 framing only).
	CompressionLZ4 CompressionCodec = 3

	compressionMask      = 0x07
	reservedAttributeMask = 0xF0 // top 4 bits reserved, must be zero
)

// Message is one element of a MessageSet, as produced by the caller or
// decoded from a Fetch response.
type Message struct {
	Offset    int64
	Magic     int8 // 0 or 1
	Attrs     int8
	Timestamp int64 // only meaningful when Magic == 1
	Key       []byte
	Value     []byte

	// Set only on decode.
	NextOffset         int64
	HighwaterMarkOffset int64
	Valid              bool
	DecodeError        *Error
}

// Compression reports the codec recorded in Attrs' low bits.
func (m *Message) Compression() CompressionCodec {
	return CompressionCodec(m.Attrs & compressionMask)
}

func (m *Message) setCompression(c CompressionCodec) {
	m.Attrs = (m.Attrs &^ compressionMask) | int8(c)
}

// encode writes one message (offset, size, crc, magic, attrs, [timestamp],
// key, value) into e. The CRC covers exactly magic..value, per spec.md
// §4.1's "CRC32 policy".
func (m *Message) encode(e *encoder) *Error {
	e.putInt64(m.Offset)
	e.push(&lengthField{})
	e.push(&crc32Field{})

	e.putInt8(m.Magic)
	e.putInt8(m.Attrs)
	if m.Magic == 1 {
		e.putInt64(m.Timestamp)
	}
	if err := e.putBytes(m.Key); err != nil {
		return err
	}
	if err := e.putBytes(m.Value); err != nil {
		return err
	}

	if err := e.pop(); err != nil { // crc32Field
		return err
	}
	if err := e.pop(); err != nil { // lengthField
		return err
	}
	return nil
}

// decodeMessage reads one message at the decoder's current cursor. It
// does not itself implement Fetch's partial-message tolerance - that
// lives in decodeMessageSet, which stops calling this once the declared
// message_size would overrun the remaining bytes.
func decodeMessage(d *decoder) (*Message, *Error) {
	offset, err := d.getInt64()
	if err != nil {
		return nil, err
	}
	size, err := d.getInt32()
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, ErrMalformed
	}

	body, err := d.getSubDecoder(int(size))
	if err != nil {
		return nil, err
	}

	crcStart := body.off
	_, err = body.getInt32() // crc, not verified - see DESIGN.md CRC decision
	if err != nil {
		return nil, err
	}
	_ = crcStart

	magic, err := body.getInt8()
	if err != nil {
		return nil, err
	}
	attrs, err := body.getInt8()
	if err != nil {
		return nil, err
	}

	msg := &Message{Offset: offset, Magic: magic, Attrs: attrs, NextOffset: offset + 1, Valid: true}

	if magic == 1 {
		ts, err := body.getInt64()
		if err != nil {
			return nil, err
		}
		msg.Timestamp = ts
	}

	key, err := body.getBytes()
	if err != nil {
		return nil, err
	}
	msg.Key = key

	value, err := body.getBytes()
	if err != nil {
		return nil, err
	}
	msg.Value = value

	if attrs&reservedAttributeMask != 0 {
		msg.Valid = false
		msg.DecodeError = newClusterError(ErrMetadataAttributes)
	} else if msg.Compression() > CompressionLZ4 {
		msg.Valid = false
		msg.DecodeError = newClusterError(ErrMetadataAttributes)
	}

	return msg, nil
}

// encodeMessageSet writes the given messages back-to-back with no
// overall length prefix - the caller (ProduceRequest) wraps the result
// with its own int32 message_set_size.
func encodeMessageSet(msgs []*Message) ([]byte, *Error) {
	e := newEncoder()
	for _, m := range msgs {
		if err := m.encode(e); err != nil {
			return nil, err
		}
	}
	return e.bytes(), nil
}

// decodeMessageSet decodes as many whole messages as fit in buf,
// tolerating a truncated trailing message per spec.md §4.1 "Fetch
// response partial-message tolerance": it reads greedily while the
// remaining bytes could hold a message header, and on any message whose
// declared size exceeds what remains, it stops and discards that
// fragment rather than erroring.
//
// highwaterMark is copied onto every decoded Message, and is the caller's
// (Fetch partition header's) highwater mark offset. rewriteInnerOffsets
// controls the Open Question decision recorded in DESIGN.md.
const minimumMessageHeaderSize = 8 /*offset*/ + 4 /*size*/ + 4 /*crc*/ + 1 /*magic*/ + 1 /*attrs*/

func decodeMessageSet(buf []byte, highwaterMark int64, rewriteInnerOffsets bool) ([]*Message, *Error) {
	d := newDecoder(buf)
	var out []*Message

	for d.remaining() >= minimumMessageHeaderSize {
		start := d.off
		sizeOff := start + 8
		if sizeOff+4 > len(buf) {
			break
		}
		declaredSize := int32(uint32(buf[sizeOff])<<24 | uint32(buf[sizeOff+1])<<16 | uint32(buf[sizeOff+2])<<8 | uint32(buf[sizeOff+3]))
		if declaredSize < 0 {
			break
		}
		need := 8 + 4 + int(declaredSize)
		if d.remaining() < need {
			break // ### truncated trailing message: stop, discard fragment ###
		}

		msg, err := decodeMessage(d)
		if err != nil {
			return nil, err
		}
		msg.HighwaterMarkOffset = highwaterMark

		if msg.Valid && msg.Compression() != CompressionNone {
			expanded, err := expandCompressedMessage(msg, highwaterMark, rewriteInnerOffsets)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		} else {
			out = append(out, msg)
		}
	}

	return out, nil
}

// expandCompressedMessage decompresses msg's value, recursively decodes
// the embedded message set, and (per Config.RewriteInnerOffsets, see
// DESIGN.md's Open Question decision) optionally re-numbers inner
// offsets to the outer message's offset.
func expandCompressedMessage(msg *Message, highwaterMark int64, rewriteInnerOffsets bool) ([]*Message, *Error) {
	raw, err := decompress(msg.Compression(), msg.Value)
	if err != nil {
		return nil, err
	}

	inner, err := decodeMessageSet(raw, highwaterMark, rewriteInnerOffsets)
	if err != nil {
		return nil, err
	}

	if rewriteInnerOffsets {
		for _, m := range inner {
			m.Offset = msg.Offset
			m.NextOffset = msg.Offset + 1
			m.HighwaterMarkOffset = highwaterMark
		}
	} else {
		for _, m := range inner {
			m.HighwaterMarkOffset = highwaterMark
		}
	}
	return inner, nil
}
