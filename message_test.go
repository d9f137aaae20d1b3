package gokafka

import (
	"testing"

	"github.com/trivago/gokafka/shared"
)

func TestMessageSetRoundTrip(t *testing.T) {
	expect := shared.NewExpect(t)

	msgs := []*Message{
		{Key: []byte("k1"), Value: []byte("v1")},
		{Key: nil, Value: []byte("v2")},
		{Key: []byte("k3"), Value: nil},
	}

	encoded, err := encodeMessageSet(msgs)
	expect.Nil(err)

	decoded, err := decodeMessageSet(encoded, 42, true)
	expect.Nil(err)
	expect.IntEq(len(msgs), len(decoded))

	for i, m := range msgs {
		expect.BytesEq(m.Key, decoded[i].Key)
		expect.BytesEq(m.Value, decoded[i].Value)
		expect.Int64Eq(42, decoded[i].HighwaterMarkOffset)
		expect.True(decoded[i].Valid)
	}
}

// TestMessageSetPartialTruncation implements spec scenario 3: a trailing
// message whose declared length exceeds what remains is dropped, not
// treated as an error, and the complete prefix is still returned.
func TestMessageSetPartialTruncation(t *testing.T) {
	expect := shared.NewExpect(t)

	whole := []*Message{
		{Value: []byte("complete-one")},
		{Value: []byte("complete-two")},
		{Value: []byte("this-one-will-be-cut-off-mid-flight")},
	}
	encoded, err := encodeMessageSet(whole)
	expect.Nil(err)

	// Cut the buffer inside the third message's body, simulating a
	// broker response truncated at byte k.
	truncated := encoded[:len(encoded)-10]

	decoded, err := decodeMessageSet(truncated, 99, true)
	expect.Nil(err)
	expect.IntEq(2, len(decoded))
	expect.BytesEq([]byte("complete-one"), decoded[0].Value)
	expect.BytesEq([]byte("complete-two"), decoded[1].Value)
}

func TestMessageReservedAttributeBitsInvalid(t *testing.T) {
	expect := shared.NewExpect(t)

	e := newEncoder()
	msg := &Message{Value: []byte("x")}
	msg.Attrs = 0x10 // a reserved bit set
	expect.Nil(msg.encode(e))

	decoded, err := decodeMessageSet(e.bytes(), 0, true)
	expect.Nil(err)
	expect.IntEq(1, len(decoded))
	expect.False(decoded[0].Valid)
	expect.NotNil(decoded[0].DecodeError)
	expect.IntEq(int(ErrMetadataAttributes), int(decoded[0].DecodeError.Code))
}

func TestCompressedMessageExpansionRewritesOffsets(t *testing.T) {
	expect := shared.NewExpect(t)

	inner := []*Message{
		{Value: []byte("a")},
		{Value: []byte("b")},
	}
	innerEncoded, err := encodeMessageSet(inner)
	expect.Nil(err)

	compressed, err := compress(CompressionGZIP, innerEncoded)
	expect.Nil(err)

	wrapper := &Message{Offset: 7, Value: compressed}
	wrapper.setCompression(CompressionGZIP)

	e := newEncoder()
	expect.Nil(wrapper.encode(e))

	decoded, err := decodeMessageSet(e.bytes(), 100, true)
	expect.Nil(err)
	expect.IntEq(2, len(decoded))
	for _, m := range decoded {
		expect.Int64Eq(7, m.Offset)
		expect.Int64Eq(8, m.NextOffset)
		expect.Int64Eq(100, m.HighwaterMarkOffset)
	}
}
