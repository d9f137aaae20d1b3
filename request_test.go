package gokafka

import (
	"testing"

	"github.com/trivago/gokafka/shared"
)

// TestDecodeResponseMismatchedCorrelationID covers spec.md §8's universal
// invariant that a response whose correlation id disagrees with what was
// sent is rejected outright, before the api-specific body is even parsed.
func TestDecodeResponseMismatchedCorrelationID(t *testing.T) {
	expect := shared.NewExpect(t)

	e := newEncoder()
	e.putInt32(4) // correlation id the broker claims to be answering
	resp := &MetadataResponse{}
	err := decodeResponse(e.bytes(), 5, 0, resp)
	expect.NotNil(err)
	expect.IntEq(int(ErrMismatchCorrelationID.Code), int(err.Code))
}

func TestDecodeResponseMatchingCorrelationIDProceeds(t *testing.T) {
	expect := shared.NewExpect(t)

	e := newEncoder()
	e.putInt32(7)
	e.putInt32(0) // empty brokers array
	e.putInt32(0) // empty topics array
	resp := &MetadataResponse{}
	err := decodeResponse(e.bytes(), 7, 0, resp)
	expect.Nil(err)
	expect.IntEq(0, len(resp.Brokers))
}
