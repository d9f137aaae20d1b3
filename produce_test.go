package gokafka

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/trivago/gokafka/shared"
)

func TestProduceRequestEncodeLiteral(t *testing.T) {
	expect := shared.NewExpect(t)

	req := &ProduceRequest{
		RequiredAcks: AcksLeader,
		Timeout:      1500,
		Topics: map[string]map[int32][]*Message{
			"mytopic": {0: {{Key: nil, Value: []byte("Hello!")}}},
		},
	}

	got, err := encodeRequest(req, 0, 4, "")
	expect.Nil(err)

	want := mustHex(strings.Join([]string{
		"00000049", "0000", "0000", "00000004", "0000",
		"0001", "000005dc", "00000001", "0007", hex.EncodeToString([]byte("mytopic")),
		"00000001", "00000000", "00000020", "0000000000000000", "00000014",
		"8dc795a2", "00", "00", "ffffffff", "00000006", hex.EncodeToString([]byte("Hello!")),
	}, ""))

	expect.HexEq(want, got)
}

func TestProduceResponseDecodeLiteral(t *testing.T) {
	expect := shared.NewExpect(t)

	raw := mustHex(strings.Join([]string{
		"00000023", "00000004", "00000001", "0007", hex.EncodeToString([]byte("mytopic")),
		"00000001", "00000000", "0000", "0000000000000000",
	}, ""))

	// The first int32 in raw is the frame length the IO endpoint would
	// already have consumed to size the read; decodeResponse only sees
	// what follows it.
	body := raw[4:]

	resp := &ProduceResponse{}
	err := decodeResponse(body, 4, 0, resp)
	expect.Nil(err)
	expect.IntEq(1, len(resp.Topics["mytopic"]))
	expect.Int64Eq(0, resp.Topics["mytopic"][0].Offset)
	expect.IntEq(int(ErrNone), int(resp.Topics["mytopic"][0].ErrorCode))
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
