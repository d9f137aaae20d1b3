package gokafka

import (
	"testing"

	"github.com/trivago/gokafka/shared"
)

func TestEncoderFramingLengthPrefix(t *testing.T) {
	expect := shared.NewExpect(t)

	e := newEncoder()
	e.push(&lengthField{})
	e.putInt16(7)
	e.putNonNullString("abc")
	if err := e.pop(); err != nil {
		t.Fatalf("pop: %s", err)
	}

	buf := e.bytes()
	d := newDecoder(buf)
	length, err := d.getInt32()
	expect.Nil(err)
	expect.IntEq(len(buf)-4, int(length))
}

func TestStringRoundTripNullAndEmpty(t *testing.T) {
	expect := shared.NewExpect(t)

	e := newEncoder()
	expect.Nil(e.putString(nil))
	empty := ""
	expect.Nil(e.putString(&empty))
	expect.Nil(e.putNonNullString("hello"))

	d := newDecoder(e.bytes())
	s1, err := d.getString()
	expect.Nil(err)
	expect.Nil(s1)

	s2, err := d.getString()
	expect.Nil(err)
	expect.NotNil(s2)
	expect.StringEq("", *s2)

	s3, err := d.getString()
	expect.Nil(err)
	expect.StringEq("hello", *s3)
}

func TestBytesRoundTripNull(t *testing.T) {
	expect := shared.NewExpect(t)

	e := newEncoder()
	expect.Nil(e.putBytes(nil))
	expect.Nil(e.putBytes([]byte{1, 2, 3}))

	d := newDecoder(e.bytes())
	b1, err := d.getBytes()
	expect.Nil(err)
	expect.Nil(b1)

	b2, err := d.getBytes()
	expect.Nil(err)
	expect.BytesEq([]byte{1, 2, 3}, b2)
}

func TestInt64RoundTripSentinels(t *testing.T) {
	expect := shared.NewExpect(t)

	for _, v := range []int64{0, -1, -2, 1<<62 - 1, -(1 << 62)} {
		e := newEncoder()
		e.putInt64(v)
		d := newDecoder(e.bytes())
		got, err := d.getInt64()
		expect.Nil(err)
		expect.Int64Eq(v, got)
	}
}

func TestDecoderRequireReportsMalformed(t *testing.T) {
	expect := shared.NewExpect(t)

	d := newDecoder([]byte{0, 1})
	_, err := d.getInt32()
	expect.NotNil(err)
	expect.IntEq(int(codeMalformed), int(err.Code))
}
