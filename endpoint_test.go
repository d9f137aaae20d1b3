package gokafka

import (
	"testing"

	"github.com/trivago/gokafka/shared"
)

// TestServerKeyHostPortRoundTrip covers spec.md §8's universal invariant
// that a ServerKey formed from (host, port) parses back to the same pair,
// including the IPv6-bracketing case.
func TestServerKeyHostPortRoundTrip(t *testing.T) {
	expect := shared.NewExpect(t)

	cases := []struct {
		host string
		port int
	}{
		{"broker1.example.com", 9092},
		{"10.0.0.5", 9092},
		{"::1", 9093},
		{"2001:db8::1", 9094},
	}

	for _, c := range cases {
		key := formatServerKey(c.host, c.port)
		gotHost, gotPort, err := splitHostPort(key)
		expect.Nil(err)
		expect.StringEq(c.host, gotHost)
		expect.IntEq(c.port, gotPort)
	}
}

func TestSplitHostPortRejectsMissingPort(t *testing.T) {
	expect := shared.NewExpect(t)

	_, _, err := splitHostPort("broker1.example.com")
	expect.NotNil(err)
}
