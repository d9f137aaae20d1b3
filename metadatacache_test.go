package gokafka

import (
	"testing"

	"github.com/trivago/gokafka/shared"
)

// TestMetadataCacheMergeIsCumulative covers spec.md §3's invariant that a
// refresh merges new entries into the existing map rather than clearing
// it first: a topic absent from a later response keeps its last-known
// partition data.
func TestMetadataCacheMergeIsCumulative(t *testing.T) {
	expect := shared.NewExpect(t)

	reg, aerr := newRegistry(nil)
	expect.Nil(aerr)
	cache := newMetadataCache()

	first := &MetadataResponse{
		Brokers: []MetadataBroker{{NodeID: 1, Host: "broker1", Port: 9092}},
		Topics: []MetadataTopic{
			{Name: "topic-a", Partitions: []MetadataPartition{{Partition: 0, Leader: 1}}},
		},
	}
	cache.merge(first, reg)

	second := &MetadataResponse{
		Brokers: []MetadataBroker{{NodeID: 1, Host: "broker1", Port: 9092}},
		Topics: []MetadataTopic{
			{Name: "topic-b", Partitions: []MetadataPartition{{Partition: 0, Leader: 1}}},
		},
	}
	cache.merge(second, reg)

	snap := cache.snapshot("")
	expect.IntEq(2, len(snap))
	if _, ok := snap["topic-a"]; !ok {
		t.Fatalf("topic-a dropped after a refresh that didn't mention it")
	}
	if _, ok := snap["topic-b"]; !ok {
		t.Fatalf("topic-b missing after being merged")
	}

	key, ok := cache.leaderFor("topic-a", 0)
	expect.True(ok)
	expect.StringEq(formatServerKey("broker1", 9092), key)
}

// TestMetadataCacheMergeRegistersBrokers covers the merge->registry
// write-through: a broker advertised in a MetadataResponse must become
// resolvable by ServerKey so the dispatcher can connect to it.
func TestMetadataCacheMergeRegistersBrokers(t *testing.T) {
	expect := shared.NewExpect(t)

	reg, aerr := newRegistry(nil)
	expect.Nil(aerr)
	cache := newMetadataCache()

	resp := &MetadataResponse{
		Brokers: []MetadataBroker{{NodeID: 7, Host: "broker7", Port: 9092}},
	}
	cache.merge(resp, reg)

	entry, ok := reg.byServerKey(formatServerKey("broker7", 9092))
	expect.True(ok)
	expect.IntEq(7, int(entry.NodeID))

	byNode, ok := reg.byNodeID(7)
	expect.True(ok)
	expect.StringEq("broker7", byNode.Host)
}
