package gokafka

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trivago/gokafka/shared"
)

// fakeRequest is one decoded request frame handed to a fakeBroker's
// handler, with the header fields already stripped off.
type fakeRequest struct {
	apiKey  int16
	version int16
	corrID  int32
	body    []byte
}

// fakeBroker is a minimal in-process broker: it frames/unframes exactly
// like a real one but defers all response content to the test's handler,
// letting each scenario script the exact wire behavior spec.md describes
// without a live Kafka cluster.
type fakeBroker struct {
	ln     net.Listener
	handle func(fakeRequest) []byte // nil return means "write nothing back"
}

func startFakeBroker(t *testing.T, handle func(fakeRequest) []byte) *fakeBroker {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %s", err)
	}
	fb := &fakeBroker{ln: ln, handle: handle}
	go fb.serve()
	t.Cleanup(func() { fb.ln.Close() })
	return fb
}

func (fb *fakeBroker) addr() string { return fb.ln.Addr().String() }

func (fb *fakeBroker) serve() {
	for {
		conn, err := fb.ln.Accept()
		if err != nil {
			return
		}
		go fb.handleConn(conn)
	}
}

func (fb *fakeBroker) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		var lenBuf [4]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		body := make([]byte, binary.BigEndian.Uint32(lenBuf[:]))
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}

		d := newDecoder(body)
		apiKey, err := d.getInt16()
		if err != nil {
			return
		}
		version, err := d.getInt16()
		if err != nil {
			return
		}
		corrID, err := d.getInt32()
		if err != nil {
			return
		}
		if _, err := d.getString(); err != nil { // client_id
			return
		}
		rest, err := d.getRawBytes(d.remaining())
		if err != nil {
			return
		}

		resp := fb.handle(fakeRequest{apiKey: apiKey, version: version, corrID: corrID, body: rest})
		if resp == nil {
			continue
		}
		if _, err := conn.Write(resp); err != nil {
			return
		}
	}
}

// frameResponse writes the common int32-length/int32-correlation_id
// response prelude ahead of whatever bodyFn appends.
func frameResponse(corrID int32, bodyFn func(e *encoder)) []byte {
	e := newEncoder()
	e.push(&lengthField{})
	e.putInt32(corrID)
	bodyFn(e)
	_ = e.pop()
	return e.bytes()
}

func encodeMetadataResponseBody(e *encoder, brokers []MetadataBroker, topics []MetadataTopic) {
	_, _ = e.putArrayLength(len(brokers))
	for _, b := range brokers {
		e.putInt32(b.NodeID)
		_ = e.putNonNullString(b.Host)
		e.putInt32(b.Port)
	}
	_, _ = e.putArrayLength(len(topics))
	for _, topic := range topics {
		e.putInt16(topic.ErrorCode)
		_ = e.putNonNullString(topic.Name)
		_, _ = e.putArrayLength(len(topic.Partitions))
		for _, p := range topic.Partitions {
			e.putInt16(p.ErrorCode)
			e.putInt32(p.Partition)
			e.putInt32(p.Leader)
			_, _ = e.putArrayLength(len(p.Replicas))
			for _, r := range p.Replicas {
				e.putInt32(r)
			}
			_, _ = e.putArrayLength(len(p.ISR))
			for _, r := range p.ISR {
				e.putInt32(r)
			}
		}
	}
}

func encodeProduceResponseBody(e *encoder, topic string, partition int32, errCode int16, offset int64) {
	_, _ = e.putArrayLength(1)
	_ = e.putNonNullString(topic)
	_, _ = e.putArrayLength(1)
	e.putInt32(partition)
	e.putInt16(errCode)
	e.putInt64(offset)
}

// encodeFindCoordinatorResponseBody writes a v0 FindCoordinatorResponse
// body: error_code, node_id, host, port (no throttle_time/error_message,
// both v1-only).
func encodeFindCoordinatorResponseBody(e *encoder, errCode int16, nodeID int32, host string, port int32) {
	e.putInt16(errCode)
	e.putInt32(nodeID)
	_ = e.putNonNullString(host)
	e.putInt32(port)
}

// encodeOffsetCommitResponseBody writes a one-topic, one-partition
// OffsetCommitResponse body.
func encodeOffsetCommitResponseBody(e *encoder, topic string, partition int32, errCode int16) {
	_, _ = e.putArrayLength(1)
	_ = e.putNonNullString(topic)
	_, _ = e.putArrayLength(1)
	e.putInt32(partition)
	e.putInt16(errCode)
}

func testConfig(addr string) *Config {
	cfg := DefaultConfig()
	cfg.BrokerList = []string{addr}
	cfg.SendMaxAttempts = 4
	cfg.RetryBackoffMs = 5
	cfg.DontLoadAPIVersions = true // no ApiVersions round trip to script
	return cfg
}

func mustHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		panic(err)
	}
	return host
}

func mustPort(addr string) int32 {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		panic(err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		panic(err)
	}
	return int32(p)
}

// TestMetadataRefreshRetriesUntilPopulated implements spec.md scenario 4:
// auto_create_topics=true and an empty broker list is retriable, not
// fatal; a later attempt that returns populated metadata succeeds and
// leaves the topic in the cache.
func TestMetadataRefreshRetriesUntilPopulated(t *testing.T) {
	expect := shared.NewExpect(t)

	var calls int32
	fb := startFakeBroker(t, func(req fakeRequest) []byte {
		if req.apiKey != apiKeyMetadata {
			return nil
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			return frameResponse(req.corrID, func(e *encoder) {
				encodeMetadataResponseBody(e, nil, nil) // empty broker list
			})
		}
		return frameResponse(req.corrID, func(e *encoder) {
			encodeMetadataResponseBody(e,
				[]MetadataBroker{{NodeID: 1, Host: "127.0.0.1", Port: 9999}},
				[]MetadataTopic{{Name: "orders", Partitions: []MetadataPartition{{Partition: 0, Leader: 1}}}},
			)
		})
	})

	cfg := testConfig(fb.addr())
	cfg.AutoCreateTopics = true
	client, err := NewClient(cfg, nil)
	expect.Nil(err)

	first := client.RefreshMetadata(context.Background(), "orders")
	expect.NotNil(first)
	expect.True(isRetriableCode(first.Code))

	second := client.RefreshMetadata(context.Background(), "orders")
	expect.Nil(second)

	snap := client.cache.snapshot("orders")
	if _, ok := snap["orders"][0]; !ok {
		t.Fatalf("orders/0 missing from cache after a successful refresh")
	}
}

// TestProduceAcksNoneSkipsReceive implements spec.md scenario 5: with
// required_acks=0, the dispatcher synthesizes offset=-1 without ever
// reading from the socket, so a broker that never writes a response
// still lets the call complete within one RTT.
func TestProduceAcksNoneSkipsReceive(t *testing.T) {
	expect := shared.NewExpect(t)

	fb := startFakeBroker(t, func(req fakeRequest) []byte {
		return nil // never respond, to any request
	})

	cfg := testConfig(fb.addr())
	client, err := NewClient(cfg, nil)
	expect.Nil(err)
	client.cache.merge(&MetadataResponse{
		Brokers: []MetadataBroker{{NodeID: 1, Host: mustHost(fb.addr()), Port: mustPort(fb.addr())}},
		Topics:  []MetadataTopic{{Name: "orders", Partitions: []MetadataPartition{{Partition: 0, Leader: 1}}}},
	}, client.reg)

	done := make(chan struct{})
	var result *ProduceResult
	var sendErr *Error
	go func() {
		result, sendErr = client.Producer().Send(context.Background(), "orders", 0, AcksNone, 1000, CompressionNone, []*Message{{Value: []byte("x")}})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send with AcksNone blocked waiting on a socket read it should never perform")
	}

	expect.Nil(sendErr)
	expect.Int64Eq(-1, result.Offset)
}

// TestDispatchFollowsLeaderMove implements spec.md scenario 6: broker A
// (the stale cached leader) answers NOT_LEADER_FOR_PARTITION to a
// Produce, a metadata refresh triggered by that response hands back
// broker B as the new leader, and the dispatcher's second attempt
// succeeds against B.
func TestDispatchFollowsLeaderMove(t *testing.T) {
	expect := shared.NewExpect(t)

	brokerB := startFakeBroker(t, func(req fakeRequest) []byte {
		if req.apiKey != apiKeyProduce {
			return nil
		}
		return frameResponse(req.corrID, func(e *encoder) {
			encodeProduceResponseBody(e, "orders", 0, ErrNone, 42)
		})
	})
	hostB, portB := mustHost(brokerB.addr()), mustPort(brokerB.addr())

	// Both brokers answer Metadata the same way a real cluster would —
	// any member can serve the current topology, including the new
	// leader, regardless of which broker is asked.
	movedTopology := func(e *encoder) {
		encodeMetadataResponseBody(e,
			[]MetadataBroker{{NodeID: 2, Host: hostB, Port: portB}},
			[]MetadataTopic{{Name: "orders", Partitions: []MetadataPartition{{Partition: 0, Leader: 2}}}},
		)
	}

	var produceCalls int32
	brokerA := startFakeBroker(t, func(req fakeRequest) []byte {
		switch req.apiKey {
		case apiKeyProduce:
			atomic.AddInt32(&produceCalls, 1)
			return frameResponse(req.corrID, func(e *encoder) {
				encodeProduceResponseBody(e, "orders", 0, ErrNotLeaderForPartition, 0)
			})
		case apiKeyMetadata:
			return frameResponse(req.corrID, movedTopology)
		}
		return nil
	})
	hostA, portA := mustHost(brokerA.addr()), mustPort(brokerA.addr())

	cfg := testConfig(brokerA.addr())
	cfg.SendMaxAttempts = 3
	client, err := NewClient(cfg, nil)
	expect.Nil(err)

	client.cache.merge(&MetadataResponse{
		Brokers: []MetadataBroker{
			{NodeID: 1, Host: hostA, Port: portA},
			{NodeID: 2, Host: hostB, Port: portB},
		},
		Topics: []MetadataTopic{{Name: "orders", Partitions: []MetadataPartition{{Partition: 0, Leader: 1}}}},
	}, client.reg)

	result, sendErr := client.Producer().Send(context.Background(), "orders", 0, AcksLeader, 1000, CompressionNone, []*Message{{Value: []byte("x")}})
	expect.Nil(sendErr)
	expect.Int64Eq(42, result.Offset)
	if atomic.LoadInt32(&produceCalls) == 0 {
		t.Fatalf("expected at least one produce attempt against the stale leader")
	}
}

// TestDispatchFollowsCoordinatorMove covers a coordinator-targeted
// request's equivalent of TestDispatchFollowsLeaderMove: broker A (the
// stale cached coordinator) answers OffsetCommit with
// NOT_COORDINATOR_FOR_GROUP, which must drive a FindCoordinator refresh
// within the same CommitOffset call (via Client.coordinatorRefresher),
// landing on broker B as the new coordinator on the next attempt.
func TestDispatchFollowsCoordinatorMove(t *testing.T) {
	expect := shared.NewExpect(t)

	brokerB := startFakeBroker(t, func(req fakeRequest) []byte {
		if req.apiKey != apiKeyOffsetCommit {
			return nil
		}
		return frameResponse(req.corrID, func(e *encoder) {
			encodeOffsetCommitResponseBody(e, "orders", 0, ErrNone)
		})
	})
	hostB, portB := mustHost(brokerB.addr()), mustPort(brokerB.addr())

	var commitCalls int32
	brokerA := startFakeBroker(t, func(req fakeRequest) []byte {
		switch req.apiKey {
		case apiKeyOffsetCommit:
			atomic.AddInt32(&commitCalls, 1)
			return frameResponse(req.corrID, func(e *encoder) {
				encodeOffsetCommitResponseBody(e, "orders", 0, ErrNotCoordinatorForGroup)
			})
		case apiKeyFindCoordinator:
			return frameResponse(req.corrID, func(e *encoder) {
				encodeFindCoordinatorResponseBody(e, ErrNone, 2, hostB, portB)
			})
		}
		return nil
	})
	hostA, portA := mustHost(brokerA.addr()), mustPort(brokerA.addr())

	cfg := testConfig(brokerA.addr())
	cfg.SendMaxAttempts = 3
	client, err := NewClient(cfg, nil)
	expect.Nil(err)

	client.reg.insertOrUpdate(1, true, hostA, int(portA))
	client.reg.insertOrUpdate(2, true, hostB, int(portB))
	client.cache.setCoordinator("consumers", formatServerKey(hostA, int(portA)))

	commitErr := client.Consumer().CommitOffset(context.Background(), "consumers", "orders", 0, 100, "")
	expect.Nil(commitErr)
	if atomic.LoadInt32(&commitCalls) == 0 {
		t.Fatalf("expected at least one commit attempt against the stale coordinator")
	}

	newCoord, ok := client.cache.coordinator("consumers")
	if !ok || newCoord != formatServerKey(hostB, int(portB)) {
		t.Fatalf("expected coordinator to move to broker B, got %q (ok=%v)", newCoord, ok)
	}
}
