package gokafka

import "context"

// Producer sends messages to one topic/partition per call, per the
// package's single-(topic,partition)-per-request design.
type Producer struct {
	client *Client
}

// NewProducer wraps an existing Client.
func NewProducer(client *Client) *Producer { return client.Producer() }

// Producer returns a Producer bound to this Client.
func (c *Client) Producer() *Producer { return &Producer{client: c} }

// ProduceResult is what Send returns on success. With RequiredAcks ==
// AcksNone, Offset is always -1 (the broker sent no response to read it
// from), matching spec.md §4.5's synthesized fire-and-forget reply.
type ProduceResult struct {
	Partition int32
	Offset    int64
}

// Send encodes msgs as one MessageSet (optionally compressed) and
// produces it to topic/partition, retrying per Config and resolving the
// partition leader from cached (or freshly refreshed) metadata.
func (p *Producer) Send(ctx context.Context, topic string, partition int32, acks RequiredAcks, timeout int32, compression CompressionCodec, msgs []*Message) (*ProduceResult, *Error) {
	if len(msgs) == 0 {
		return nil, newArgumentError("Send requires at least one message")
	}
	if err := p.client.ensureLeader(ctx, topic, partition); err != nil {
		if _, ok := p.client.cache.leaderFor(topic, partition); !ok {
			return nil, err
		}
	}

	req := &ProduceRequest{
		RequiredAcks: acks,
		Timeout:      timeout,
		Compression:  compression,
		Topics: map[string]map[int32][]*Message{
			topic: {partition: msgs},
		},
	}
	resp := &ProduceResponse{}

	disp := p.client.disp
	err := disp.dispatch(ctx, leaderTarget(topic, partition), apiKeyProduce, req, resp, true, acks, p.client.refresher())
	if err != nil {
		return nil, err
	}

	if acks == AcksNone {
		return &ProduceResult{Partition: partition, Offset: -1}, nil
	}
	for _, parts := range resp.Topics {
		for _, pr := range parts {
			if pr.Partition == partition {
				return &ProduceResult{Partition: partition, Offset: pr.Offset}, nil
			}
		}
	}
	return nil, ErrMalformed
}
