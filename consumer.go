package gokafka

import "context"

// Consumer fetches messages from one topic/partition per call.
type Consumer struct {
	client *Client
}

// NewConsumer wraps an existing Client.
func NewConsumer(client *Client) *Consumer { return client.Consumer() }

// Consumer returns a Consumer bound to this Client.
func (c *Client) Consumer() *Consumer { return &Consumer{client: c} }

// FetchResult is one partition's fetched batch.
type FetchResult struct {
	HighwaterMarkOffset int64
	Messages            []*Message
}

// Fetch requests messages for topic/partition starting at offset, up to
// maxBytes, waiting at most maxWaitMs for minBytes to accumulate on the
// broker side. Messages with an offset below the requested offset (left
// over from a decompressed batch that starts earlier) are dropped.
func (cs *Consumer) Fetch(ctx context.Context, topic string, partition int32, offset int64, maxWaitMs, minBytes, maxBytes int32) (*FetchResult, *Error) {
	if err := cs.client.ensureLeader(ctx, topic, partition); err != nil {
		if _, ok := cs.client.cache.leaderFor(topic, partition); !ok {
			return nil, err
		}
	}

	req := &FetchRequest{
		ReplicaID:   -1,
		MaxWaitTime: maxWaitMs,
		MinBytes:    minBytes,
		MaxBytes:    maxBytes,
		Topics: map[string]map[int32]FetchPartitionRequest{
			topic: {partition: {FetchOffset: offset, MaxBytes: maxBytes}},
		},
	}
	resp := &FetchResponse{RewriteInnerOffsets: cs.client.cfg.RewriteInnerOffsets}

	disp := cs.client.disp
	if err := disp.dispatch(ctx, leaderTarget(topic, partition), apiKeyFetch, req, resp, false, 0, cs.client.refresher()); err != nil {
		return nil, err
	}

	for _, parts := range resp.Topics {
		for _, pr := range parts {
			if pr.Partition == partition {
				msgs := make([]*Message, 0, len(pr.Messages))
				for _, m := range pr.Messages {
					if m.Offset >= offset {
						msgs = append(msgs, m)
					}
				}
				return &FetchResult{HighwaterMarkOffset: pr.HighwaterMarkOffset, Messages: msgs}, nil
			}
		}
	}
	return &FetchResult{}, nil
}

// OffsetRange asks a partition's leader for the earliest/latest valid
// offsets, or a timestamp-indexed offset on a 0.10+ broker (v1).
func (cs *Consumer) OffsetRange(ctx context.Context, topic string, partition int32, when int64) ([]int64, *Error) {
	if err := cs.client.ensureLeader(ctx, topic, partition); err != nil {
		if _, ok := cs.client.cache.leaderFor(topic, partition); !ok {
			return nil, err
		}
	}

	req := &OffsetRequest{
		ReplicaID: -1,
		Topics: map[string]map[int32]OffsetPartitionRequest{
			topic: {partition: {Time: when, MaxNumOffsets: 1}},
		},
	}
	resp := &OffsetResponse{}

	disp := cs.client.disp
	if err := disp.dispatch(ctx, leaderTarget(topic, partition), apiKeyOffset, req, resp, false, 0, cs.client.refresher()); err != nil {
		return nil, err
	}
	for _, parts := range resp.Topics {
		for _, pr := range parts {
			if pr.Partition == partition {
				return pr.Offsets, nil
			}
		}
	}
	return nil, ErrMalformed
}

// CommitOffset persists a consumed offset for groupID against
// topic/partition, targeting that group's coordinator.
func (cs *Consumer) CommitOffset(ctx context.Context, groupID, topic string, partition int32, offset int64, metadata string) *Error {
	if _, err := cs.client.Coordinator(ctx, groupID); err != nil {
		return err
	}

	req := &OffsetCommitRequest{
		GroupID:      groupID,
		GenerationID: -1,
		MemberID:     "",
		Topics: map[string]map[int32]OffsetCommitPartitionRequest{
			topic: {partition: {Offset: offset, Metadata: metadata}},
		},
	}
	resp := &OffsetCommitResponse{}

	disp := cs.client.disp
	err := disp.dispatch(ctx, coordinatorTarget(groupID), apiKeyOffsetCommit, req, resp, false, 0, cs.client.coordinatorRefresher(groupID))
	if err != nil {
		if isNotCoordinatorError(err) {
			cs.client.InvalidateCoordinator(groupID)
		}
		return err
	}
	return nil
}

// FetchCommittedOffset retrieves groupID's last committed offset for
// topic/partition.
func (cs *Consumer) FetchCommittedOffset(ctx context.Context, groupID, topic string, partition int32) (*OffsetFetchPartitionResponse, *Error) {
	if _, err := cs.client.Coordinator(ctx, groupID); err != nil {
		return nil, err
	}

	req := &OffsetFetchRequest{GroupID: groupID, Topics: map[string][]int32{topic: {partition}}}
	resp := &OffsetFetchResponse{}

	disp := cs.client.disp
	err := disp.dispatch(ctx, coordinatorTarget(groupID), apiKeyOffsetFetch, req, resp, false, 0, cs.client.coordinatorRefresher(groupID))
	if err != nil {
		if isNotCoordinatorError(err) {
			cs.client.InvalidateCoordinator(groupID)
		}
		return nil, err
	}
	for _, parts := range resp.Topics {
		for _, pr := range parts {
			if pr.Partition == partition {
				return &pr, nil
			}
		}
	}
	return nil, ErrMalformed
}

func isNotCoordinatorError(err *Error) bool {
	return err.Code == ErrNotCoordinatorForGroup || err.Code == ErrGroupCoordinatorNotAvailable
}
