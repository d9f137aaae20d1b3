package gokafka

import "time"

// OffsetCommitRequest persists consumed offsets for a group. This client
// has no group membership protocol (spec.md Non-goals), so it always
// sends GenerationID=-1, MemberID="" on v1, matching spec.md §4.1
// "OffsetCommit / OffsetFetch".
type OffsetCommitRequest struct {
	GroupID       string
	GenerationID  int32 // v1 only; always -1
	MemberID      string // v1 only; always ""
	Topics        map[string]map[int32]OffsetCommitPartitionRequest
}

// OffsetCommitPartitionRequest is one partition's commit payload.
type OffsetCommitPartitionRequest struct {
	Offset   int64
	Metadata string
}

func (r *OffsetCommitRequest) key() int16 { return apiKeyOffsetCommit }

func (r *OffsetCommitRequest) encode(e *encoder, version int16) *Error {
	if err := e.putNonNullString(r.GroupID); err != nil {
		return err
	}
	if version >= 1 {
		e.putInt32(r.GenerationID)
		if err := e.putNonNullString(r.MemberID); err != nil {
			return err
		}
	}
	if err, _ := e.putArrayLength(len(r.Topics)); err != nil {
		return err
	}
	for topic, partitions := range r.Topics {
		if err := e.putNonNullString(topic); err != nil {
			return err
		}
		if err, _ := e.putArrayLength(len(partitions)); err != nil {
			return err
		}
		for partition, p := range partitions {
			e.putInt32(partition)
			e.putInt64(p.Offset)
			if version >= 1 {
				e.putInt64(time.Now().UnixNano() / int64(time.Millisecond))
			}
			if err := e.putNonNullString(p.Metadata); err != nil {
				return err
			}
		}
	}
	return nil
}

// OffsetCommitPartitionResponse is one partition's commit result.
type OffsetCommitPartitionResponse struct {
	Partition int32
	ErrorCode int16
}

// OffsetCommitResponse is the decoded reply to an OffsetCommitRequest.
type OffsetCommitResponse struct {
	Topics map[string][]OffsetCommitPartitionResponse
}

func (r *OffsetCommitResponse) decode(d *decoder, version int16) *Error {
	n, err := d.getArrayLength()
	if err != nil {
		return err
	}
	r.Topics = make(map[string][]OffsetCommitPartitionResponse, n)
	for i := 0; i < n; i++ {
		topic, err := d.getString()
		if err != nil {
			return err
		}
		pn, err := d.getArrayLength()
		if err != nil {
			return err
		}
		parts := make([]OffsetCommitPartitionResponse, pn)
		for j := 0; j < pn; j++ {
			partition, err := d.getInt32()
			if err != nil {
				return err
			}
			code, err := d.getInt16()
			if err != nil {
				return err
			}
			parts[j] = OffsetCommitPartitionResponse{Partition: partition, ErrorCode: code}
		}
		name := ""
		if topic != nil {
			name = *topic
		}
		r.Topics[name] = parts
	}
	return nil
}

func (r *OffsetCommitResponse) firstError() int16 {
	for _, parts := range r.Topics {
		for _, p := range parts {
			if p.ErrorCode != ErrNone {
				return p.ErrorCode
			}
		}
	}
	return ErrNone
}
