package gokafka

// Wire sentinels for OffsetRequest.Time (spec.md §4.1 "Offset request").
const (
	OffsetLatest   int64 = -1
	OffsetEarliest int64 = -2
)

// OffsetRequest asks a partition's leader for valid log offsets around a
// timestamp. v0 supports MaxNumOffsets > 1 (a list of offsets walking
// backward from Time); v1 drops it and returns a single {timestamp,
// offset} pair, requiring a 0.10+ broker with message timestamps.
type OffsetRequest struct {
	ReplicaID int32 // always -1 for a consumer client
	Topics    map[string]map[int32]OffsetPartitionRequest
}

// OffsetPartitionRequest is one partition's query parameters.
type OffsetPartitionRequest struct {
	Time           int64
	MaxNumOffsets  int32 // v0 only
}

func (r *OffsetRequest) key() int16 { return apiKeyOffset }

func (r *OffsetRequest) encode(e *encoder, version int16) *Error {
	e.putInt32(r.ReplicaID)
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
			e.putInt64(p.Time)
			if version == 0 {
				e.putInt32(p.MaxNumOffsets)
			}
		}
	}
	return nil
}

// OffsetPartitionResponse is one partition's result. Offsets holds every
// returned offset for v0 (oldest to newest per the wire order); for v1 it
// always holds exactly one element and Timestamp is meaningful.
type OffsetPartitionResponse struct {
	Partition int32
	ErrorCode int16
	Timestamp int64 // v1 only; -1 if unknown
	Offsets   []int64
}

// OffsetResponse is the decoded reply to an OffsetRequest.
type OffsetResponse struct {
	Topics map[string][]OffsetPartitionResponse
}

func (r *OffsetResponse) decode(d *decoder, version int16) *Error {
	n, err := d.getArrayLength()
	if err != nil {
		return err
	}
	r.Topics = make(map[string][]OffsetPartitionResponse, n)
	for i := 0; i < n; i++ {
		topic, err := d.getString()
		if err != nil {
			return err
		}
		pn, err := d.getArrayLength()
		if err != nil {
			return err
		}
		parts := make([]OffsetPartitionResponse, pn)
		for j := 0; j < pn; j++ {
			partition, err := d.getInt32()
			if err != nil {
				return err
			}
			code, err := d.getInt16()
			if err != nil {
				return err
			}
			p := OffsetPartitionResponse{Partition: partition, ErrorCode: code}
			if version == 0 {
				on, err := d.getArrayLength()
				if err != nil {
					return err
				}
				offsets := make([]int64, on)
				for k := 0; k < on; k++ {
					off, err := d.getInt64()
					if err != nil {
						return err
					}
					offsets[k] = off
				}
				p.Offsets = offsets
			} else {
				ts, err := d.getInt64()
				if err != nil {
					return err
				}
				off, err := d.getInt64()
				if err != nil {
					return err
				}
				p.Timestamp = ts
				p.Offsets = []int64{off}
			}
			parts[j] = p
		}
		name := ""
		if topic != nil {
			name = *topic
		}
		r.Topics[name] = parts
	}
	return nil
}

func (r *OffsetResponse) firstError() int16 {
	for _, parts := range r.Topics {
		for _, p := range parts {
			if p.ErrorCode != ErrNone {
				return p.ErrorCode
			}
		}
	}
	return ErrNone
}
