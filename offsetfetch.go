package gokafka

// OffsetFetchRequest retrieves previously committed offsets for a group.
type OffsetFetchRequest struct {
	GroupID string
	Topics  map[string][]int32
}

func (r *OffsetFetchRequest) key() int16 { return apiKeyOffsetFetch }

func (r *OffsetFetchRequest) encode(e *encoder, version int16) *Error {
	if err := e.putNonNullString(r.GroupID); err != nil {
		return err
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
		for _, p := range partitions {
			e.putInt32(p)
		}
	}
	return nil
}

// OffsetFetchPartitionResponse is one partition's committed offset.
type OffsetFetchPartitionResponse struct {
	Partition int32
	Offset    int64
	Metadata  string
	ErrorCode int16
}

// OffsetFetchResponse is the decoded reply to an OffsetFetchRequest.
type OffsetFetchResponse struct {
	Topics map[string][]OffsetFetchPartitionResponse
}

func (r *OffsetFetchResponse) decode(d *decoder, version int16) *Error {
	n, err := d.getArrayLength()
	if err != nil {
		return err
	}
	r.Topics = make(map[string][]OffsetFetchPartitionResponse, n)
	for i := 0; i < n; i++ {
		topic, err := d.getString()
		if err != nil {
			return err
		}
		pn, err := d.getArrayLength()
		if err != nil {
			return err
		}
		parts := make([]OffsetFetchPartitionResponse, pn)
		for j := 0; j < pn; j++ {
			partition, err := d.getInt32()
			if err != nil {
				return err
			}
			offset, err := d.getInt64()
			if err != nil {
				return err
			}
			meta, err := d.getString()
			if err != nil {
				return err
			}
			code, err := d.getInt16()
			if err != nil {
				return err
			}
			m := ""
			if meta != nil {
				m = *meta
			}
			parts[j] = OffsetFetchPartitionResponse{Partition: partition, Offset: offset, Metadata: m, ErrorCode: code}
		}
		name := ""
		if topic != nil {
			name = *topic
		}
		r.Topics[name] = parts
	}
	return nil
}

func (r *OffsetFetchResponse) firstError() int16 {
	for _, parts := range r.Topics {
		for _, p := range parts {
			if p.ErrorCode != ErrNone {
				return p.ErrorCode
			}
		}
	}
	return ErrNone
}
