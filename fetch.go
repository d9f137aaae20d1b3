package gokafka

// FetchRequest requests one (topic, partition) range; see package doc for
// why this client keeps requests single-partition even though the wire
// format (and this encoder) support an array of topics/partitions.
type FetchRequest struct {
	ReplicaID   int32 // always -1 for a consumer client
	MaxWaitTime int32 // milliseconds
	MinBytes    int32
	MaxBytes    int32 // version >= 3 only
	Topics      map[string]map[int32]FetchPartitionRequest
}

// FetchPartitionRequest is one partition's fetch parameters.
type FetchPartitionRequest struct {
	FetchOffset int64
	MaxBytes    int32
}

func (r *FetchRequest) key() int16 { return apiKeyFetch }

func (r *FetchRequest) encode(e *encoder, version int16) *Error {
	e.putInt32(r.ReplicaID)
	e.putInt32(r.MaxWaitTime)
	e.putInt32(r.MinBytes)
	if version >= 3 {
		e.putInt32(r.MaxBytes)
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
			e.putInt64(p.FetchOffset)
			e.putInt32(p.MaxBytes)
		}
	}
	return nil
}

// FetchPartitionResponse is one partition's fetched messages, already
// expanded (compressed wrapper messages are recursively decoded, and a
// truncated trailing message is silently discarded) per spec.md §4.1
// "Fetch response partial-message tolerance".
type FetchPartitionResponse struct {
	Partition           int32
	ErrorCode           int16
	HighwaterMarkOffset int64
	Messages            []*Message
}

// FetchResponse is the decoded reply to a FetchRequest.
type FetchResponse struct {
	// ThrottleTime is only populated for version >= 1.
	ThrottleTime int32
	Topics       map[string][]FetchPartitionResponse
	// RewriteInnerOffsets controls whether expandCompressedMessage
	// renumbers inner message offsets to the outer wrapper's offset (see
	// DESIGN.md's Open Question decision); set by Consumer.Fetch from
	// Config before the request is dispatched.
	RewriteInnerOffsets bool
}

func (r *FetchResponse) decode(d *decoder, version int16) *Error {
	if version >= 1 {
		tt, err := d.getInt32()
		if err != nil {
			return err
		}
		r.ThrottleTime = tt
	}

	n, err := d.getArrayLength()
	if err != nil {
		return err
	}
	r.Topics = make(map[string][]FetchPartitionResponse, n)
	for i := 0; i < n; i++ {
		topic, err := d.getString()
		if err != nil {
			return err
		}
		pn, err := d.getArrayLength()
		if err != nil {
			return err
		}
		parts := make([]FetchPartitionResponse, pn)
		for j := 0; j < pn; j++ {
			partition, err := d.getInt32()
			if err != nil {
				return err
			}
			code, err := d.getInt16()
			if err != nil {
				return err
			}
			hw, err := d.getInt64()
			if err != nil {
				return err
			}
			setSize, err := d.getInt32()
			if err != nil {
				return err
			}
			if setSize < 0 {
				return ErrMalformed
			}
			// Tolerant read: the declared message_set_size MAY exceed
			// what remains in the buffer (spec.md §4.1 partial-message
			// tolerance applies to the whole set, not just one message),
			// so clamp rather than requiring the full declared length.
			avail := d.remaining()
			take := int(setSize)
			if take > avail {
				take = avail
			}
			raw, err := d.getRawBytes(take)
			if err != nil {
				return err
			}

			msgs, decErr := decodeMessageSet(raw, hw, r.RewriteInnerOffsets)
			if decErr != nil {
				return decErr
			}
			parts[j] = FetchPartitionResponse{
				Partition:           partition,
				ErrorCode:           code,
				HighwaterMarkOffset: hw,
				Messages:            msgs,
			}
		}
		name := ""
		if topic != nil {
			name = *topic
		}
		r.Topics[name] = parts
	}
	return nil
}

func (r *FetchResponse) firstError() int16 {
	for _, parts := range r.Topics {
		for _, p := range parts {
			if p.ErrorCode != ErrNone && p.ErrorCode != ErrReplicaNotAvailable {
				return p.ErrorCode
			}
		}
	}
	return ErrNone
}
