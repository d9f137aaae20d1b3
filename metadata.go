package gokafka

// MetadataRequest asks for the broker/topic/partition layout. An empty
// Topics list means "all topics" (spec.md §4.1 "Metadata request/response").
type MetadataRequest struct {
	Topics []string
}

func (r *MetadataRequest) key() int16 { return apiKeyMetadata }

func (r *MetadataRequest) encode(e *encoder, version int16) *Error {
	if err, _ := e.putArrayLength(len(r.Topics)); err != nil {
		return err
	}
	for _, t := range r.Topics {
		if err := e.putNonNullString(t); err != nil {
			return err
		}
	}
	return nil
}

// MetadataBroker is one entry of the response's broker list.
type MetadataBroker struct {
	NodeID int32
	Host   string
	Port   int32
}

// MetadataPartition is one partition's leader/replica/isr view.
type MetadataPartition struct {
	ErrorCode int16
	Partition int32
	Leader    int32
	Replicas  []int32
	ISR       []int32
}

// MetadataTopic is one topic's error code plus its partitions.
type MetadataTopic struct {
	ErrorCode  int16
	Name       string
	Partitions []MetadataPartition
}

// MetadataResponse is the decoded reply to a MetadataRequest.
type MetadataResponse struct {
	Brokers []MetadataBroker
	Topics  []MetadataTopic
}

func (r *MetadataResponse) decode(d *decoder, version int16) *Error {
	bn, err := d.getArrayLength()
	if err != nil {
		return err
	}
	r.Brokers = make([]MetadataBroker, bn)
	for i := 0; i < bn; i++ {
		nodeID, err := d.getInt32()
		if err != nil {
			return err
		}
		host, err := d.getString()
		if err != nil {
			return err
		}
		port, err := d.getInt32()
		if err != nil {
			return err
		}
		h := ""
		if host != nil {
			h = *host
		}
		r.Brokers[i] = MetadataBroker{NodeID: nodeID, Host: h, Port: port}
	}

	tn, err := d.getArrayLength()
	if err != nil {
		return err
	}
	r.Topics = make([]MetadataTopic, tn)
	for i := 0; i < tn; i++ {
		code, err := d.getInt16()
		if err != nil {
			return err
		}
		name, err := d.getString()
		if err != nil {
			return err
		}
		pn, err := d.getArrayLength()
		if err != nil {
			return err
		}
		parts := make([]MetadataPartition, pn)
		for j := 0; j < pn; j++ {
			perr, err := d.getInt16()
			if err != nil {
				return err
			}
			partition, err := d.getInt32()
			if err != nil {
				return err
			}
			leader, err := d.getInt32()
			if err != nil {
				return err
			}
			rn, err := d.getArrayLength()
			if err != nil {
				return err
			}
			replicas := make([]int32, rn)
			for k := 0; k < rn; k++ {
				v, err := d.getInt32()
				if err != nil {
					return err
				}
				replicas[k] = v
			}
			isrn, err := d.getArrayLength()
			if err != nil {
				return err
			}
			isr := make([]int32, isrn)
			for k := 0; k < isrn; k++ {
				v, err := d.getInt32()
				if err != nil {
					return err
				}
				isr[k] = v
			}
			parts[j] = MetadataPartition{
				ErrorCode: perr,
				Partition: partition,
				Leader:    leader,
				Replicas:  replicas,
				ISR:       isr,
			}
		}
		n := ""
		if name != nil {
			n = *name
		}
		r.Topics[i] = MetadataTopic{ErrorCode: code, Name: n, Partitions: parts}
	}
	return nil
}

// firstError returns the first topic-level error, or else the first
// partition-level error other than ERROR_REPLICA_NOT_AVAILABLE. spec.md
// §4.1: "ERROR_REPLICA_NOT_AVAILABLE on a partition is treated as success
// for that partition."
func (r *MetadataResponse) firstError() int16 {
	for _, t := range r.Topics {
		if t.ErrorCode != ErrNone {
			return t.ErrorCode
		}
		for _, p := range t.Partitions {
			if p.ErrorCode != ErrNone && p.ErrorCode != ErrReplicaNotAvailable {
				return p.ErrorCode
			}
		}
	}
	return ErrNone
}
