package gokafka

import "github.com/prometheus/client_golang/prometheus"

// RequiredAcks controls how many replicas must acknowledge a Produce
// request before the broker responds (spec.md §4.1 "Produce request").
type RequiredAcks int16

const (
	// AcksNone is fire-and-forget: the broker sends no response at all,
	// and the dispatcher MUST NOT read from the socket (spec.md §3
	// invariant).
	AcksNone RequiredAcks = 0
	// AcksLeader waits for the partition leader's local log write.
	AcksLeader RequiredAcks = 1
	// AcksAll blocks until every in-sync replica has committed.
	AcksAll RequiredAcks = -1
)

var (
	batchSizeHisto = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "produce",
			Name:      "batch_size_bytes",
			Help:      "Size in bytes of each encoded MessageSet sent to a broker.",
		},
		[]string{"topic"},
	)
	compressionRatioHisto = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "produce",
			Name:      "compression_ratio",
			Help:      "Ratio of uncompressed to compressed bytes for compressed batches.",
		},
		[]string{"topic"},
	)
	recordSendCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "produce",
			Name:      "records_sent_total",
			Help:      "Number of records sent, by topic.",
		},
		[]string{"topic"},
	)
)

func init() {
	metricsRegistry.MustRegister(batchSizeHisto, compressionRatioHisto, recordSendCounter)
}

// ProduceRequest carries one or more topic/partition batches. The Client
// facade only ever populates a single (topic, partition) entry per call
// (see package doc), but the wire format and this encoder support the
// full array shape a broker expects.
type ProduceRequest struct {
	RequiredAcks RequiredAcks
	Timeout      int32 // milliseconds
	Topics       map[string]map[int32][]*Message
	Compression  CompressionCodec
	// UseTimestamps selects message body v1 (adds the per-message
	// timestamp field); when false, v0 bodies are written.
	UseTimestamps bool
}

func (r *ProduceRequest) key() int16 { return apiKeyProduce }

func (r *ProduceRequest) encode(e *encoder, version int16) *Error {
	e.putInt16(int16(r.RequiredAcks))
	e.putInt32(r.Timeout)

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
		var topicRecords int64
		for partition, msgs := range partitions {
			e.putInt32(partition)

			magic := int8(0)
			if r.UseTimestamps {
				magic = 1
			}
			batch := make([]*Message, len(msgs))
			for i, m := range msgs {
				cp := *m
				cp.Magic = magic
				batch[i] = &cp
			}

			inner, err := encodeMessageSet(batch)
			if err != nil {
				return err
			}

			startOffset := e.offset()
			if r.Compression == CompressionNone {
				e.push(&lengthField{})
				e.putRawBytes(inner)
				if err := e.pop(); err != nil {
					return err
				}
			} else {
				compressed, err := compress(r.Compression, inner)
				if err != nil {
					return err
				}
				wrapper := &Message{Magic: magic, Value: compressed}
				wrapper.setCompression(r.Compression)
				if len(batch) > 0 {
					wrapper.Key = batch[len(batch)-1].Key // last key, per §9 Open Questions
				}
				wrapped, err := encodeMessageSet([]*Message{wrapper})
				if err != nil {
					return err
				}
				e.push(&lengthField{})
				e.putRawBytes(wrapped)
				if err := e.pop(); err != nil {
					return err
				}
				if len(inner) > 0 {
					compressionRatioHisto.WithLabelValues(topic).Observe(float64(len(inner)) / float64(len(compressed)))
				}
			}

			batchSizeHisto.WithLabelValues(topic).Observe(float64(e.offset() - startOffset))
			topicRecords += int64(len(msgs))
		}
		if topicRecords > 0 {
			recordSendCounter.WithLabelValues(topic).Add(float64(topicRecords))
		}
	}
	return nil
}

// ProducePartitionResponse is one partition's result within a
// ProduceResponse.
type ProducePartitionResponse struct {
	Partition int32
	ErrorCode int16
	Offset    int64
}

// ProduceResponse is empty (zero topics) when RequiredAcks was AcksNone;
// the dispatcher synthesizes this case itself and never reads a socket
// for it (spec.md §3 invariant).
type ProduceResponse struct {
	Topics map[string][]ProducePartitionResponse
}

func (r *ProduceResponse) decode(d *decoder, version int16) *Error {
	n, err := d.getArrayLength()
	if err != nil {
		return err
	}
	r.Topics = make(map[string][]ProducePartitionResponse, n)
	for i := 0; i < n; i++ {
		topic, err := d.getString()
		if err != nil {
			return err
		}
		pn, err := d.getArrayLength()
		if err != nil {
			return err
		}
		parts := make([]ProducePartitionResponse, pn)
		for j := 0; j < pn; j++ {
			partition, err := d.getInt32()
			if err != nil {
				return err
			}
			code, err := d.getInt16()
			if err != nil {
				return err
			}
			offset, err := d.getInt64()
			if err != nil {
				return err
			}
			parts[j] = ProducePartitionResponse{Partition: partition, ErrorCode: code, Offset: offset}
		}
		name := ""
		if topic != nil {
			name = *topic
		}
		r.Topics[name] = parts
	}
	return nil
}

func (r *ProduceResponse) firstError() int16 {
	for _, parts := range r.Topics {
		for _, p := range parts {
			if p.ErrorCode != ErrNone {
				return p.ErrorCode
			}
		}
	}
	return ErrNone
}
