package gokafka

// firstPartitionError is implemented by every response type that carries
// per-topic/per-partition error codes, letting the dispatcher apply
// spec.md §4.5's "err = response.first_partition.error_code" step
// generically instead of per-API.
type firstPartitionError interface {
	firstError() int16
}
