package gokafka

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is the taxonomy described by the protocol: a Kafka cluster error
// (server-assigned Code), a client-local I/O/protocol error (negative
// Code, no broker involvement), or a fatal argument error. Every fallible
// call in this package returns an *Error (or nil) rather than touching
// shared mutable state - see kerr in the franz-go project for the same
// shape applied to just the cluster-error half of this taxonomy.
type Error struct {
	Code        int16
	Message     string
	Retriable   bool
	ServerKey   string
	Topic       string
	Partition   int32
	cause       error
}

// Error fulfils the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Topic != "" {
		msg = fmt.Sprintf("%s (topic=%s partition=%d)", msg, e.Topic, e.Partition)
	}
	if e.ServerKey != "" {
		msg = fmt.Sprintf("%s [server=%s]", msg, e.ServerKey)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.cause.Error())
	}
	return msg
}

// Cause returns the wrapped I/O error, if any, so that errors.Cause (and
// github.com/pkg/errors helpers in general) can unwrap this type.
func (e *Error) Cause() error { return e.cause }

// WithContext returns a copy of e annotated with the request's
// server/topic/partition, used by the dispatcher when it promotes a bare
// cluster error code into a caller-facing *Error.
func (e *Error) WithContext(serverKey, topic string, partition int32) *Error {
	cp := *e
	cp.ServerKey = serverKey
	cp.Topic = topic
	cp.Partition = partition
	return &cp
}

func wrapError(base *Error, cause error) *Error {
	cp := *base
	cp.cause = errors.WithStack(cause)
	return &cp
}

// Client-local error codes. These never appear on the wire; they are
// negative so they can never collide with a Kafka-assigned code.
const (
	codeCannotBind          int16 = -100
	codeCannotSend          int16 = -101
	codeCannotRecv          int16 = -102
	codeNoConnection        int16 = -103
	codeResponseNotReceived int16 = -104
	codeMismatchCorrelation int16 = -105
	codeUnknownAPIKey       int16 = -106
	codeNotBinaryString     int16 = -107
	codeMalformed           int16 = -108
	codeSendNoAck           int16 = -109
	codeArgument            int16 = -110
	codeUnsupportedVersion  int16 = -111
)

var (
	// ErrCannotBind is raised when connect() fails at any step.
	ErrCannotBind = &Error{Code: codeCannotBind, Message: "ERROR_CANNOT_BIND"}
	// ErrCannotSend is raised when setting the write deadline or writing
	// a frame fails for a reason other than a closed peer.
	ErrCannotSend = &Error{Code: codeCannotSend, Message: "ERROR_CANNOT_SEND"}
	// ErrCannotRecv is raised on an EOF mid-message.
	ErrCannotRecv = &Error{Code: codeCannotRecv, Message: "ERROR_CANNOT_RECV"}
	// ErrNoConnection is raised when the peer has closed the socket;
	// retriable by the dispatcher.
	ErrNoConnection = &Error{Code: codeNoConnection, Message: "ERROR_NO_CONNECTION", Retriable: true}
	// ErrResponseNotReceived is the ERROR_RESPONSE_NOT_RECEIVED code. No
	// path in this package returns it; a receive that hits its deadline
	// is reported as ErrCannotRecv.
	ErrResponseNotReceived = &Error{Code: codeResponseNotReceived, Message: "ERROR_RESPONSE_NOT_RECEIVED"}
	// ErrMismatchCorrelationID is fatal: a response's correlation id did
	// not match the request that was sent.
	ErrMismatchCorrelationID = &Error{Code: codeMismatchCorrelation, Message: "ERROR_MISMATCH_CORRELATIONID"}
	// ErrUnknownAPIKey is the fatal ERROR_UNKNOWN_APIKEY code. No path in
	// this package returns it; an api key with no usable negotiated
	// version is reported as ErrUnsupportedVersion.
	ErrUnknownAPIKey = &Error{Code: codeUnknownAPIKey, Message: "ERROR_UNKNOWN_APIKEY"}
	// ErrNotBinaryString is fatal: a string field required UTF-8-safe
	// bytes but a caller passed something else.
	ErrNotBinaryString = &Error{Code: codeNotBinaryString, Message: "ERROR_NOT_BINARY_STRING"}
	// ErrMalformed is fatal: a response could not be parsed as a
	// well-formed request/response structure.
	ErrMalformed = &Error{Code: codeMalformed, Message: "ERROR_REQUEST_OR_RESPONSE"}
	// ErrSendNoAck is the producer-specific fatal error: the outcome of a
	// Produce request could not be confirmed once bytes left the socket.
	// The caller must decide whether duplicate delivery is acceptable.
	ErrSendNoAck = &Error{Code: codeSendNoAck, Message: "ERROR_SEND_NO_ACK"}
	// ErrArgument marks a programmer error caught before any I/O.
	ErrArgument = &Error{Code: codeArgument, Message: "ERROR_ARGUMENT"}
	// ErrUnsupportedVersion is fatal: the broker's minimum supported
	// version for an api key is above the highest version this client
	// implements for it.
	ErrUnsupportedVersion = &Error{Code: codeUnsupportedVersion, Message: "ERROR_UNSUPPORTED_VERSION"}
)

// newArgumentError builds a fatal, pre-I/O argument error.
func newArgumentError(format string, args ...interface{}) *Error {
	cp := *ErrArgument
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Cluster error codes, as returned in the per-partition/per-topic
// error_code field of a response. Names follow the Kafka protocol
// table; retriable membership matches spec's fixed retry_set exactly
// (see retrySet in retry.go).
const (
	ErrUnknown                      int16 = -1
	ErrNone                         int16 = 0
	ErrOffsetOutOfRange             int16 = 1
	ErrInvalidMessage               int16 = 2
	ErrUnknownTopicOrPartition      int16 = 3
	ErrInvalidMessageSize           int16 = 4
	ErrLeaderNotAvailable           int16 = 5
	ErrNotLeaderForPartition        int16 = 6
	ErrRequestTimedOut              int16 = 7
	ErrBrokerNotAvailable           int16 = 8
	ErrReplicaNotAvailable          int16 = 9
	ErrMessageSizeTooLarge          int16 = 10
	ErrStaleControllerEpoch         int16 = 11
	ErrOffsetMetadataTooLarge       int16 = 12
	ErrNetworkException             int16 = 13
	ErrGroupLoadInProgress          int16 = 14
	ErrGroupCoordinatorNotAvailable int16 = 15
	ErrNotCoordinatorForGroup       int16 = 16
	ErrInvalidTopic                 int16 = 17
	ErrRecordListTooLarge           int16 = 18
	ErrNotEnoughReplicas            int16 = 19
	ErrNotEnoughReplicasAfterAppend int16 = 20
	ErrInvalidRequiredAcks          int16 = 21
	ErrIllegalGeneration            int16 = 22
	ErrInconsistentGroupProtocol    int16 = 23
	ErrInvalidGroupID               int16 = 24
	ErrUnknownMemberID              int16 = 25
	ErrInvalidSessionTimeout        int16 = 26
	ErrRebalanceInProgress          int16 = 27
	ErrInvalidCommitOffsetSize      int16 = 28
	ErrTopicAuthorizationFailed     int16 = 29
	ErrGroupAuthorizationFailed     int16 = 30
	ErrClusterAuthorizationFailed   int16 = 31
	ErrMetadataAttributes           int16 = 1000 // client-local: reserved attribute bits / unknown codec
)

// clusterErrorMessages gives a human string for the codes this client
// ever inspects directly; codes outside this map still decode fine, they
// just print as "cluster error <code>".
var clusterErrorMessages = map[int16]string{
	ErrUnknown:                      "UNKNOWN_SERVER_ERROR",
	ErrNone:                         "NO_ERROR",
	ErrOffsetOutOfRange:             "OFFSET_OUT_OF_RANGE",
	ErrInvalidMessage:               "INVALID_MESSAGE",
	ErrUnknownTopicOrPartition:      "UNKNOWN_TOPIC_OR_PARTITION",
	ErrInvalidMessageSize:           "INVALID_MESSAGE_SIZE",
	ErrLeaderNotAvailable:           "LEADER_NOT_AVAILABLE",
	ErrNotLeaderForPartition:        "NOT_LEADER_FOR_PARTITION",
	ErrRequestTimedOut:              "REQUEST_TIMED_OUT",
	ErrBrokerNotAvailable:           "BROKER_NOT_AVAILABLE",
	ErrReplicaNotAvailable:          "REPLICA_NOT_AVAILABLE",
	ErrMessageSizeTooLarge:          "MESSAGE_SIZE_TOO_LARGE",
	ErrStaleControllerEpoch:         "STALE_CONTROLLER_EPOCH",
	ErrOffsetMetadataTooLarge:       "OFFSET_METADATA_TOO_LARGE",
	ErrNetworkException:             "NETWORK_EXCEPTION",
	ErrGroupLoadInProgress:          "GROUP_LOAD_IN_PROGRESS",
	ErrGroupCoordinatorNotAvailable: "GROUP_COORDINATOR_NOT_AVAILABLE",
	ErrNotCoordinatorForGroup:       "NOT_COORDINATOR_FOR_GROUP",
	ErrInvalidTopic:                 "INVALID_TOPIC_EXCEPTION",
	ErrRecordListTooLarge:           "RECORD_LIST_TOO_LARGE",
	ErrNotEnoughReplicas:            "NOT_ENOUGH_REPLICAS",
	ErrNotEnoughReplicasAfterAppend: "NOT_ENOUGH_REPLICAS_AFTER_APPEND",
	ErrInvalidRequiredAcks:          "INVALID_REQUIRED_ACKS",
	ErrRebalanceInProgress:          "REBALANCE_IN_PROGRESS",
	ErrMetadataAttributes:           "ERROR_METADATA_ATTRIBUTES",
}

// newClusterError builds the *Error a dispatcher raises or retries for a
// per-partition/per-topic error_code returned by a broker.
func newClusterError(code int16) *Error {
	msg, ok := clusterErrorMessages[code]
	if !ok {
		msg = fmt.Sprintf("cluster error %d", code)
	}
	return &Error{Code: code, Message: msg, Retriable: isRetriableCode(code)}
}
