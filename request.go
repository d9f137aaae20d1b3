package gokafka

// API keys this client implements (spec.md §4 per-API sections).
const (
	apiKeyProduce          int16 = 0
	apiKeyFetch            int16 = 1
	apiKeyOffset           int16 = 2
	apiKeyMetadata         int16 = 3
	apiKeyOffsetCommit     int16 = 8
	apiKeyOffsetFetch      int16 = 9
	apiKeyFindCoordinator  int16 = 10
	apiKeySaslHandshake    int16 = 17
	apiKeyApiVersions      int16 = 18
)

// Request is implemented by every api-specific request body. key
// identifies the api_key header field; the dispatcher supplies version after
// negotiating it against the target broker's advertised api_versions map
// (spec.md §4.1 "the dispatcher supplies api_version; the codec does not
// choose versions").
type Request interface {
	key() int16
	encode(e *encoder, version int16) *Error
}

// Response is implemented by every api-specific response body.
type Response interface {
	decode(d *decoder, version int16) *Error
}

// encodeRequest writes the common frame prelude ahead of every
// request body: int32 total-length (backfilled), int16 api_key, int16
// api_version, int32 correlation_id, string client_id.
func encodeRequest(req Request, version int16, correlationID int32, clientID string) ([]byte, *Error) {
	e := newEncoder()
	e.push(&lengthField{})
	e.putInt16(req.key())
	e.putInt16(version)
	e.putInt32(correlationID)
	if err := e.putNonNullString(clientID); err != nil {
		return nil, err
	}
	if err := req.encode(e, version); err != nil {
		return nil, err
	}
	if err := e.pop(); err != nil { // lengthField
		return nil, err
	}
	return e.bytes(), nil
}

// responseHeader is the common frame prelude read ahead of every response
// body: int32 total-length (already consumed by the IO endpoint to size
// the read), int32 correlation_id.
type responseHeader struct {
	CorrelationID int32
}

func decodeResponseHeader(d *decoder) (*responseHeader, *Error) {
	corr, err := d.getInt32()
	if err != nil {
		return nil, err
	}
	return &responseHeader{CorrelationID: corr}, nil
}

// decodeResponse reads the shared header then hands the remaining bytes
// to resp.decode, checking the correlation id against what was sent
// (spec.md §3 invariant: "CorrelationId on a response MUST equal the
// CorrelationId sent; mismatch is fatal").
func decodeResponse(buf []byte, sentCorrelationID int32, version int16, resp Response) *Error {
	d := newDecoder(buf)
	hdr, err := decodeResponseHeader(d)
	if err != nil {
		return err
	}
	if hdr.CorrelationID != sentCorrelationID {
		return ErrMismatchCorrelationID
	}
	return resp.decode(d, version)
}
