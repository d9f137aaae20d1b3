package gokafka

// ApiVersionsRequest has no body (spec.md §4.1 "ApiVersions").
type ApiVersionsRequest struct{}

func (r *ApiVersionsRequest) key() int16 { return apiKeyApiVersions }

func (r *ApiVersionsRequest) encode(e *encoder, version int16) *Error { return nil }

// ApiVersionRange is one api_key's supported version window, as
// advertised by a broker.
type ApiVersionRange struct {
	APIKey     int16
	MinVersion int16
	MaxVersion int16
}

// ApiVersionsResponse is the decoded reply. A Kafka <= 0.9 broker does
// not know this api_key at all; the dispatcher catches the resulting
// fatal response non-fatally and leaves the broker's negotiated map
// empty, so every api_key falls back to the compile-time default version
// 0 (spec.md §4.1 "ApiVersions").
type ApiVersionsResponse struct {
	ErrorCode  int16
	APIVersions []ApiVersionRange
}

func (r *ApiVersionsResponse) decode(d *decoder, version int16) *Error {
	code, err := d.getInt16()
	if err != nil {
		return err
	}
	r.ErrorCode = code
	n, err := d.getArrayLength()
	if err != nil {
		return err
	}
	r.APIVersions = make([]ApiVersionRange, n)
	for i := 0; i < n; i++ {
		key, err := d.getInt16()
		if err != nil {
			return err
		}
		min, err := d.getInt16()
		if err != nil {
			return err
		}
		max, err := d.getInt16()
		if err != nil {
			return err
		}
		r.APIVersions[i] = ApiVersionRange{APIKey: key, MinVersion: min, MaxVersion: max}
	}
	return nil
}

func (r *ApiVersionsResponse) firstError() int16 { return r.ErrorCode }
