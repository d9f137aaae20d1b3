package gokafka

// coordinatorTypeGroup is the only CoordinatorType this client ever
// requests (v1 adds the field; v0 only ever meant "group").
const coordinatorTypeGroup int8 = 0

// FindCoordinatorRequest locates the broker that owns a consumer group's
// offsets (spec.md §4.1 "FindCoordinator").
type FindCoordinatorRequest struct {
	GroupID string
}

func (r *FindCoordinatorRequest) key() int16 { return apiKeyFindCoordinator }

func (r *FindCoordinatorRequest) encode(e *encoder, version int16) *Error {
	if err := e.putNonNullString(r.GroupID); err != nil {
		return err
	}
	if version >= 1 {
		e.putInt8(coordinatorTypeGroup)
	}
	return nil
}

// FindCoordinatorResponse is the decoded reply.
type FindCoordinatorResponse struct {
	ThrottleTime int32 // v1 only
	ErrorCode    int16
	ErrorMessage string // v1 only
	NodeID       int32
	Host         string
	Port         int32
}

func (r *FindCoordinatorResponse) decode(d *decoder, version int16) *Error {
	if version >= 1 {
		tt, err := d.getInt32()
		if err != nil {
			return err
		}
		r.ThrottleTime = tt
	}
	code, err := d.getInt16()
	if err != nil {
		return err
	}
	r.ErrorCode = code
	if version >= 1 {
		msg, err := d.getString()
		if err != nil {
			return err
		}
		if msg != nil {
			r.ErrorMessage = *msg
		}
	}
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
	r.NodeID = nodeID
	if host != nil {
		r.Host = *host
	}
	r.Port = port
	return nil
}

func (r *FindCoordinatorResponse) firstError() int16 { return r.ErrorCode }
