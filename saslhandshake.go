package gokafka

// SaslMechanismPlain is the only mechanism this client negotiates
// (spec.md Non-goals: "SASL mechanisms beyond PLAIN").
const SaslMechanismPlain = "PLAIN"

// SaslHandshakeRequest announces the mechanism the client intends to use.
type SaslHandshakeRequest struct {
	Mechanism string
}

func (r *SaslHandshakeRequest) key() int16 { return apiKeySaslHandshake }

func (r *SaslHandshakeRequest) encode(e *encoder, version int16) *Error {
	return e.putNonNullString(r.Mechanism)
}

// SaslHandshakeResponse reports whether the mechanism was accepted and,
// if not, which mechanisms the broker does support.
type SaslHandshakeResponse struct {
	ErrorCode         int16
	EnabledMechanisms []string
}

func (r *SaslHandshakeResponse) decode(d *decoder, version int16) *Error {
	code, err := d.getInt16()
	if err != nil {
		return err
	}
	r.ErrorCode = code
	n, err := d.getArrayLength()
	if err != nil {
		return err
	}
	r.EnabledMechanisms = make([]string, n)
	for i := 0; i < n; i++ {
		m, err := d.getString()
		if err != nil {
			return err
		}
		if m != nil {
			r.EnabledMechanisms[i] = *m
		}
	}
	return nil
}

func (r *SaslHandshakeResponse) firstError() int16 { return r.ErrorCode }

// encodeSaslPlainFrame builds the single length-prefixed PLAIN
// authentication frame sent immediately after a successful handshake:
// "\0" || username || "\0" || password (spec.md §4.1 "SaslHandshake +
// PLAIN"). The broker's reply is a length-prefixed (possibly empty)
// frame with no further structure, so the caller reads it as raw bytes.
func encodeSaslPlainFrame(username, password string) []byte {
	e := newEncoder()
	e.push(&lengthField{})
	e.putRawBytes([]byte{0})
	e.putRawBytes([]byte(username))
	e.putRawBytes([]byte{0})
	e.putRawBytes([]byte(password))
	_ = e.pop()
	return e.bytes()
}
