package protocol

// Reply is one outbound packet, tagged with the identifier of the
// request it answers. A nil *Reply means the request is deliberately
// unanswered (cancel, undecodable frame, unknown command).
type Reply struct {
	Command byte
	Body    []byte
}

// NewReply creates a reply carrying the given body.
// The body is copied so later buffer reuse cannot corrupt the reply.
func NewReply(command byte, body []byte) *Reply {
	b := make([]byte, len(body))
	copy(b, body)
	return &Reply{Command: command, Body: b}
}

// Ack creates the generic one-byte status trailer reply. The status byte
// values live in lib/util so the error taxonomy and the trailer stay in
// one place.
func Ack(command byte, status byte) *Reply {
	return &Reply{Command: command, Body: []byte{status}}
}

// Len returns the reply payload length.
func (r *Reply) Len() int {
	return len(r.Body)
}

// Encode serializes the reply as [command][length][body]. Replies longer
// than MaxBody are legal at this layer; splitting them into transport
// frames is the transport's concern.
func (r *Reply) Encode() []byte {
	out := make([]byte, HeaderSize+len(r.Body))
	out[0] = r.Command
	out[1] = byte(len(r.Body))
	copy(out[HeaderSize:], r.Body)
	return out
}

// String returns a short description for logging. The body is elided:
// replies can carry plaintext credentials.
func (r *Reply) String() string {
	if r == nil {
		return "(no reply)"
	}
	return CommandName(r.Command)
}
