package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when an envelope carries a tag the protocol does
// not define. Parsing fails closed: unknown kinds are rejected, not ignored.
var ErrUnknownKind = errors.New("unknown message kind")

var knownKinds = map[string]bool{
	MsgJoin:         true,
	MsgJoinAccepted: true,
	MsgPlayerJoined: true,
	MsgMoveIntent:   true,
	MsgPoseUpdate:   true,
	MsgStopIntent:   true,
	MsgPlayerLeft:   true,
	MsgClock:        true,
	MsgChat:         true,
	MsgChatHistory:  true,
}

// Encode wraps a payload in an envelope of the given kind.
func Encode(kind string, payload any) ([]byte, error) {
	if !knownKinds[kind] {
		return nil, fmt.Errorf("encode %q: %w", kind, ErrUnknownKind)
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %q payload: %w", kind, err)
	}
	return json.Marshal(Envelope{T: kind, P: pb})
}

// DecodeEnvelope parses the outer frame and validates the tag.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, errors.New("empty message")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	if !knownKinds[e.T] {
		return Envelope{}, fmt.Errorf("decode %q: %w", e.T, ErrUnknownKind)
	}
	return e, nil
}

// DecodePayload unmarshals an envelope's payload into a concrete message type.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("empty payload for kind %q", env.T)
	}
	if err := json.Unmarshal(env.P, &out); err != nil {
		return out, fmt.Errorf("payload for kind %q: %w", env.T, err)
	}
	return out, nil
}
