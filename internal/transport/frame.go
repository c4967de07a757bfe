package transport

import "encoding/json"

// rawFrame is the wire shape of an inbound message before its data payload
// has been dispatched to a type-specific decoder.
type rawFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseFrame implements §4.7's on-message parse step: required string
// `type`, optional object `data`. Returns the exact §7 error strings on
// malformed input.
func ParseFrame(raw []byte) (msgType string, data json.RawMessage, errMsg string) {
	var frame rawFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return "", nil, ErrInvalidMessageFormat
	}
	if frame.Type == "" {
		return "", nil, ErrMissingMessageType
	}
	return frame.Type, frame.Data, ""
}
