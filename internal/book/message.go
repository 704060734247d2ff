// Package book sanitizes raw L2 orderbook wire messages into domain
// snapshots. The validator is a pure function of the message: coercion,
// ordering, outlier and spread checks happen in a single bounded pass per
// side.
package book

import "encoding/json"

// RawMessage is the wire shape of one L2 orderbook message. Levels arrive as
// two-element arrays whose entries may be JSON strings or numbers; coercion
// is the validator's job.
type RawMessage struct {
	Timestamp string  `json:"timestamp"`
	Exchange  string  `json:"exchange"`
	Symbol    string  `json:"symbol"`
	Asks      [][]any `json:"asks"`
	Bids      [][]any `json:"bids"`
}

// Decode parses a raw websocket payload into a RawMessage.
func Decode(payload []byte) (RawMessage, error) {
	var msg RawMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return RawMessage{}, err
	}
	return msg, nil
}
