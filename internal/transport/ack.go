package transport

import (
	"encoding/json"
	"fmt"
)

// Ack statuses
const (
	AckOK    = "ok"
	AckError = "error"
)

// Ack is the bridge's reply to a payload frame
type Ack struct {
	Status  string `json:"status"`
	Entries int    `json:"entries,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the bridge accepted the payload
func (a Ack) OK() bool {
	return a.Status == AckOK
}

// Err returns an error for a rejected payload
func (a Ack) Err() error {
	if a.OK() {
		return nil
	}
	if a.Message != "" {
		return fmt.Errorf("bridge rejected payload: %s", a.Message)
	}
	return fmt.Errorf("bridge rejected payload (status %q)", a.Status)
}

// ParseAck decodes an acknowledgement frame
func ParseAck(data []byte) (Ack, error) {
	var a Ack
	if err := json.Unmarshal(data, &a); err != nil {
		return Ack{}, fmt.Errorf("invalid acknowledgement: %w", err)
	}
	return a, nil
}

// Marshal encodes the acknowledgement
func (a Ack) Marshal() []byte {
	data, _ := json.Marshal(a)
	return data
}
