package bridge

import (
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/muurk/ephemeris/internal/payload"
	"github.com/muurk/ephemeris/internal/transport"
)

// Handler receives each decoded payload. Returning an error rejects the
// payload; the message is passed back in the acknowledgement.
type Handler func(remoteAddr string, p *payload.Payload) error

// DecodeFrame decodes a payload frame by its WebSocket message type
func DecodeFrame(messageType int, data []byte) (*payload.Payload, error) {
	switch messageType {
	case websocket.BinaryMessage:
		return payload.Decode(data, payload.EncodingCBOR)
	case websocket.TextMessage:
		return payload.Decode(data, payload.EncodingJSON)
	default:
		return nil, fmt.Errorf("unexpected message type %d", messageType)
	}
}

// HandleMessage decodes one frame, runs the handler and builds the
// acknowledgement to send back
func HandleMessage(handler Handler, remoteAddr string, messageType int, data []byte) (*payload.Payload, transport.Ack) {
	p, err := DecodeFrame(messageType, data)
	if err != nil {
		return nil, transport.Ack{Status: transport.AckError, Message: err.Error()}
	}

	if handler != nil {
		if err := handler(remoteAddr, p); err != nil {
			return p, transport.Ack{Status: transport.AckError, Message: err.Error()}
		}
	}

	return p, transport.Ack{Status: transport.AckOK, Entries: p.Len()}
}
