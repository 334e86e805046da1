package stream

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Client-facing event names.
const (
	FrameUpdate         = "update"
	FrameStatusUpdate   = "status.update"
	FrameDelete         = "delete"
	FrameNotification   = "notification"
	FrameAccountUpdate  = "account.update"
	FrameFiltersChanged = "filters_changed"
	FrameConnected      = "connected"
	FrameError          = "error"
)

// Frame is one message written to a client.
type Frame struct {
	Stream  []string        `json:"stream,omitempty"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Delivery is an item of a connection's delivery channel: a published event tagged
// with the stream it matched, or a control frame produced by the core itself.
type Delivery struct {
	Event   *Event
	Stream  []string
	control *Frame
}

// Frame converts the delivery to its wire frame.
func (d Delivery) Frame() Frame {
	if d.control != nil {
		return *d.control
	}
	if d.Event == nil {
		return Frame{}
	}
	return Frame{
		Stream:  d.Stream,
		Event:   d.Event.Kind.frameEvent(),
		Payload: d.Event.Payload,
	}
}

func controlDelivery(f Frame) Delivery {
	return Delivery{control: &f}
}

func connectedFrame(connectionID string) Frame {
	payload, _ := json.Marshal(map[string]string{"connection_id": connectionID})
	return Frame{Event: FrameConnected, Payload: payload}
}

func errorFrame(err error) Frame {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, ErrForbiddenStream):
		status = http.StatusForbidden
	case errors.Is(err, ErrTooManySubscriptions):
		status = http.StatusTooManyRequests
	}
	payload, _ := json.Marshal(struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}{Error: err.Error(), Status: status})
	return Frame{Event: FrameError, Payload: payload}
}
