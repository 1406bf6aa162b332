// Package notification classifies push payloads and routes them to the
// foreground app: refresh callbacks for silent payloads, visible messages for
// active ones.
package notification

import (
	"encoding/json"
	"fmt"
)

const (
	TypeSilent = "silent"
	TypeActive = "active"

	ActionRefreshOrder = "refresh_order"
	ActionRefreshMenu  = "refresh_menu"
	ActionRefreshCart  = "refresh_cart"

	CategoryOrderStatus = "order_status"
)

type Content struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// Payload is the push message as delivered by the relay.
type Payload struct {
	Notification *Content         `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
}

func ParsePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("failed to parse push payload: %w", err)
	}
	return p, nil
}

// Envelope is one of Silent, Active or Unknown.
type Envelope interface {
	Kind() string
}

type Silent struct {
	Action string
	Data   map[string]string
}

type Active struct {
	Category     string
	Notification *Content
	Data         map[string]string
}

type Unknown struct {
	Type         string
	Notification *Content
	Data         map[string]string
}

func (Silent) Kind() string  { return TypeSilent }
func (Active) Kind() string  { return TypeActive }
func (Unknown) Kind() string { return "unknown" }

// Classify reads data.type. Anything other than silent or active is Unknown.
func Classify(p Payload) Envelope {
	data := p.Data
	if data == nil {
		data = map[string]string{}
	}
	switch data["type"] {
	case TypeSilent:
		return Silent{Action: data["action"], Data: data}
	case TypeActive:
		return Active{Category: data["category"], Notification: p.Notification, Data: data}
	default:
		return Unknown{Type: data["type"], Notification: p.Notification, Data: data}
	}
}

// Compose builds the visible title and body of an order status update,
// preferring explicit text from data, then the notification block.
func Compose(n *Content, data map[string]string) (title, body string) {
	title, body = data["title"], data["body"]
	if n != nil {
		if title == "" {
			title = n.Title
		}
		if body == "" {
			body = n.Body
		}
	}
	if title == "" {
		if num := data["orderNumber"]; num != "" {
			title = "Order #" + num
		} else {
			title = "Order Update"
		}
	}
	if body == "" {
		if status := data["status"]; status != "" {
			body = "Your order is now " + status
		} else {
			body = "Your order has been updated"
		}
	}
	return title, body
}
