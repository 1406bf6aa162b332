// Package audit records what the client did for later inspection.
package audit

import "context"

const (
	ActionOrderPlaced            = "order_placed"
	ActionOrderFailed            = "order_failed"
	ActionNotificationDispatched = "notification_dispatched"
	ActionNotificationDropped    = "notification_dropped"
)

type Recorder interface {
	Record(ctx context.Context, action, entityID string, data map[string]interface{})
}

type Nop struct{}

func (Nop) Record(context.Context, string, string, map[string]interface{}) {}
