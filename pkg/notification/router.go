package notification

import (
	"context"

	"github.com/example/tableorder/pkg/audit"
	"go.uber.org/zap"
)

type Outcome string

const (
	Dispatched Outcome = "dispatched"
	Dropped    Outcome = "dropped"
)

// Callbacks left nil are skipped.
type Callbacks struct {
	OnOrderUpdate func(orderID string)
	OnMenuUpdate  func()
	OnCartUpdate  func()
	OnNavigate    func(url string)
}

type Router struct {
	callbacks Callbacks
	presenter Presenter
	audit     audit.Recorder
	logger    *zap.Logger
}

func NewRouter(cb Callbacks, presenter Presenter, rec audit.Recorder, logger *zap.Logger) *Router {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Router{
		callbacks: cb,
		presenter: presenter,
		audit:     rec,
		logger:    logger.Named("notification"),
	}
}

// Handle never fails; anything it cannot route is logged and dropped.
func (r *Router) Handle(ctx context.Context, env Envelope) Outcome {
	switch e := env.(type) {
	case Silent:
		return r.handleSilent(ctx, e)
	case Active:
		return r.handleActive(ctx, e)
	case Unknown:
		return r.drop(ctx, "unknown notification type", e.Data, zap.String("type", e.Type))
	default:
		return r.drop(ctx, "unsupported envelope", nil)
	}
}

// HandlePush parses and handles a raw foreground payload.
func (r *Router) HandlePush(ctx context.Context, raw []byte) {
	p, err := ParsePayload(raw)
	if err != nil {
		r.drop(ctx, "unparseable payload", nil, zap.Error(err))
		return
	}
	r.Handle(ctx, Classify(p))
}

// HandleClientMessage consumes a message posted by the background bridge.
func (r *Router) HandleClientMessage(ctx context.Context, msg ClientMessage) Outcome {
	switch msg.Type {
	case MessageSilentNotification:
		return r.Handle(ctx, Classify(Payload{Data: msg.Data}))
	case MessageNavigate:
		if msg.URL == "" {
			return r.drop(ctx, "navigate without url", nil)
		}
		if r.callbacks.OnNavigate != nil {
			r.callbacks.OnNavigate(msg.URL)
		}
		return Dispatched
	default:
		return r.drop(ctx, "unknown client message", nil, zap.String("message_type", msg.Type))
	}
}

func (r *Router) handleSilent(ctx context.Context, e Silent) Outcome {
	switch e.Action {
	case ActionRefreshOrder:
		orderID := e.Data["orderId"]
		if orderID == "" {
			return r.drop(ctx, "refresh_order without orderId", e.Data)
		}
		if r.callbacks.OnOrderUpdate != nil {
			r.callbacks.OnOrderUpdate(orderID)
		}
	case ActionRefreshMenu:
		if r.callbacks.OnMenuUpdate != nil {
			r.callbacks.OnMenuUpdate()
		}
	case ActionRefreshCart:
		if r.callbacks.OnCartUpdate != nil {
			r.callbacks.OnCartUpdate()
		}
	default:
		return r.drop(ctx, "unknown silent action", e.Data, zap.String("action", e.Action))
	}
	return r.dispatched(ctx, TypeSilent+":"+e.Action, e.Data)
}

func (r *Router) handleActive(ctx context.Context, e Active) Outcome {
	if e.Category != CategoryOrderStatus {
		return r.drop(ctx, "unknown active category", e.Data, zap.String("category", e.Category))
	}

	orderID := e.Data["orderId"]
	title, body := Compose(e.Notification, e.Data)
	if r.presenter != nil {
		r.presenter.Present(Message{Level: LevelInfo, Title: title, Body: body, OrderID: orderID})
	}
	if orderID != "" && r.callbacks.OnOrderUpdate != nil {
		r.callbacks.OnOrderUpdate(orderID)
	}
	return r.dispatched(ctx, TypeActive+":"+e.Category, e.Data)
}

func (r *Router) dispatched(ctx context.Context, route string, data map[string]string) Outcome {
	r.logger.Debug("Notification dispatched", zap.String("route", route))
	r.audit.Record(ctx, audit.ActionNotificationDispatched, data["orderId"], map[string]interface{}{
		"route": route,
	})
	return Dispatched
}

func (r *Router) drop(ctx context.Context, reason string, data map[string]string, fields ...zap.Field) Outcome {
	r.logger.Info("Notification dropped", append(fields, zap.String("reason", reason))...)
	r.audit.Record(ctx, audit.ActionNotificationDropped, data["orderId"], map[string]interface{}{
		"reason": reason,
	})
	return Dropped
}
