// Package bridge is the background side of push delivery. It runs as an
// actor, independent of the app, and reaches the app only through messages
// posted to its clients.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/tableorder/pkg/config"
	"github.com/example/tableorder/pkg/notification"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ActorName = "bridge"

	DefaultTitle = "New Notification"
	GenericBody  = "You have a new message"

	ActionClose = "close"
)

type Actor struct {
	presenter Presenter
	clients   Clients
	config    config.BridgeConfig
	logger    *zap.Logger
}

func NewProps(presenter Presenter, clients Clients, cfg config.BridgeConfig, logger *zap.Logger) *actor.Props {
	if cfg.DefaultURL == "" {
		cfg.DefaultURL = "/"
	}
	return actor.PropsFromProducer(func() actor.Actor {
		return &Actor{
			presenter: presenter,
			clients:   clients,
			config:    cfg,
			logger:    logger.Named("bridge-actor"),
		}
	})
}

// Spawn starts the bridge and brings it straight to the active state.
func Spawn(system *actor.ActorSystem, presenter Presenter, clients Clients, cfg config.BridgeConfig, logger *zap.Logger) (*actor.PID, error) {
	pid, err := system.Root.SpawnNamed(NewProps(presenter, clients, cfg, logger), ActorName)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn bridge actor: %w", err)
	}
	system.Root.Send(pid, &Install{})
	system.Root.Send(pid, &Activate{})
	return pid, nil
}

func (a *Actor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.logger.Info("Bridge actor started")

	case *Install:
		a.logger.Info("Bridge installed, skipping wait")
		respond(ctx, &Outcome{Kind: OutcomeInstalled})

	case *Activate:
		n := a.clients.Claim()
		a.logger.Info("Bridge activated", zap.Int("clients", n))
		respond(ctx, &Outcome{Kind: OutcomeActivated, Clients: n})

	case *PushEvent:
		respond(ctx, a.handlePush(msg.Payload))

	case *NotificationClick:
		respond(ctx, a.handleClick(msg))

	case *actor.Stopping:
		a.logger.Info("Bridge actor stopping")

	case *actor.Stopped:
		a.logger.Info("Bridge actor stopped")
	}
}

func respond(ctx actor.Context, out *Outcome) {
	if ctx.Sender() != nil {
		ctx.Respond(out)
	}
}

// parsePush decodes the payload as JSON, then as plain text, then gives up
// and returns a generic notification.
func (a *Actor) parsePush(raw []byte) notification.Payload {
	p, err := notification.ParsePayload(raw)
	if err == nil {
		return p
	}
	if json.Valid(raw) {
		a.logger.Warn("Push payload is JSON but not a notification payload, showing it as text",
			zap.Int("bytes", len(raw)),
			zap.Error(err))
	}
	if text := strings.TrimSpace(string(raw)); text != "" && utf8.ValidString(text) {
		return notification.Payload{Notification: &notification.Content{Title: DefaultTitle, Body: text}}
	}
	return notification.Payload{Notification: &notification.Content{Title: DefaultTitle, Body: GenericBody}}
}

func (a *Actor) handlePush(raw []byte) *Outcome {
	p := a.parsePush(raw)

	switch env := notification.Classify(p).(type) {
	case notification.Silent:
		return a.broadcast(env.Data)
	case notification.Active:
		return a.show(p, env.Category)
	default:
		return a.show(p, "")
	}
}

func (a *Actor) broadcast(data map[string]string) *Outcome {
	msg := notification.ClientMessage{Type: notification.MessageSilentNotification, Data: data}
	sent := 0
	for _, id := range a.clients.IDs() {
		if err := a.clients.Post(id, msg); err != nil {
			a.logger.Warn("Failed to post silent notification", zap.String("client_id", id), zap.Error(err))
			continue
		}
		sent++
	}
	a.logger.Debug("Silent notification broadcast", zap.String("action", data["action"]), zap.Int("clients", sent))
	return &Outcome{Kind: OutcomeBroadcast, Clients: sent}
}

func (a *Actor) show(p notification.Payload, category string) *Outcome {
	data := p.Data
	if data == nil {
		data = map[string]string{}
	}

	var title, body string
	if category == notification.CategoryOrderStatus {
		title, body = notification.Compose(p.Notification, data)
	} else {
		if p.Notification != nil {
			title, body = p.Notification.Title, p.Notification.Body
		}
		if title == "" {
			title = data["title"]
		}
		if body == "" {
			body = data["body"]
		}
		if title == "" {
			title = DefaultTitle
		}
	}

	n := Notification{
		ID:    uuid.NewString(),
		Title: title,
		Body:  body,
		Icon:  a.config.Icon,
		Badge: a.config.Badge,
		Tag:   data["orderId"],
		Data: NotificationData{
			URL:     a.targetURL(data["url"], data["clickAction"]),
			OrderID: data["orderId"],
		},
	}
	if err := a.presenter.Show(n); err != nil {
		a.logger.Error("Failed to show notification", zap.Error(err))
		return &Outcome{Kind: OutcomeFailed, Err: err}
	}
	return &Outcome{Kind: OutcomeShown, Notification: &n, URL: n.Data.URL}
}

func (a *Actor) targetURL(candidates ...string) string {
	for _, u := range candidates {
		if u != "" {
			return u
		}
	}
	return a.config.DefaultURL
}

func (a *Actor) handleClick(msg *NotificationClick) *Outcome {
	a.presenter.Close(msg.Notification)
	if msg.Action == ActionClose {
		return &Outcome{Kind: OutcomeClosed}
	}

	url := a.targetURL(msg.Notification.Data.URL)

	if ids := a.clients.IDs(); len(ids) > 0 {
		id := ids[0]
		if err := a.clients.Focus(id); err != nil {
			a.logger.Warn("Failed to focus client", zap.String("client_id", id), zap.Error(err))
		} else if err := a.clients.Post(id, notification.ClientMessage{Type: notification.MessageNavigate, URL: url}); err != nil {
			a.logger.Warn("Failed to post navigation", zap.String("client_id", id), zap.Error(err))
		} else {
			return &Outcome{Kind: OutcomeFocused, Clients: 1, URL: url}
		}
	}

	if _, err := a.clients.OpenWindow(url); err != nil {
		a.logger.Error("Failed to open window", zap.String("url", url), zap.Error(err))
		return &Outcome{Kind: OutcomeFailed, URL: url, Err: err}
	}
	return &Outcome{Kind: OutcomeOpened, URL: url}
}

// Ref is how the app talks to a running bridge actor.
type Ref struct {
	root    *actor.RootContext
	pid     *actor.PID
	timeout time.Duration
}

func NewRef(system *actor.ActorSystem, pid *actor.PID, timeout time.Duration) *Ref {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Ref{root: system.Root, pid: pid, timeout: timeout}
}

// HandlePush delivers a raw payload without waiting for the outcome.
func (r *Ref) HandlePush(_ context.Context, raw []byte) {
	payload := append([]byte(nil), raw...)
	r.root.Send(r.pid, &PushEvent{Payload: payload})
}

func (r *Ref) Click(n Notification, action string) (*Outcome, error) {
	return r.request(&NotificationClick{Action: action, Notification: n})
}

func (r *Ref) request(msg interface{}) (*Outcome, error) {
	res, err := r.root.RequestFuture(r.pid, msg, r.timeout).Result()
	if err != nil {
		return nil, fmt.Errorf("bridge request failed: %w", err)
	}
	out, ok := res.(*Outcome)
	if !ok {
		return nil, fmt.Errorf("unexpected bridge reply %T", res)
	}
	return out, nil
}
