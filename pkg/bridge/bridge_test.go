package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/tableorder/pkg/config"
	"github.com/example/tableorder/pkg/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testConfig = config.BridgeConfig{
	Icon:       "/logo192.png",
	Badge:      "/badge-72x72.png",
	DefaultURL: "/",
}

type harness struct {
	system *actor.ActorSystem
	pid    *actor.PID
	tray   *Tray
	hub    *Hub
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	system := actor.NewActorSystem()
	tray := NewTray(zap.NewNop())
	hub := NewHub(4)
	pid, err := system.Root.SpawnNamed(NewProps(tray, hub, testConfig, zap.NewNop()), ActorName)
	require.NoError(t, err)
	t.Cleanup(func() { system.Root.Stop(pid) })
	return &harness{system: system, pid: pid, tray: tray, hub: hub}
}

func (h *harness) ask(t *testing.T, msg interface{}) *Outcome {
	t.Helper()
	res, err := h.system.Root.RequestFuture(h.pid, msg, time.Second).Result()
	require.NoError(t, err)
	out, ok := res.(*Outcome)
	require.True(t, ok, "unexpected reply %T", res)
	return out
}

func TestActivate_ClaimsClients(t *testing.T) {
	h := newHarness(t)
	a := h.hub.Subscribe()
	b := h.hub.Subscribe()

	assert.Equal(t, OutcomeInstalled, h.ask(t, &Install{}).Kind)

	out := h.ask(t, &Activate{})
	assert.Equal(t, OutcomeActivated, out.Kind)
	assert.Equal(t, 2, out.Clients)
	assert.True(t, h.hub.Controlled(a.ID))
	assert.True(t, h.hub.Controlled(b.ID))
}

func TestPush_SilentBroadcastsWithoutNotification(t *testing.T) {
	h := newHarness(t)
	a := h.hub.Subscribe()
	b := h.hub.Subscribe()

	out := h.ask(t, &PushEvent{Payload: []byte(`{"data":{"type":"silent","action":"refresh_order","orderId":"X"}}`)})
	assert.Equal(t, OutcomeBroadcast, out.Kind)
	assert.Equal(t, 2, out.Clients)
	assert.Empty(t, h.tray.List())

	for _, sub := range []*Subscription{a, b} {
		select {
		case msg := <-sub.C:
			assert.Equal(t, notification.MessageSilentNotification, msg.Type)
			assert.Equal(t, "X", msg.Data["orderId"])
		default:
			t.Fatalf("client %s got no message", sub.ID)
		}
	}
}

func TestPush_ActiveShowsTaggedNotification(t *testing.T) {
	h := newHarness(t)

	out := h.ask(t, &PushEvent{Payload: []byte(`{
		"data": {"type":"active","category":"order_status","orderId":"o-1","orderNumber":"17","status":"preparing","clickAction":"/orders/o-1"}
	}`)})
	require.Equal(t, OutcomeShown, out.Kind)
	n := out.Notification
	assert.Equal(t, "Order #17", n.Title)
	assert.Equal(t, "Your order is now preparing", n.Body)
	assert.Equal(t, "o-1", n.Tag)
	assert.Equal(t, "/logo192.png", n.Icon)
	assert.Equal(t, "/badge-72x72.png", n.Badge)
	assert.Equal(t, "/orders/o-1", n.Data.URL)

	h.ask(t, &PushEvent{Payload: []byte(`{"data":{"type":"active","category":"order_status","orderId":"o-1","status":"ready"}}`)})
	shown := h.tray.List()
	require.Len(t, shown, 1)
	assert.Equal(t, "Your order is now ready", shown[0].Body)
}

func TestPush_UnknownTypeStillShows(t *testing.T) {
	h := newHarness(t)

	out := h.ask(t, &PushEvent{Payload: []byte(`{"notification":{"title":"Happy hour","body":"Half price"},"data":{"url":"/menu"}}`)})
	require.Equal(t, OutcomeShown, out.Kind)
	assert.Equal(t, "Happy hour", out.Notification.Title)
	assert.Equal(t, "/menu", out.URL)
	assert.Empty(t, out.Notification.Tag)
}

func TestPush_Fallbacks(t *testing.T) {
	h := newHarness(t)

	out := h.ask(t, &PushEvent{Payload: []byte("Your table is ready")})
	require.Equal(t, OutcomeShown, out.Kind)
	assert.Equal(t, DefaultTitle, out.Notification.Title)
	assert.Equal(t, "Your table is ready", out.Notification.Body)
	assert.Equal(t, "/", out.URL)

	out = h.ask(t, &PushEvent{Payload: []byte{0xff, 0xfe}})
	require.Equal(t, OutcomeShown, out.Kind)
	assert.Equal(t, GenericBody, out.Notification.Body)

	assert.Len(t, h.tray.List(), 2)
}

func TestParsePush_LogsJSONThatIsNotAPayload(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	a := &Actor{config: testConfig, logger: zap.New(core)}

	raw := []byte(`{"data":{"type":"silent","action":"refresh_order","orderId":42}}`)
	p := a.parsePush(raw)
	require.NotNil(t, p.Notification)
	assert.Equal(t, DefaultTitle, p.Notification.Title)
	assert.Equal(t, string(raw), p.Notification.Body)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "not a notification payload")

	p = a.parsePush([]byte("Your table is ready"))
	assert.Equal(t, "Your table is ready", p.Notification.Body)
	assert.Equal(t, 1, logs.Len())
}

func TestClick_CloseActionStops(t *testing.T) {
	h := newHarness(t)
	sub := h.hub.Subscribe()
	shown := h.ask(t, &PushEvent{Payload: []byte(`{"data":{"type":"active","category":"order_status","orderId":"o-2"}}`)})

	out := h.ask(t, &NotificationClick{Action: ActionClose, Notification: *shown.Notification})
	assert.Equal(t, OutcomeClosed, out.Kind)
	assert.Empty(t, h.tray.List())
	assert.Empty(t, h.hub.Focused())
	assert.Len(t, sub.C, 0)
}

func TestClick_FocusesExistingClient(t *testing.T) {
	h := newHarness(t)
	first := h.hub.Subscribe()
	h.hub.Subscribe()

	var focused string
	h.hub.OnFocus(func(id string) { focused = id })

	shown := h.ask(t, &PushEvent{Payload: []byte(`{"data":{"type":"active","category":"order_status","orderId":"o-3","url":"/orders/o-3"}}`)})
	out := h.ask(t, &NotificationClick{Notification: *shown.Notification})

	assert.Equal(t, OutcomeFocused, out.Kind)
	assert.Equal(t, "/orders/o-3", out.URL)
	assert.Equal(t, first.ID, focused)
	assert.Empty(t, h.tray.List())

	msg := <-first.C
	assert.Equal(t, notification.ClientMessage{Type: notification.MessageNavigate, URL: "/orders/o-3"}, msg)
}

func TestClick_OpensWindowWithoutClients(t *testing.T) {
	h := newHarness(t)
	var opened string
	h.hub.SetOpener(func(url string) (string, error) {
		opened = url
		return "new-window", nil
	})

	out := h.ask(t, &NotificationClick{Notification: Notification{ID: "n-1"}})
	assert.Equal(t, OutcomeOpened, out.Kind)
	assert.Equal(t, "/", opened)
}

func TestClick_NoOpener(t *testing.T) {
	h := newHarness(t)

	out := h.ask(t, &NotificationClick{Notification: Notification{ID: "n-1", Data: NotificationData{URL: "/x"}}})
	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.True(t, errors.Is(out.Err, ErrNoOpener))
}

func TestRef(t *testing.T) {
	h := newHarness(t)
	sub := h.hub.Subscribe()
	ref := NewRef(h.system, h.pid, time.Second)

	ref.HandlePush(context.Background(), []byte(`{"data":{"type":"silent","action":"refresh_menu"}}`))

	select {
	case msg := <-sub.C:
		assert.Equal(t, "refresh_menu", msg.Data["action"])
	case <-time.After(time.Second):
		t.Fatal("silent notification not delivered")
	}

	out, err := ref.Click(Notification{ID: "n-9", Data: NotificationData{URL: "/orders"}}, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFocused, out.Kind)
	assert.Equal(t, notification.ClientMessage{Type: notification.MessageNavigate, URL: "/orders"}, <-sub.C)
}

func TestSpawn(t *testing.T) {
	system := actor.NewActorSystem()
	hub := NewHub(1)
	sub := hub.Subscribe()

	pid, err := Spawn(system, NewTray(zap.NewNop()), hub, testConfig, zap.NewNop())
	require.NoError(t, err)
	defer system.Root.Stop(pid)

	require.Eventually(t, func() bool { return hub.Controlled(sub.ID) }, time.Second, 5*time.Millisecond)
}

func TestHub(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe()

	require.NoError(t, hub.Post(sub.ID, notification.ClientMessage{Type: "A"}))
	assert.ErrorIs(t, hub.Post(sub.ID, notification.ClientMessage{Type: "B"}), ErrClientBusy)
	assert.ErrorIs(t, hub.Post("missing", notification.ClientMessage{}), ErrUnknownClient)
	assert.ErrorIs(t, hub.Focus("missing"), ErrUnknownClient)

	require.NoError(t, hub.Focus(sub.ID))
	assert.Equal(t, sub.ID, hub.Focused())

	hub.Unsubscribe(sub.ID)
	assert.Empty(t, hub.IDs())
	assert.Empty(t, hub.Focused())

	msg, ok := <-sub.C
	assert.True(t, ok)
	assert.Equal(t, "A", msg.Type)
	_, ok = <-sub.C
	assert.False(t, ok)
}

func TestTray_FindAndClose(t *testing.T) {
	tray := NewTray(zap.NewNop())
	require.NoError(t, tray.Show(Notification{ID: "a", Title: "A"}))
	require.NoError(t, tray.Show(Notification{ID: "b", Title: "B"}))

	n, ok := tray.Find("a")
	require.True(t, ok)
	assert.Equal(t, "A", n.Title)

	tray.Close(n)
	_, ok = tray.Find("a")
	assert.False(t, ok)

	list := tray.List()
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
}
