package bridge

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationData struct {
	URL     string `json:"url"`
	OrderID string `json:"orderId,omitempty"`
}

// Notification is a native notification as shown by the platform.
type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Icon      string           `json:"icon"`
	Badge     string           `json:"badge"`
	Tag       string           `json:"tag,omitempty"`
	Data      NotificationData `json:"data"`
	CreatedAt time.Time        `json:"createdAt"`
}

type Presenter interface {
	Show(n Notification) error
	Close(n Notification)
}

// Tray is the local notification center. Notifications sharing a tag
// replace each other; untagged ones stack.
type Tray struct {
	mu     sync.Mutex
	order  []string
	shown  map[string]Notification
	logger *zap.Logger
}

func NewTray(logger *zap.Logger) *Tray {
	return &Tray{
		shown:  make(map[string]Notification),
		logger: logger.Named("tray"),
	}
}

func trayKey(n Notification) string {
	if n.Tag != "" {
		return "tag:" + n.Tag
	}
	return "id:" + n.ID
}

func (t *Tray) Show(n Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	key := trayKey(n)

	t.mu.Lock()
	if _, exists := t.shown[key]; exists {
		t.removeLocked(key)
	}
	t.shown[key] = n
	t.order = append(t.order, key)
	t.mu.Unlock()

	t.logger.Info("Notification shown",
		zap.String("title", n.Title),
		zap.String("tag", n.Tag),
		zap.String("url", n.Data.URL))
	return nil
}

func (t *Tray) Close(n Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, shown := range t.shown {
		if shown.ID == n.ID {
			t.removeLocked(key)
			return
		}
	}
}

// Find returns a shown notification by id.
func (t *Tray) Find(id string) (Notification, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, n := range t.shown {
		if n.ID == id {
			return n, true
		}
	}
	return Notification{}, false
}

// List returns shown notifications newest first.
func (t *Tray) List() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Notification, 0, len(t.order))
	for i := len(t.order) - 1; i >= 0; i-- {
		out = append(out, t.shown[t.order[i]])
	}
	return out
}

func (t *Tray) removeLocked(key string) {
	delete(t.shown, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}
