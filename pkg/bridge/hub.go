package bridge

import (
	"errors"
	"fmt"
	"sync"

	"github.com/example/tableorder/pkg/notification"
	"github.com/google/uuid"
)

var (
	ErrUnknownClient = errors.New("unknown client")
	ErrClientBusy    = errors.New("client mailbox full")
	ErrNoOpener      = errors.New("no window opener configured")
)

// Clients is what the bridge can see of the app instances it serves.
type Clients interface {
	IDs() []string
	Post(id string, msg notification.ClientMessage) error
	Focus(id string) error
	OpenWindow(url string) (string, error)
	// Claim takes control of every attached client and reports how many.
	Claim() int
}

type Subscription struct {
	ID string
	C  <-chan notification.ClientMessage
}

type hubClient struct {
	ch         chan notification.ClientMessage
	controlled bool
}

// Hub connects the bridge to in-process app instances over channels.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*hubClient
	order   []string
	buffer  int
	focused string
	onFocus func(id string)
	opener  func(url string) (string, error)
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{clients: make(map[string]*hubClient), buffer: buffer}
}

// OnFocus is called after a client is focused.
func (h *Hub) OnFocus(fn func(id string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFocus = fn
}

// SetOpener installs the function used to open a new app instance at a URL.
func (h *Hub) SetOpener(fn func(url string) (string, error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opener = fn
}

func (h *Hub) Subscribe() *Subscription {
	c := &hubClient{ch: make(chan notification.ClientMessage, h.buffer)}
	id := uuid.NewString()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[id] = c
	h.order = append(h.order, id)
	return &Subscription{ID: id, C: c.ch}
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	for i, k := range h.order {
		if k == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	if h.focused == id {
		h.focused = ""
	}
	close(c.ch)
}

func (h *Hub) IDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

// Post never blocks; a full mailbox drops the message.
func (h *Hub) Post(id string, msg notification.ClientMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return ErrUnknownClient
	}
	select {
	case c.ch <- msg:
		return nil
	default:
		return ErrClientBusy
	}
}

func (h *Hub) Focus(id string) error {
	h.mu.Lock()
	if _, ok := h.clients[id]; !ok {
		h.mu.Unlock()
		return ErrUnknownClient
	}
	h.focused = id
	fn := h.onFocus
	h.mu.Unlock()

	if fn != nil {
		fn(id)
	}
	return nil
}

func (h *Hub) Focused() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focused
}

func (h *Hub) OpenWindow(url string) (string, error) {
	h.mu.Lock()
	opener := h.opener
	h.mu.Unlock()

	if opener == nil {
		return "", ErrNoOpener
	}
	id, err := opener(url)
	if err != nil {
		return "", fmt.Errorf("failed to open window at %s: %w", url, err)
	}
	return id, nil
}

func (h *Hub) Claim() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.controlled = true
	}
	return len(h.clients)
}

func (h *Hub) Controlled(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	return ok && c.controlled
}
