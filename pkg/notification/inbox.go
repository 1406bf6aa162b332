package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	LevelInfo    = "info"
	LevelWarning = "warning"
)

// Message is what the diner sees.
type Message struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	OrderID   string    `json:"orderId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Presenter interface {
	Present(m Message)
}

// Inbox keeps the most recent messages for the kiosk to show.
type Inbox struct {
	mu       sync.Mutex
	messages []Message
	limit    int
}

func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = 50
	}
	return &Inbox{limit: limit}
}

func (i *Inbox) Present(m Message) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.Level == "" {
		m.Level = LevelInfo
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = append(i.messages, m)
	if over := len(i.messages) - i.limit; over > 0 {
		i.messages = append([]Message(nil), i.messages[over:]...)
	}
}

// List returns messages newest first.
func (i *Inbox) List() []Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]Message, len(i.messages))
	for n, m := range i.messages {
		out[len(out)-1-n] = m
	}
	return out
}

func (i *Inbox) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = nil
}
