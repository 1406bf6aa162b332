package notification

// Messages exchanged between the background bridge and the app.
const (
	MessageSilentNotification = "SILENT_NOTIFICATION"
	MessageNavigate           = "NAVIGATE"
)

type ClientMessage struct {
	Type string            `json:"type"`
	Data map[string]string `json:"data,omitempty"`
	URL  string            `json:"url,omitempty"`
}
