package bridge

// Lifecycle and event messages accepted by the bridge actor.
type Install struct{}

type Activate struct{}

type PushEvent struct {
	Payload []byte
}

type NotificationClick struct {
	Action       string
	Notification Notification
}

const (
	OutcomeInstalled = "installed"
	OutcomeActivated = "activated"
	OutcomeBroadcast = "broadcast"
	OutcomeShown     = "shown"
	OutcomeClosed    = "closed"
	OutcomeFocused   = "focused"
	OutcomeOpened    = "opened"
	OutcomeFailed    = "failed"
)

// Outcome is the reply to any message sent with RequestFuture.
type Outcome struct {
	Kind         string
	Clients      int
	Notification *Notification
	URL          string
	Err          error
}
