package alarm

import "sync"

// Inbox holds fired alerts until the user dismisses them. A dismissed alert
// is gone for good; the scheduler never re-issues it for the same due time.
type Inbox struct {
	mu      sync.RWMutex
	pending []Alert
}

// NewInbox constructs an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{}
}

// Post appends a fired alert. It is the Sink for every scheduler instance.
func (i *Inbox) Post(alert Alert) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending = append(i.pending, alert)
}

// Pending returns the alerts awaiting dismissal, oldest first.
func (i *Inbox) Pending() []Alert {
	i.mu.RLock()
	defer i.mu.RUnlock()
	alerts := make([]Alert, len(i.pending))
	copy(alerts, i.pending)
	return alerts
}

// Dismiss removes an alert by id, reporting whether it was present.
func (i *Inbox) Dismiss(alertID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	for index, alert := range i.pending {
		if alert.ID == alertID {
			i.pending = append(i.pending[:index], i.pending[index+1:]...)
			return true
		}
	}
	return false
}
