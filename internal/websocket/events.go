package websocket

import (
	"log"
)

// Broadcaster translates domain events into typed WebSocket messages.
// It satisfies the notifier interfaces the schedule core depends on.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// BroadcastSurfacesReload tells every connected display surface to discard
// its rendered schedule and re-read the shared store. Sent after a
// current-week content change, an explicit cache purge, or an alias edit.
func (b *Broadcaster) BroadcastSurfacesReload(reason string) {
	b.broadcast(NewMessage(TypeSurfacesReload, SurfacesReloadPayload{Reason: reason}))
}

// BroadcastDayBoundary announces that the effective "today" has advanced.
// Highlighting only; surfaces must not fetch in response.
func (b *Broadcaster) BroadcastDayBoundary() {
	b.broadcast(NewMessage(TypeDayBoundary, nil))
}

// BroadcastWeekUpdated announces fresh content for one week offset.
func (b *Broadcaster) BroadcastWeekUpdated(offset int) {
	b.broadcast(NewMessage(TypeWeekUpdated, WeekUpdatedPayload{WeekOffset: offset}))
}

// BroadcastWeekSyncError reports a retryable fetch failure for one offset.
func (b *Broadcaster) BroadcastWeekSyncError(offset int, message string) {
	b.broadcast(NewMessage(TypeWeekSyncError, WeekSyncErrorPayload{
		WeekOffset: offset,
		Message:    message,
	}))
}

// BroadcastNotification sends a dismissible notice to all surfaces.
func (b *Broadcaster) BroadcastNotification(level, title, message string) {
	b.broadcast(NewMessage(TypeNotification, NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}))
}

func (b *Broadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(data)
}
