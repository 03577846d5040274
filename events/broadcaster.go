package events

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Event is one instruction or state update pushed to connected clients.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster fans events out to every subscribed client. A client whose
// buffer is full misses the event instead of blocking the publisher.
type Broadcaster struct {
	clients map[chan Event]bool
	mutex   sync.RWMutex
	buffer  int
	logger  *log.Entry
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[chan Event]bool),
		buffer:  16,
		logger:  log.WithFields(log.Fields{"module": "events"}),
	}
}

// Subscribe adds a new client to receive events
func (b *Broadcaster) Subscribe() chan Event {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	client := make(chan Event, b.buffer)
	b.clients[client] = true
	b.logger.Debugf("Client subscribed. Total clients: %d", len(b.clients))
	return client
}

// Unsubscribe removes a client and closes its channel
func (b *Broadcaster) Unsubscribe(client chan Event) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client)
		b.logger.Debugf("Client unsubscribed. Total clients: %d", len(b.clients))
	}
}

func (b *Broadcaster) Publish(eventType string, data any) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	event := Event{Type: eventType, Data: data, Timestamp: time.Now()}
	for client := range b.clients {
		select {
		case client <- event:
		default:
			b.logger.Warnf("Client buffer full, dropping %s event", eventType)
		}
	}
	b.logger.Tracef("published %s to %d clients", eventType, len(b.clients))
}

func (b *Broadcaster) ClientCount() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.clients)
}
