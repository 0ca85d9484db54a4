// internal/handler/event_bus.go
package handler

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"print-bridge/internal/model"
)

// AllEvents subscribes to every event type
const AllEvents = "*"

// EventBus fans job and printer events out to subscribers
type EventBus struct {
	subscribers map[string][]chan Event
	events      chan Event
	mutex       sync.RWMutex
	closed      bool
	logger      *zap.Logger
}

// Event is a job or printer event as sent to clients
type Event struct {
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	JobID     string                 `json:"job_id,omitempty"`
	Severity  string                 `json:"severity,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan Event),
		events:      make(chan Event, 1000),
		logger:      logger,
	}
}

// Start distributes events until Stop is called
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}
}

// Stop closes the bus and every subscriber channel
func (eb *EventBus) Stop() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	if eb.closed {
		return
	}

	eb.closed = true
	close(eb.events)
	for eventType, subs := range eb.subscribers {
		for _, sub := range subs {
			close(sub)
		}
		delete(eb.subscribers, eventType)
	}
}

// Publish queues an event; a full bus drops it
func (eb *EventBus) Publish(event Event) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()
	if eb.closed {
		return
	}

	select {
	case eb.events <- event:
	default:
		if eb.logger != nil {
			eb.logger.Warn("Event bus full, dropping event",
				zap.String("event_type", event.Type),
			)
		}
	}
}

// PublishJobEvent converts a job event and publishes it
func (eb *EventBus) PublishJobEvent(event model.JobEvent) {
	eb.Publish(FromJobEvent(event))
}

// PrinterEvent adapts the printer manager's callback to the bus
func (eb *EventBus) PrinterEvent(eventType model.EventType, jobID uuid.UUID, data map[string]interface{}) {
	eb.PublishJobEvent(model.NewJobEvent(eventType, jobID, "INFO", data))
}

// FromJobEvent maps a job event to its wire form; types are lower case
func FromJobEvent(event model.JobEvent) Event {
	return Event{
		Type:      strings.ToLower(string(event.EventType)),
		Source:    event.Source,
		JobID:     event.JobID.String(),
		Severity:  event.Severity,
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}
}

// Subscribe subscribes to events of a specific type, or AllEvents
func (eb *EventBus) Subscribe(eventType string) <-chan Event {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan Event, 100)
	if eb.closed {
		close(subscriber)
		return subscriber
	}
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
	return subscriber
}

// Unsubscribe removes and closes a subscription
func (eb *EventBus) Unsubscribe(sub <-chan Event) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	for eventType, subs := range eb.subscribers {
		for i, s := range subs {
			if s == sub {
				eb.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				close(s)
				return
			}
		}
	}
}

func (eb *EventBus) distributeEvent(event Event) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	deliver := func(subs []chan Event) {
		for _, subscriber := range subs {
			select {
			case subscriber <- event:
			default:
				// Subscriber is slow, skip
			}
		}
	}
	deliver(eb.subscribers[event.Type])
	deliver(eb.subscribers[AllEvents])
}
