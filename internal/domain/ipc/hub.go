package ipc

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/ring"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
)

// Handler receives messages addressed to a subscribed destination
type Handler func(msg types.IPCMessage)

// Hub is a publish/subscribe bus with bounded history
type Hub struct {
	mu       sync.RWMutex
	handlers map[string][]Handler // Protected by mu

	history *ring.Log[types.IPCMessage]
	now     func() time.Time
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewHub creates a hub that retains the last capacity messages
func NewHub(capacity int, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		handlers: make(map[string][]Handler),
		history:  ring.New[types.IPCMessage](capacity),
		now:      time.Now,
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the hub
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// Subscribe registers handler for messages sent to destination
func (h *Hub) Subscribe(destination string, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[destination] = append(h.handlers[destination], handler)
}

// Send records a message and delivers it to the destination's handlers
func (h *Hub) Send(source, destination, msgType string, payload any) types.IPCMessage {
	msg := types.IPCMessage{
		ID:          id.NewMessageID().String(),
		Timestamp:   h.now(),
		Source:      source,
		Destination: destination,
		Type:        msgType,
		Payload:     payload,
	}

	h.history.Append(msg)
	h.metrics.IncIPCMessage(msgType)

	h.mu.RLock()
	handlers := append([]Handler(nil), h.handlers[destination]...)
	h.mu.RUnlock()

	h.logger.Debug("IPC message",
		zap.String("id", msg.ID),
		zap.String("source", source),
		zap.String("destination", destination),
		zap.String("type", msgType),
		zap.Int("handlers", len(handlers)),
	)

	for _, handler := range handlers {
		handler(msg)
	}

	return msg
}

// Broadcast sends one message to every subscribed destination except source.
// Destinations are visited in name order.
func (h *Hub) Broadcast(source, msgType string, payload any) []types.IPCMessage {
	h.mu.RLock()
	destinations := make([]string, 0, len(h.handlers))
	for dest := range h.handlers {
		if dest != source {
			destinations = append(destinations, dest)
		}
	}
	h.mu.RUnlock()

	sort.Strings(destinations)

	sent := make([]types.IPCMessage, 0, len(destinations))
	for _, dest := range destinations {
		sent = append(sent, h.Send(source, dest, msgType, payload))
	}
	return sent
}

// Recent returns up to limit of the newest messages, oldest first
func (h *Hub) Recent(limit int) []types.IPCMessage {
	return h.history.Recent(limit)
}

// Len returns the number of retained messages
func (h *Hub) Len() int {
	return h.history.Len()
}
