package bus

import (
	"sync"

	"go.uber.org/zap"
)

// Channel names a topic on the bus
type Channel string

const (
	// ChannelProjectSelected carries ProjectSelected when a project route is opened
	ChannelProjectSelected Channel = "project.selected"
	// ChannelFilesNavigate carries FileNavigate when a files route is opened
	ChannelFilesNavigate Channel = "files.navigate"
)

// ProjectSelected asks the projects app to select a project
type ProjectSelected struct {
	Slug string `json:"slug"`
}

// FileNavigate asks the file explorer to open a path
type FileNavigate struct {
	Path string `json:"path"`
}

// Message is one delivery on a channel
type Message struct {
	Channel Channel     `json:"channel"`
	Payload interface{} `json:"payload"`
}

// Handler receives messages of a channel
type Handler func(msg Message)

type handlerEntry struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous in-process publish/subscribe hub used for
// cross-app messages that do not belong to the window state
type Bus struct {
	mu       sync.RWMutex
	handlers map[Channel][]handlerEntry // Protected by mu
	wildcard []handlerEntry             // Protected by mu
	nextID   uint64                     // Protected by mu
	logger   *zap.Logger
}

// New creates an empty bus
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[Channel][]handlerEntry),
		logger:   logger,
	}
}

// Subscribe registers a handler for one channel and returns its unsubscribe func
func (b *Bus) Subscribe(channel Channel, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	entry := handlerEntry{id: b.nextID, handler: handler}
	b.handlers[channel] = append(b.handlers[channel], entry)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[channel] = removeEntry(b.handlers[channel], entry.id)
		if len(b.handlers[channel]) == 0 {
			delete(b.handlers, channel)
		}
	}
}

// SubscribeAll registers a handler for every channel
func (b *Bus) SubscribeAll(handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	entry := handlerEntry{id: b.nextID, handler: handler}
	b.wildcard = append(b.wildcard, entry)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.wildcard = removeEntry(b.wildcard, entry.id)
	}
}

// Publish delivers a payload to the channel's handlers in subscription order
// and returns how many handlers completed without panicking
func (b *Bus) Publish(channel Channel, payload interface{}) int {
	b.mu.RLock()
	targets := make([]handlerEntry, 0, len(b.handlers[channel])+len(b.wildcard))
	targets = append(targets, b.handlers[channel]...)
	targets = append(targets, b.wildcard...)
	b.mu.RUnlock()

	msg := Message{Channel: channel, Payload: payload}
	delivered := 0
	for _, entry := range targets {
		if b.deliver(entry.handler, msg) {
			delivered++
		}
	}

	b.logger.Debug("Bus message published",
		zap.String("channel", string(channel)),
		zap.Int("handlers", len(targets)),
	)
	return delivered
}

func (b *Bus) deliver(handler Handler, msg Message) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Bus handler panicked",
				zap.String("channel", string(msg.Channel)),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()
	handler(msg)
	return true
}

func removeEntry(entries []handlerEntry, id uint64) []handlerEntry {
	for i, e := range entries {
		if e.id == id {
			return append(entries[:i:i], entries[i+1:]...)
		}
	}
	return entries
}
