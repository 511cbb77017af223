package types

import "time"

// EventType names a lifecycle event
type EventType string

const (
	EventMount      EventType = "mount"
	EventUnmount    EventType = "unmount"
	EventFocus      EventType = "focus"
	EventBlur       EventType = "blur"
	EventActivate   EventType = "activate"
	EventDeactivate EventType = "deactivate"
)

// LifecycleEvent is emitted by the lifecycle manager
type LifecycleEvent struct {
	Type      EventType `json:"type"`
	AppID     string    `json:"app_id"`
	WindowID  string    `json:"window_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RunningAppState tracks the mounted windows of one app
type RunningAppState struct {
	AppID       string   `json:"app_id"`
	Windows     []string `json:"windows"`
	LastFocused string   `json:"last_focused,omitempty"`
	Running     bool     `json:"running"`
}

// Clone returns a copy with its own window slice
func (s RunningAppState) Clone() RunningAppState {
	s.Windows = append([]string(nil), s.Windows...)
	return s
}

// LaunchResult reports the outcome of a launch
type LaunchResult struct {
	Success        bool   `json:"success"`
	WindowID       string `json:"window_id,omitempty"`
	Error          string `json:"error,omitempty"`
	ExistingWindow bool   `json:"existing_window"`
}
