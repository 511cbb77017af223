package types

// LaunchMode selects the launch policy of the invocation site
type LaunchMode string

const (
	LaunchModeDefault   LaunchMode = ""
	LaunchModeDesktop   LaunchMode = "desktop"
	LaunchModeStartMenu LaunchMode = "start-menu"
	LaunchModeData      LaunchMode = "data"
)

// LaunchRequest is the HTTP body for launching an app
type LaunchRequest struct {
	Mode          LaunchMode             `json:"mode"`
	FocusExisting *bool                  `json:"focus_existing,omitempty"`
	Title         string                 `json:"title,omitempty"`
	Bounds        *Bounds                `json:"bounds,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
}

// SnapRequest is the HTTP body for snapping a window
type SnapRequest struct {
	Position SnapPosition `json:"position" binding:"required"`
}

// NavigateRequest is the HTTP body for an external navigation event
type NavigateRequest struct {
	URL string `json:"url" binding:"required"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type     string                 `json:"type"`
	ID       string                 `json:"id,omitempty"`
	URL      string                 `json:"url,omitempty"`
	Channel  string                 `json:"channel,omitempty"`
	WindowID string                 `json:"window_id,omitempty"`
	Allow    *bool                  `json:"allow,omitempty"`
	Payload  interface{}            `json:"payload,omitempty"`
	Context  map[string]interface{} `json:"context,omitempty"`
}
