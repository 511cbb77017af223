package types

import "time"

// Bounds is a window rectangle in viewport pixels
type Bounds struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// PartialBounds carries an optional subset of bounds fields
type PartialBounds struct {
	X *int `json:"x,omitempty"`
	Y *int `json:"y,omitempty"`
	W *int `json:"w,omitempty"`
	H *int `json:"h,omitempty"`
}

// Merge applies the set fields of p on top of b
func (b Bounds) Merge(p PartialBounds) Bounds {
	if p.X != nil {
		b.X = *p.X
	}
	if p.Y != nil {
		b.Y = *p.Y
	}
	if p.W != nil {
		b.W = *p.W
	}
	if p.H != nil {
		b.H = *p.H
	}
	return b
}

// Viewport describes the visible desktop area
type Viewport struct {
	Width         int `json:"width"`
	Height        int `json:"height"`
	TaskbarHeight int `json:"taskbar_height"`
}

// UsableHeight is the viewport height minus the reserved taskbar strip
func (v Viewport) UsableHeight() int {
	return v.Height - v.TaskbarHeight
}

// Window represents an open window hosting an application
type Window struct {
	ID        string                 `json:"id"`
	AppID     string                 `json:"app_id"`
	Title     string                 `json:"title"`
	Bounds    Bounds                 `json:"bounds"`
	Minimized bool                   `json:"minimized"`
	Maximized bool                   `json:"maximized"`
	Focused   bool                   `json:"focused"`
	CreatedAt time.Time              `json:"created_at"`
	Data      map[string]interface{} `json:"data,omitempty"`

	// Bounds before maximizing, restored on un-maximize
	PreMaximize *Bounds `json:"pre_maximize,omitempty"`
}

// Clone returns a deep copy of the window
func (w *Window) Clone() *Window {
	c := *w
	if w.PreMaximize != nil {
		pm := *w.PreMaximize
		c.PreMaximize = &pm
	}
	if w.Data != nil {
		c.Data = make(map[string]interface{}, len(w.Data))
		for k, v := range w.Data {
			c.Data[k] = v
		}
	}
	return &c
}

// WindowState is a snapshot of the window store
type WindowState struct {
	Windows map[string]*Window `json:"windows"`
	ZOrder  []string           `json:"z_order"`
}

// Focused returns the focused window in the snapshot, if any
func (s WindowState) Focused() *Window {
	for _, w := range s.Windows {
		if w.Focused {
			return w
		}
	}
	return nil
}

// SnapPosition names a snap target
type SnapPosition string

const (
	SnapLeft  SnapPosition = "left"
	SnapRight SnapPosition = "right"
	SnapFull  SnapPosition = "full"
)
