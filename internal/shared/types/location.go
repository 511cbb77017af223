package types

// RouteKind is the shape of a location route
type RouteKind string

const (
	RouteDesktop RouteKind = "desktop"
	RouteApp     RouteKind = "app"
	RouteProject RouteKind = "project"
	RouteFiles   RouteKind = "files"
)

// LocationParams are the optional query parameters of a location
type LocationParams struct {
	WindowID  string   `json:"window_id,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	W         *float64 `json:"w,omitempty"`
	H         *float64 `json:"h,omitempty"`
	Maximized *bool    `json:"maximized,omitempty"`
	Minimized *bool    `json:"minimized,omitempty"`
	Path      string   `json:"path,omitempty"`
}

// HasGeometry reports whether any bounds parameter is present
func (p LocationParams) HasGeometry() bool {
	return p.X != nil || p.Y != nil || p.W != nil || p.H != nil
}

// IsEmpty reports whether no parameter is set
func (p LocationParams) IsEmpty() bool {
	return p.WindowID == "" && !p.HasGeometry() && p.Maximized == nil && p.Minimized == nil && p.Path == ""
}

// LocationDescriptor is a shareable route plus parameters.
// It is always derived, never the source of truth.
type LocationDescriptor struct {
	Route  RouteKind      `json:"route"`
	AppID  string         `json:"app_id,omitempty"`
	Slug   string         `json:"slug,omitempty"`
	Params LocationParams `json:"params"`
}
