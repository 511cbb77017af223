package types

// Size represents window dimensions in pixels
type Size struct {
	Width  int `json:"width" yaml:"width" toml:"width"`
	Height int `json:"height" yaml:"height" toml:"height"`
}

// AppRegistration describes an installable application.
// Registrations are immutable once stored; re-registering an ID replaces it.
type AppRegistration struct {
	ID            string   `json:"id" yaml:"id" toml:"id"`
	Name          string   `json:"name" yaml:"name" toml:"name"`
	Icon          string   `json:"icon,omitempty" yaml:"icon" toml:"icon"`
	Category      string   `json:"category,omitempty" yaml:"category" toml:"category"`
	DefaultSize   Size     `json:"default_size" yaml:"default_size" toml:"default_size"`
	MinSize       Size     `json:"min_size" yaml:"min_size" toml:"min_size"`
	Resizable     bool     `json:"resizable" yaml:"resizable" toml:"resizable"`
	Maximizable   bool     `json:"maximizable" yaml:"maximizable" toml:"maximizable"`
	MultiInstance bool     `json:"multi_instance" yaml:"multi_instance" toml:"multi_instance"`
	Related       []string `json:"related,omitempty" yaml:"related" toml:"related"` // Prefetched after launch
}

// AppWindowConfig is the window-relevant projection of a registration
type AppWindowConfig struct {
	DefaultSize Size `json:"default_size"`
	MinSize     Size `json:"min_size"`
	Resizable   bool `json:"resizable"`
	Maximizable bool `json:"maximizable"`
}

// WindowConfig projects the sizing fields out of a registration
func (r AppRegistration) WindowConfig() AppWindowConfig {
	return AppWindowConfig{
		DefaultSize: r.DefaultSize,
		MinSize:     r.MinSize,
		Resizable:   r.Resizable,
		Maximizable: r.Maximizable,
	}
}

// Clone returns a copy that shares no slices with the receiver
func (r AppRegistration) Clone() AppRegistration {
	if r.Related != nil {
		r.Related = append([]string(nil), r.Related...)
	}
	return r
}

// RegistryStats contains registry statistics
type RegistryStats struct {
	TotalApps  int            `json:"total_apps"`
	Categories map[string]int `json:"categories"`
}
