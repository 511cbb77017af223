package location

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/paths"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// Apps that own the project and files sub-routes
const (
	ProjectsAppID = "projects"
	FilesAppID    = "file-explorer"
)

// Query parameter names
const (
	ParamWindowID  = "windowId"
	ParamX         = "x"
	ParamY         = "y"
	ParamW         = "w"
	ParamH         = "h"
	ParamMaximized = "maximized"
	ParamMinimized = "minimized"
	ParamPath      = "path"
)

// ParamError lists query parameters that could not be parsed or validated.
// The descriptor it accompanies carries every other parameter.
type ParamError struct {
	Params []string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid location parameters: %s", strings.Join(e.Params, ", "))
}

func (e *ParamError) Unwrap() error {
	return types.ErrInvalidLocation
}

// Parse decodes a location URL. An unknown route is an error wrapping
// types.ErrInvalidLocation. Malformed parameters yield a *ParamError together
// with the descriptor stripped of them.
func Parse(raw string) (types.LocationDescriptor, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return types.LocationDescriptor{}, fmt.Errorf("parse %q: %w", raw, types.ErrInvalidLocation)
	}

	desc, err := parseRoute(u.Path)
	if err != nil {
		return types.LocationDescriptor{}, err
	}

	invalid := parseParams(u.Query(), &desc)
	if desc.Route == types.RouteFiles {
		desc.Params.Path = paths.Clean(desc.Params.Path)
	}
	if len(invalid) > 0 {
		return desc, &ParamError{Params: invalid}
	}
	return desc, nil
}

func parseRoute(p string) (types.LocationDescriptor, error) {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return types.LocationDescriptor{Route: types.RouteDesktop}, nil
	}

	segments := strings.Split(trimmed, "/")
	switch {
	case segments[0] == "apps" && len(segments) == 2 && segments[1] != "":
		return types.LocationDescriptor{Route: types.RouteApp, AppID: segments[1]}, nil
	case segments[0] == "projects" && len(segments) == 2 && segments[1] != "":
		return types.LocationDescriptor{Route: types.RouteProject, AppID: ProjectsAppID, Slug: segments[1]}, nil
	case segments[0] == "files" && len(segments) == 1:
		return types.LocationDescriptor{Route: types.RouteFiles, AppID: FilesAppID}, nil
	}
	return types.LocationDescriptor{}, fmt.Errorf("unknown route %q: %w", p, types.ErrInvalidLocation)
}

func parseParams(q url.Values, desc *types.LocationDescriptor) []string {
	var invalid []string
	p := &desc.Params

	if v := q.Get(ParamWindowID); v != "" {
		p.WindowID = v
	}

	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{ParamX, &p.X}, {ParamY, &p.Y}, {ParamW, &p.W}, {ParamH, &p.H},
	} {
		if !q.Has(f.name) {
			continue
		}
		v, err := strconv.ParseFloat(q.Get(f.name), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			invalid = append(invalid, f.name)
			continue
		}
		*f.dst = &v
	}

	for _, f := range []struct {
		name string
		dst  **bool
	}{
		{ParamMaximized, &p.Maximized}, {ParamMinimized, &p.Minimized},
	} {
		if !q.Has(f.name) {
			continue
		}
		v, err := strconv.ParseBool(q.Get(f.name))
		if err != nil {
			invalid = append(invalid, f.name)
			continue
		}
		*f.dst = &v
	}

	if desc.Route == types.RouteFiles {
		p.Path = q.Get(ParamPath)
	}
	return invalid
}

// Format encodes a descriptor as a URL path and query. Parameters appear in
// a fixed order so equal descriptors format identically.
func Format(desc types.LocationDescriptor) string {
	var path string
	switch desc.Route {
	case types.RouteApp:
		path = "/apps/" + url.PathEscape(desc.AppID)
	case types.RouteProject:
		path = "/projects/" + url.PathEscape(desc.Slug)
	case types.RouteFiles:
		path = "/files"
	default:
		return "/"
	}

	var query []string
	add := func(name, value string) {
		query = append(query, name+"="+url.QueryEscape(value))
	}

	p := desc.Params
	if desc.Route == types.RouteFiles && p.Path != "" {
		add(ParamPath, p.Path)
	}
	if p.WindowID != "" {
		add(ParamWindowID, p.WindowID)
	}
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{ParamX, p.X}, {ParamY, p.Y}, {ParamW, p.W}, {ParamH, p.H},
	} {
		if f.v != nil {
			add(f.name, strconv.FormatFloat(*f.v, 'f', -1, 64))
		}
	}
	if p.Maximized != nil {
		add(ParamMaximized, strconv.FormatBool(*p.Maximized))
	}
	if p.Minimized != nil {
		add(ParamMinimized, strconv.FormatBool(*p.Minimized))
	}

	if len(query) == 0 {
		return path
	}
	return path + "?" + strings.Join(query, "&")
}

// Describe derives the location of a window. Maximized windows carry their
// restore bounds so the layout survives a round trip. sub holds the project
// slug or directory last opened in the window, if any.
func Describe(w *types.Window, sub string) types.LocationDescriptor {
	if w == nil {
		return types.LocationDescriptor{Route: types.RouteDesktop}
	}

	desc := types.LocationDescriptor{Route: types.RouteApp, AppID: w.AppID}
	switch {
	case w.AppID == ProjectsAppID && sub != "":
		desc.Route = types.RouteProject
		desc.Slug = sub
	case w.AppID == FilesAppID && sub != "":
		desc.Route = types.RouteFiles
		desc.Params.Path = sub
	}

	b := w.Bounds
	if w.Maximized && w.PreMaximize != nil {
		b = *w.PreMaximize
	}
	x, y, width, height := float64(b.X), float64(b.Y), float64(b.W), float64(b.H)
	desc.Params.WindowID = w.ID
	desc.Params.X, desc.Params.Y, desc.Params.W, desc.Params.H = &x, &y, &width, &height

	if w.Maximized {
		t := true
		desc.Params.Maximized = &t
	}
	if w.Minimized {
		t := true
		desc.Params.Minimized = &t
	}
	return desc
}

// BaseRoute returns the plain app route owning a descriptor
func BaseRoute(desc types.LocationDescriptor) types.LocationDescriptor {
	if desc.AppID == "" {
		return types.LocationDescriptor{Route: types.RouteDesktop}
	}
	return types.LocationDescriptor{Route: types.RouteApp, AppID: desc.AppID}
}
