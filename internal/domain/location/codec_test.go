package location

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

func f64(v float64) *float64 { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestParseRoutes(t *testing.T) {
	tests := []struct {
		raw   string
		route types.RouteKind
		app   string
		slug  string
		path  string
	}{
		{"/", types.RouteDesktop, "", "", ""},
		{"", types.RouteDesktop, "", "", ""},
		{"/apps/terminal", types.RouteApp, "terminal", "", ""},
		{"/apps/terminal/", types.RouteApp, "terminal", "", ""},
		{"/projects/alpha", types.RouteProject, ProjectsAppID, "alpha", ""},
		{"/files?path=%2Fdocs%2Freports", types.RouteFiles, FilesAppID, "", "/docs/reports"},
		{"/files", types.RouteFiles, FilesAppID, "", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			desc, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.route, desc.Route)
			assert.Equal(t, tt.app, desc.AppID)
			assert.Equal(t, tt.slug, desc.Slug)
			assert.Equal(t, tt.path, desc.Params.Path)
		})
	}
}

func TestParseUnknownRoute(t *testing.T) {
	for _, raw := range []string{"/nope", "/apps", "/apps/a/b", "/projects", "/files/extra"} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, types.ErrInvalidLocation, raw)

		var pe *ParamError
		assert.False(t, errors.As(err, &pe), raw)
	}
}

func TestParseParams(t *testing.T) {
	desc, err := Parse("/apps/terminal?windowId=win_1&x=10&y=20.5&w=400&h=300&maximized=true&minimized=false")
	require.NoError(t, err)

	p := desc.Params
	assert.Equal(t, "win_1", p.WindowID)
	assert.Equal(t, 10.0, *p.X)
	assert.Equal(t, 20.5, *p.Y)
	assert.Equal(t, 400.0, *p.W)
	assert.Equal(t, 300.0, *p.H)
	assert.True(t, *p.Maximized)
	assert.False(t, *p.Minimized)
}

func TestParseMalformedParams(t *testing.T) {
	desc, err := Parse("/apps/terminal?x=abc&y=5&w=NaN&h=Inf&maximized=maybe")

	var pe *ParamError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, types.ErrInvalidLocation)
	assert.ElementsMatch(t, []string{"x", "w", "h", "maximized"}, pe.Params)

	assert.Equal(t, "terminal", desc.AppID)
	require.NotNil(t, desc.Params.Y)
	assert.Equal(t, 5.0, *desc.Params.Y)
	assert.Nil(t, desc.Params.X)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "/", Format(types.LocationDescriptor{Route: types.RouteDesktop}))
	assert.Equal(t, "/apps/notes", Format(types.LocationDescriptor{Route: types.RouteApp, AppID: "notes"}))
	assert.Equal(t, "/projects/my%20site", Format(types.LocationDescriptor{Route: types.RouteProject, AppID: ProjectsAppID, Slug: "my site"}))

	desc := types.LocationDescriptor{
		Route: types.RouteApp,
		AppID: "terminal",
		Params: types.LocationParams{
			WindowID: "win_1", X: f64(10), Y: f64(20), W: f64(400), H: f64(300),
			Maximized: boolPtr(true),
		},
	}
	assert.Equal(t, "/apps/terminal?windowId=win_1&x=10&y=20&w=400&h=300&maximized=true", Format(desc))

	files := types.LocationDescriptor{Route: types.RouteFiles, AppID: FilesAppID, Params: types.LocationParams{Path: "/a b"}}
	assert.Equal(t, "/files?path=%2Fa+b", Format(files))
}

func TestFormatParseRoundTrip(t *testing.T) {
	descs := []types.LocationDescriptor{
		{Route: types.RouteDesktop},
		{Route: types.RouteApp, AppID: "terminal", Params: types.LocationParams{WindowID: "win_01J", X: f64(0), Y: f64(12.25)}},
		{Route: types.RouteProject, AppID: ProjectsAppID, Slug: "alpha", Params: types.LocationParams{Minimized: boolPtr(true)}},
		{Route: types.RouteFiles, AppID: FilesAppID, Params: types.LocationParams{Path: "/docs/q&a"}},
	}

	for _, desc := range descs {
		formatted := Format(desc)
		parsed, err := Parse(formatted)
		require.NoError(t, err, formatted)
		assert.Equal(t, formatted, Format(parsed))
	}
}

func TestDescribeRoundTrip(t *testing.T) {
	pre := types.Bounds{X: 50, Y: 60, W: 700, H: 500}
	windows := []*types.Window{
		{ID: "win_1", AppID: "terminal", Bounds: types.Bounds{X: 10, Y: 20, W: 400, H: 300}},
		{ID: "win_2", AppID: "notes", Bounds: types.Bounds{X: 0, Y: 0, W: 1920, H: 1032}, Maximized: true, PreMaximize: &pre},
		{ID: "win_3", AppID: "notes", Bounds: types.Bounds{X: 5, Y: 5, W: 320, H: 240}, Minimized: true},
	}

	for _, w := range windows {
		parsed, err := Parse(Format(Describe(w, "")))
		require.NoError(t, err)

		want := w.Bounds
		if w.PreMaximize != nil {
			want = *w.PreMaximize
		}
		pb := toPartial(parsed.Params)
		assert.Equal(t, want, types.Bounds{}.Merge(pb), w.ID)
		assert.Equal(t, w.ID, parsed.Params.WindowID)
		assert.Equal(t, w.Maximized, parsed.Params.Maximized != nil && *parsed.Params.Maximized)
		assert.Equal(t, w.Minimized, parsed.Params.Minimized != nil && *parsed.Params.Minimized)
	}
}

func TestDescribeSubroutes(t *testing.T) {
	assert.Equal(t, "/", Format(Describe(nil, "")))

	project := &types.Window{ID: "win_p", AppID: ProjectsAppID, Bounds: types.Bounds{W: 480, H: 360}}
	assert.Equal(t, "/projects/alpha?windowId=win_p&x=0&y=0&w=480&h=360", Format(Describe(project, "alpha")))

	files := &types.Window{ID: "win_f", AppID: FilesAppID, Bounds: types.Bounds{W: 480, H: 320}}
	assert.Equal(t, "/files?path=%2Fdocs&windowId=win_f&x=0&y=0&w=480&h=320", Format(Describe(files, "/docs")))
}

func TestValidate(t *testing.T) {
	minSize := types.Size{Width: 320, Height: 240}

	assert.Empty(t, Validate(types.LocationParams{X: f64(-10), W: f64(320), H: f64(240)}, minSize))
	assert.Equal(t, []string{"w"}, Validate(types.LocationParams{W: f64(100)}, minSize))
	assert.Equal(t, []string{"h"}, Validate(types.LocationParams{H: f64(239)}, minSize))
	assert.Equal(t, []string{"w"}, Validate(types.LocationParams{W: f64(400)}, types.Size{Width: 480, Height: 320}))
	assert.Equal(t, []string{"w"}, Validate(types.LocationParams{W: f64(300)}, types.Size{Width: 100, Height: 100}),
		"the absolute floor applies even below the app minimum")
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	minSize := types.Size{Width: 320, Height: 240}

	desc, err := Parse("/apps/terminal?x=-1e300&y=5e9&w=1e300&h=1e300")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y", "w", "h"}, Validate(desc.Params, minSize))

	edge := types.LocationParams{X: f64(math.MinInt32), Y: f64(math.MaxInt32), W: f64(math.MaxInt32), H: f64(math.MaxInt32 + 1)}
	assert.Equal(t, []string{"h"}, Validate(edge, minSize))

	stripped := Strip(desc, Validate(desc.Params, minSize))
	assert.Equal(t, "/apps/terminal", Format(stripped))
}

func TestStrip(t *testing.T) {
	desc := types.LocationDescriptor{
		Route: types.RouteApp, AppID: "notes",
		Params: types.LocationParams{X: f64(1), W: f64(2), Maximized: boolPtr(true)},
	}

	stripped := Strip(desc, []string{"w", "maximized"})
	assert.Equal(t, "/apps/notes?x=1", Format(stripped))
	assert.NotNil(t, desc.Params.W, "the original is untouched")
}

func TestSyncStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "syncing_from_store", SyncingFromStore.String())
	assert.Equal(t, "syncing_from_location", SyncingFromLocation.String())
}

func TestGuard(t *testing.T) {
	var g guard
	require.True(t, g.enter(SyncingFromStore))
	assert.False(t, g.enter(SyncingFromLocation))
	assert.False(t, g.enter(SyncingFromStore))
	g.exit()
	assert.True(t, g.enter(SyncingFromLocation))
	assert.Equal(t, SyncingFromLocation, g.current())
}

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, canonicalKey("/apps/notes?x=1&w=400"), canonicalKey("/apps/notes/?w=400&x=1"))
	assert.NotEqual(t, canonicalKey("/apps/notes?x=1"), canonicalKey("/apps/notes?x=2"))
}
