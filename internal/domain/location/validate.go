package location

import (
	"math"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// Absolute lower bounds for restored window sizes
const (
	MinRestoreWidth  = 320
	MinRestoreHeight = 240
)

// Validate checks the geometry of a descriptor against an app's minimum size
// and returns the names of rejected parameters. Sizes below the minimum are
// rejected rather than clamped so the caller can redirect.
func Validate(p types.LocationParams, minSize types.Size) []string {
	var invalid []string

	// Values past int32 would overflow when rounded to pixels
	check := func(name string, v *float64, floor int) {
		if v == nil {
			return
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < float64(floor) || *v > math.MaxInt32 {
			invalid = append(invalid, name)
		}
	}

	check(ParamX, p.X, math.MinInt32)
	check(ParamY, p.Y, math.MinInt32)
	check(ParamW, p.W, max(MinRestoreWidth, minSize.Width))
	check(ParamH, p.H, max(MinRestoreHeight, minSize.Height))
	return invalid
}

// Strip removes the named parameters from a descriptor
func Strip(desc types.LocationDescriptor, names []string) types.LocationDescriptor {
	for _, name := range names {
		switch name {
		case ParamWindowID:
			desc.Params.WindowID = ""
		case ParamX:
			desc.Params.X = nil
		case ParamY:
			desc.Params.Y = nil
		case ParamW:
			desc.Params.W = nil
		case ParamH:
			desc.Params.H = nil
		case ParamMaximized:
			desc.Params.Maximized = nil
		case ParamMinimized:
			desc.Params.Minimized = nil
		case ParamPath:
			desc.Params.Path = ""
		}
	}
	return desc
}

// toPartial rounds descriptor geometry to whole pixels
func toPartial(p types.LocationParams) types.PartialBounds {
	round := func(v *float64) *int {
		if v == nil {
			return nil
		}
		n := int(math.Round(*v))
		return &n
	}
	return types.PartialBounds{X: round(p.X), Y: round(p.Y), W: round(p.W), H: round(p.H)}
}
