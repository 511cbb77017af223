package registry

import "github.com/GriffinCanCode/webdesk/backend/internal/shared/types"

// Builtins returns the applications shipped with the desktop
func Builtins() []types.AppRegistration {
	minSize := types.Size{Width: 320, Height: 240}

	return []types.AppRegistration{
		{
			ID: "file-explorer", Name: "Files", Icon: "folder", Category: "system",
			DefaultSize: types.Size{Width: 900, Height: 600}, MinSize: types.Size{Width: 480, Height: 320},
			Resizable: true, Maximizable: true, MultiInstance: true,
			Related: []string{"notes"},
		},
		{
			ID: "terminal", Name: "Terminal", Icon: "terminal", Category: "system",
			DefaultSize: types.Size{Width: 720, Height: 480}, MinSize: minSize,
			Resizable: true, Maximizable: true, MultiInstance: true,
		},
		{
			ID: "notes", Name: "Notes", Icon: "notes", Category: "productivity",
			DefaultSize: types.Size{Width: 640, Height: 520}, MinSize: minSize,
			Resizable: true, Maximizable: true, MultiInstance: true,
			Related: []string{"file-explorer"},
		},
		{
			ID: "calculator", Name: "Calculator", Icon: "calculator", Category: "utilities",
			DefaultSize: types.Size{Width: 320, Height: 480}, MinSize: types.Size{Width: 320, Height: 480},
			Resizable: false, Maximizable: false,
		},
		{
			ID: "settings", Name: "Settings", Icon: "settings", Category: "system",
			DefaultSize: types.Size{Width: 800, Height: 560}, MinSize: types.Size{Width: 560, Height: 400},
			Resizable: true, Maximizable: true,
		},
		{
			ID: "projects", Name: "Projects", Icon: "briefcase", Category: "portfolio",
			DefaultSize: types.Size{Width: 960, Height: 640}, MinSize: types.Size{Width: 480, Height: 360},
			Resizable: true, Maximizable: true,
			Related: []string{"browser"},
		},
		{
			ID: "browser", Name: "Browser", Icon: "globe", Category: "internet",
			DefaultSize: types.Size{Width: 1024, Height: 700}, MinSize: types.Size{Width: 480, Height: 360},
			Resizable: true, Maximizable: true, MultiInstance: true,
		},
		{
			ID: "about", Name: "About", Icon: "info", Category: "system",
			DefaultSize: types.Size{Width: 480, Height: 360}, MinSize: minSize,
			Resizable: false, Maximizable: false,
		},
	}
}
