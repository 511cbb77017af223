// Package paths provides the desktop's standard paths.
//
// Two kinds of path live here. Virtual paths belong to the file explorer's
// tree and always use forward slashes rooted at "/":
//
//	paths.Clean("docs/../reports/")  // "/reports"
//
// Host paths locate the desktop's own state under the user config dir:
//
//	paths.DefaultPrefsPath(false)  // ~/.config/webdesk/preferences.json
//	paths.DefaultManifestsDir()    // ~/.config/webdesk/apps
package paths
