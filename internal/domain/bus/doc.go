// Package bus is the cross-app message bus.
//
// Deep links into the projects and files apps carry a payload that is not
// part of window state (which project, which directory). The location
// service publishes those on a channel and the interested app, or a
// connected browser tab, picks them up.
package bus
