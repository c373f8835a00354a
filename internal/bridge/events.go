// Package bridge defines the events the host delivers to the viewer and the file
// reader behind the open flow.
package bridge

import (
	"errors"
	"fmt"
)

// Event is something the host delivers into the viewer.
type Event interface {
	EventName() string
}

// FileOpened carries the content of a file the user opened.
type FileOpened struct {
	Content string
	Path    string
	Name    string
}

// ShowAbout asks for the about dialog.
type ShowAbout struct{}

// ZoomIn, ZoomOut and ZoomReset are the View menu zoom commands.
type (
	ZoomIn    struct{}
	ZoomOut   struct{}
	ZoomReset struct{}
)

// ToggleTheme switches between the dark and light theme.
type ToggleTheme struct{}

func (FileOpened) EventName() string  { return "file-opened" }
func (ShowAbout) EventName() string   { return "show-about" }
func (ZoomIn) EventName() string      { return "zoom-in" }
func (ZoomOut) EventName() string     { return "zoom-out" }
func (ZoomReset) EventName() string   { return "zoom-reset" }
func (ToggleTheme) EventName() string { return "toggle-theme" }

// ErrUnknownCommand is returned by ParseCommand for names no menu item uses.
var ErrUnknownCommand = errors.New("unknown command")

// Commands lists the menu command names ParseCommand accepts.
var Commands = []string{"zoom-in", "zoom-out", "zoom-reset", "show-about", "toggle-theme"}

// ParseCommand maps a menu command name to its event.
func ParseCommand(name string) (Event, error) {
	switch name {
	case "zoom-in":
		return ZoomIn{}, nil
	case "zoom-out":
		return ZoomOut{}, nil
	case "zoom-reset":
		return ZoomReset{}, nil
	case "show-about":
		return ShowAbout{}, nil
	case "toggle-theme":
		return ToggleTheme{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}
