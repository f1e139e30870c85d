package app

import (
	"errors"
	"fmt"
)

// Command is a named user action applied by the event loop.
type Command string

const (
	CmdCalibrateClosed Command = "calibrate-closed"
	CmdCalibrateOpen   Command = "calibrate-open"
	CmdTogglePause     Command = "toggle-pause"
	CmdToggleSkeleton  Command = "toggle-skeleton"
	CmdToggleVideo     Command = "toggle-video"
)

// ErrUnknownCommand is returned for command names outside Commands().
var ErrUnknownCommand = errors.New("unknown command")

// Commands lists every accepted command.
func Commands() []Command {
	return []Command{CmdCalibrateClosed, CmdCalibrateOpen, CmdTogglePause, CmdToggleSkeleton, CmdToggleVideo}
}

// ParseCommand maps a wire name to a Command.
func ParseCommand(name string) (Command, error) {
	for _, c := range Commands() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}
