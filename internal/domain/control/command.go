package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"framecast/internal/domain/media"
)

// Action names a viewer request on the control channel.
type Action string

const (
	ActionStart  Action = "start"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionStop   Action = "stop"
)

// ErrMalformed marks a control message that must be dropped without ending the session.
var ErrMalformed = errors.New("malformed control message")

// Command is a validated control request. Video is set only for ActionStart.
type Command struct {
	Action Action
	Video  media.VideoID
}

func (c Command) String() string {
	if c.Action == ActionStart {
		return fmt.Sprintf("%s(%s)", c.Action, c.Video)
	}
	return string(c.Action)
}

// message is the wire shape; fields other than these are ignored.
type message struct {
	Action string `json:"action"`
	Video  string `json:"video,omitempty"`
}

// Parse decodes one control message into a command from the closed set.
// Every failure wraps ErrMalformed.
func Parse(data []byte) (Command, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	action := Action(strings.ToLower(strings.TrimSpace(msg.Action)))
	switch action {
	case ActionStart:
		video := strings.TrimSpace(msg.Video)
		if video == "" {
			return Command{}, fmt.Errorf("%w: start without video", ErrMalformed)
		}
		return Command{Action: ActionStart, Video: media.VideoID(video)}, nil
	case ActionPause, ActionResume, ActionStop:
		return Command{Action: action}, nil
	case "":
		return Command{}, fmt.Errorf("%w: missing action", ErrMalformed)
	default:
		return Command{}, fmt.Errorf("%w: unknown action %q", ErrMalformed, msg.Action)
	}
}

// Encode renders a command in wire form, without the trailing delimiter.
func Encode(cmd Command) ([]byte, error) {
	msg := message{Action: string(cmd.Action)}
	if cmd.Action == ActionStart {
		msg.Video = string(cmd.Video)
	}
	return json.Marshal(msg)
}
