package streaming

import (
	"errors"

	"framecast/internal/domain/control"
	"github.com/hashicorp/go-hclog"
)

// receiver turns control messages into state changes.
type receiver struct {
	conn   Conn
	state  *State
	logger hclog.Logger
}

// run applies commands in wire order until the connection fails. A malformed message
// is dropped; any other read error raises the stop flag and ends the loop.
func (r *receiver) run() error {
	for {
		cmd, err := r.conn.ReadCommand()
		if err != nil {
			if errors.Is(err, control.ErrMalformed) {
				r.logger.Warn("dropping control message", "error", err)
				continue
			}
			r.state.RequestStop()
			return err
		}
		r.apply(cmd)
	}
}

func (r *receiver) apply(cmd control.Command) {
	switch cmd.Action {
	case control.ActionStart:
		gen := r.state.Start(cmd.Video)
		r.logger.Info("start requested", "video", cmd.Video, "generation", gen)
	case control.ActionPause:
		if r.state.Pause() {
			r.logger.Info("paused")
		} else {
			r.logger.Debug("pause ignored")
		}
	case control.ActionResume:
		r.state.Resume()
		r.logger.Info("resumed")
	case control.ActionStop:
		r.state.Stop()
		r.logger.Info("stop requested")
	default:
		r.logger.Warn("unhandled control action", "action", cmd.Action)
	}
}
