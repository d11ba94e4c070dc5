package siren

import zlog "github.com/rs/zerolog/log"

// Hardware event entry points. Button presses have no caller to report to,
// so failures are logged and swallowed.

// HandleToggleEvent services a press of the start/stop button.
func (c *Controller) HandleToggleEvent() {
	if err := c.Toggle(); err != nil {
		zlog.Error().Err(err).Msg("toggle button event failed")
	}
}

// HandleModeAdvanceEvent services a press of the mode button.
func (c *Controller) HandleModeAdvanceEvent() {
	if err := c.SwitchMode(); err != nil {
		zlog.Error().Err(err).Msg("mode button event failed")
	}
}
