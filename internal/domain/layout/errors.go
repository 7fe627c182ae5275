package layout

import "errors"

// ErrInvalidConfiguration is returned when the engine options or the view
// window are unusable. It signals a caller bug, never bad event data.
var ErrInvalidConfiguration = errors.New("invalid layout configuration")
