package view

import "errors"

// ErrInvalidWindow reports a view window that cannot be resolved to a grid.
var ErrInvalidWindow = errors.New("invalid view window")
