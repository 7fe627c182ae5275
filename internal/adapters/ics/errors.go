package ics

import "errors"

// Sentinel kinds for ICS import errors.
var (
	ErrParse = errors.New("ics parse failed")
	ErrFetch = errors.New("ics fetch failed")
)
