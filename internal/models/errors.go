package models

import "errors"

var (
	ErrFileNotOpenable            = errors.New("file not openable")
	ErrMalformedRow               = errors.New("malformed row")
	ErrMalformedNumber            = errors.New("malformed number")
	ErrIncompleteBaselineWindow   = errors.New("incomplete baseline window")
	ErrMissingYear                = errors.New("missing year")
	ErrUnresolvedCountry          = errors.New("unresolved country")
	ErrPopulationLookupFailed     = errors.New("population lookup failed")
	ErrOutputDirectoryUnavailable = errors.New("output directory unavailable")
	ErrMalformedDocument          = errors.New("malformed document")
)
