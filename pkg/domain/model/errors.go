package model

import "github.com/m-mizutani/goerr/v2"

// Run-fatal errors. They abort the whole run.
var (
	ErrInvalidTarget     = goerr.New("invalid target URL")
	ErrTargetUnreachable = goerr.New("target URL is unreachable")
	ErrPageFetch         = goerr.New("failed to fetch page")
	ErrPersistHTML       = goerr.New("failed to persist page HTML")
	ErrParseHTML         = goerr.New("failed to parse page HTML")
)

// Job-isolated errors
var (
	// ErrUnexpectedStatus is returned when a server answers with a non-2xx status
	ErrUnexpectedStatus = goerr.New("unexpected HTTP status")

	// ErrUnresolvableRef is returned for references that cannot become a fetchable URL
	ErrUnresolvableRef = goerr.New("unresolvable reference")
)
