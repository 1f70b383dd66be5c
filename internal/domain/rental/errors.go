package rental

import "errors"

var (
	ErrUnknownCarType      = errors.New("unknown car type")
	ErrNotAvailable        = errors.New("no car available for the requested constraints")
	ErrNoCarAvailable      = errors.New("no car available at confirmation")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrTransport           = errors.New("provider transport failure")
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrDuplicateProvider   = errors.New("provider already registered")
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrNoProviders         = errors.New("no providers registered")
)
