// Package wire holds the JSON shapes exchanged between the HTTP transport
// and remote provider clients, and the mapping between domain errors and
// wire error codes.
package wire

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/rental-broker/internal/domain/rental"
)

// TimeLayout is the layout of time query parameters.
const TimeLayout = time.RFC3339

type QuoteRequest struct {
	Client  string    `json:"client"`
	CarType string    `json:"carType" binding:"required"`
	Start   time.Time `json:"start" binding:"required"`
	End     time.Time `json:"end" binding:"required"`
}

func (r QuoteRequest) Constraints() rental.Constraints {
	return rental.Constraints{Period: rental.NewPeriod(r.Start, r.End), CarType: r.CarType}
}

type SessionQuoteRequest struct {
	Provider string    `json:"provider" binding:"required"`
	CarType  string    `json:"carType" binding:"required"`
	Start    time.Time `json:"start" binding:"required"`
	End      time.Time `json:"end" binding:"required"`
}

func (r SessionQuoteRequest) Constraints() rental.Constraints {
	return rental.Constraints{Period: rental.NewPeriod(r.Start, r.End), CarType: r.CarType}
}

type StartSessionRequest struct {
	Client string `json:"client" binding:"required"`
}

type RegisterProviderRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

type Availability struct {
	Available bool `json:"available"`
}

type Count struct {
	Count int `json:"count"`
}

type Popular struct {
	Provider string `json:"provider"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

const (
	CodeUnknownCarType      = "unknown_car_type"
	CodeNotAvailable        = "not_available"
	CodeNoCarAvailable      = "no_car_available"
	CodeReservationNotFound = "reservation_not_found"
	CodeUnknownProvider     = "unknown_provider"
	CodeDuplicateProvider   = "duplicate_provider"
	CodeInvalidPeriod       = "invalid_period"
	CodeNoProviders         = "no_providers"
	CodeTransport           = "transport_failure"
	CodeBadRequest          = "bad_request"
	CodeNoSession           = "no_session"
	CodeInternal            = "internal"
)

var codes = []struct {
	err    error
	code   string
	status int
}{
	{rental.ErrUnknownCarType, CodeUnknownCarType, http.StatusNotFound},
	{rental.ErrNotAvailable, CodeNotAvailable, http.StatusConflict},
	{rental.ErrNoCarAvailable, CodeNoCarAvailable, http.StatusConflict},
	{rental.ErrReservationNotFound, CodeReservationNotFound, http.StatusNotFound},
	{rental.ErrUnknownProvider, CodeUnknownProvider, http.StatusNotFound},
	{rental.ErrDuplicateProvider, CodeDuplicateProvider, http.StatusConflict},
	{rental.ErrInvalidPeriod, CodeInvalidPeriod, http.StatusBadRequest},
	{rental.ErrNoProviders, CodeNoProviders, http.StatusNotFound},
	{rental.ErrTransport, CodeTransport, http.StatusBadGateway},
}

// FromError maps a domain error to its wire code and HTTP status.
func FromError(err error) (Error, int) {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return Error{Code: c.code, Message: err.Error()}, c.status
		}
	}
	return Error{Code: CodeInternal, Message: err.Error()}, http.StatusInternalServerError
}

// ToError turns a wire error back into a domain error. Unknown codes
// become transport failures.
func ToError(e Error, status int) error {
	for _, c := range codes {
		if c.code == e.Code {
			return fmt.Errorf("%w (remote: %s)", c.err, e.Message)
		}
	}
	return fmt.Errorf("%w: http %d: %s %s", rental.ErrTransport, status, e.Code, e.Message)
}
