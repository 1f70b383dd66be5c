package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/infrastructure/wire"
)

func (s *Server) withProvider() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := s.agency.Directory().Lookup(c.Param("provider"))
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.Set(ctxProvider, p)
		c.Next()
	}
}

func providerFrom(c *gin.Context) rental.Provider {
	return c.MustGet(ctxProvider).(rental.Provider)
}

func (s *Server) handleCarTypes(c *gin.Context) {
	types, err := providerFrom(c).CarTypes(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(types))
}

func (s *Server) handleCarType(c *gin.Context) {
	t, err := providerFrom(c).CarType(c.Request.Context(), c.Param("type"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleAvailable(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	p := providerFrom(c)
	if carType := c.Query("type"); carType != "" {
		ok, err := p.IsAvailable(c.Request.Context(), carType, period)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, wire.Availability{Available: ok})
		return
	}
	types, err := p.AvailableCarTypes(c.Request.Context(), period)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(types))
}

func (s *Server) handleCreateQuote(c *gin.Context) {
	var req wire.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Client == "" {
		badRequest(c, errors.New("client is required"))
		return
	}
	q, err := providerFrom(c).CreateQuote(c.Request.Context(), req.Constraints(), req.Client)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (s *Server) handleConfirmQuote(c *gin.Context) {
	var q rental.Quote
	if err := c.ShouldBindJSON(&q); err != nil {
		badRequest(c, err)
		return
	}
	r, err := providerFrom(c).ConfirmQuote(c.Request.Context(), q)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (s *Server) handleCancel(c *gin.Context) {
	var r rental.Reservation
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, err)
		return
	}
	if err := providerFrom(c).CancelReservation(c.Request.Context(), r); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleReservationsByRenter(c *gin.Context) {
	renter := c.Query("renter")
	if renter == "" {
		badRequest(c, errors.New("renter is required"))
		return
	}
	rs, err := providerFrom(c).ReservationsByRenter(c.Request.Context(), renter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rs))
}

func (s *Server) handleStats(c *gin.Context) {
	p := providerFrom(c)
	ctx := c.Request.Context()
	var (
		n   int
		err error
	)
	switch {
	case c.Query("type") != "":
		n, err = p.NumberOfReservationsForType(ctx, c.Query("type"))
	case c.Query("renter") != "":
		n, err = p.NumberOfReservationsBy(ctx, c.Query("renter"))
	default:
		n, err = p.TotalReservations(ctx)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.Count{Count: n})
}

// periodFromQuery reads the from and to query parameters.
func periodFromQuery(c *gin.Context) (rental.Period, error) {
	from, err := parseTime("from", c.Query("from"))
	if err != nil {
		return rental.Period{}, err
	}
	to, err := parseTime("to", c.Query("to"))
	if err != nil {
		return rental.Period{}, err
	}
	p := rental.NewPeriod(from, to)
	return p, p.Validate()
}

func parseTime(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", rental.ErrInvalidPeriod, name)
	}
	t, err := time.Parse(wire.TimeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", rental.ErrInvalidPeriod, name, err)
	}
	return t, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
