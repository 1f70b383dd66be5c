package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/rental-broker/internal/application/session"
	"github.com/example/rental-broker/internal/infrastructure/wire"
)

// manager returns the manager session named by the X-Manager header.
func (s *Server) manager(c *gin.Context) (*session.ManagerSession, bool) {
	name := c.GetHeader(managerHeader)
	if name == "" {
		name = defaultManager
	}
	m, err := s.agency.StartManagerSession(name)
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	return m, true
}

func (s *Server) handleProviderNames(c *gin.Context) {
	m, ok := s.manager(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nonNil(m.ProviderNames()))
}

func (s *Server) handleRegisterProvider(c *gin.Context) {
	var req wire.RegisterProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m, ok := s.manager(c)
	if !ok {
		return
	}
	if err := m.RegisterProvider(s.remote(req.Name, req.URL)); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"provider": req.Name})
}

func (s *Server) handleUnregisterProvider(c *gin.Context) {
	m, ok := s.manager(c)
	if !ok {
		return
	}
	if err := m.UnregisterProvider(c.Param("provider")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleManagerCarTypes(c *gin.Context) {
	m, ok := s.manager(c)
	if !ok {
		return
	}
	types, err := m.CarTypesOf(c.Request.Context(), c.Param("provider"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(types))
}

func (s *Server) handleManagerTypeCount(c *gin.Context) {
	m, ok := s.manager(c)
	if !ok {
		return
	}
	n, err := m.NumberOfReservationsForType(c.Request.Context(), c.Param("provider"), c.Param("type"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.Count{Count: n})
}

func (s *Server) handleManagerRenterReservations(c *gin.Context) {
	m, ok := s.manager(c)
	if !ok {
		return
	}
	rs, err := m.ReservationsBy(c.Request.Context(), c.Param("renter"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rs))
}

func (s *Server) handleManagerRenterCount(c *gin.Context) {
	m, ok := s.manager(c)
	if !ok {
		return
	}
	n, err := m.NumberOfReservationsBy(c.Request.Context(), c.Param("renter"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.Count{Count: n})
}

func (s *Server) handleTotals(c *gin.Context) {
	m, ok := s.manager(c)
	if !ok {
		return
	}
	totals, err := m.Totals(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(totals))
}

func (s *Server) handlePopular(c *gin.Context) {
	m, ok := s.manager(c)
	if !ok {
		return
	}
	name, err := m.MostPopularProvider(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.Popular{Provider: name})
}
