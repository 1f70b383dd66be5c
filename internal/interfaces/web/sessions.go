package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/rental-broker/internal/application/session"
	"github.com/example/rental-broker/internal/infrastructure/wire"
)

func (s *Server) handleStartSession(c *gin.Context) {
	var req wire.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := s.agency.StartReservationSession(req.Client)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.sessions.SetClient(c.Writer, sess.Client()); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"client": sess.Client(), "session": sess.ID()})
}

// requireSession resolves the reservation session named by the cookie.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		client, ok := s.sessions.Client(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, wire.Error{Code: wire.CodeNoSession, Message: "no session cookie"})
			return
		}
		sess, ok := s.agency.ReservationSession(client)
		if !ok {
			s.sessions.Clear(c.Writer)
			c.AbortWithStatusJSON(http.StatusUnauthorized, wire.Error{Code: wire.CodeNoSession, Message: "session " + client + " has ended"})
			return
		}
		c.Set(ctxSession, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.ReservationSession {
	return c.MustGet(ctxSession).(*session.ReservationSession)
}

func (s *Server) handleEndSession(c *gin.Context) {
	s.agency.EndReservationSession(sessionFrom(c).Client())
	s.sessions.Clear(c.Writer)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSessionQuote(c *gin.Context) {
	var req wire.SessionQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, err := sessionFrom(c).CreateQuote(c.Request.Context(), req.Constraints(), req.Provider)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (s *Server) handleSessionQuotes(c *gin.Context) {
	c.JSON(http.StatusOK, nonNil(sessionFrom(c).CurrentQuotes()))
}

func (s *Server) handleSessionConfirm(c *gin.Context) {
	rs, err := sessionFrom(c).ConfirmQuotes(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rs))
}

func (s *Server) handleSessionAvailable(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	types, err := sessionFrom(c).AvailableCarTypes(c.Request.Context(), period.Start, period.End)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(types))
}

func (s *Server) handleSessionCheapest(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	t, err := sessionFrom(c).CheapestCarType(c.Request.Context(), period.Start, period.End)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
