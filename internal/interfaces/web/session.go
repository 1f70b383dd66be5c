package web

import (
	"net/http"

	"github.com/gorilla/securecookie"
)

const sessionName = "rentalbroker_session"

// SessionManager stores the client name of a reservation session in a
// signed and encrypted cookie.
type SessionManager struct{ sc *securecookie.SecureCookie }

func NewSessionManager(hashKey, blockKey []byte) *SessionManager {
	return &SessionManager{sc: securecookie.New(hashKey, blockKey)}
}

func (s *SessionManager) SetClient(w http.ResponseWriter, client string) error {
	value := map[string]string{"client": client}
	encoded, err := s.sc.Encode(sessionName, value)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: encoded, Path: "/",
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
}

func (s *SessionManager) Client(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionName)
	if err != nil {
		return "", false
	}
	value := map[string]string{}
	if err := s.sc.Decode(sessionName, c.Value, &value); err != nil {
		return "", false
	}
	client := value["client"]
	if client == "" {
		return "", false
	}
	return client, true
}
