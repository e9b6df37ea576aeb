package auth

import (
	"encoding/gob"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const sessionName = "stageinv_session"

// rememberMaxAge is the cookie lifetime when the user ticks "remember me";
// otherwise the cookie lasts for the browser session.
const rememberMaxAge = 30 * 24 * 60 * 60

// Flash is a one-shot status message shown on the next rendered page.
type Flash struct {
	Level   string
	Message string
}

func init() {
	gob.Register(Flash{})
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Sessions wraps the signed cookie store. The signing secret comes from the
// environment with a development fallback.
type Sessions struct {
	store *sessions.CookieStore
}

func NewSessions(secret string) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

func (s *Sessions) SignIn(w http.ResponseWriter, r *http.Request, userID int64, remember bool) error {
	sess, _ := s.store.Get(r, sessionName)
	sess.Values["user_id"] = userID
	if remember {
		sess.Options.MaxAge = rememberMaxAge
	}
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Sessions) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, sessionName)
	delete(sess.Values, "user_id")
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// UserID returns the signed-in user's id, or false when the request carries
// no valid session.
func (s *Sessions) UserID(r *http.Request) (int64, bool) {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return 0, false
	}
	id, ok := sess.Values["user_id"].(int64)
	return id, ok
}

// AddFlash queues a status message for the next page render.
func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, level, message string) {
	sess, _ := s.store.Get(r, sessionName)
	sess.AddFlash(Flash{Level: level, Message: message})
	_ = sess.Save(r, w)
}

// Flashes drains and returns the queued messages.
func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess, _ := s.store.Get(r, sessionName)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(r, w)

	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}
