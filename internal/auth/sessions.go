// Package auth handles sign-in, cookie sessions, flash toasts, access
// control middleware and API tokens.
package auth

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/ziadkadry99/smart-summarizer/internal/ui"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
)

const (
	sessionName = "smartsum_session"
	userIDKey   = "user_id"
	rememberKey = "remember"
)

func init() {
	gob.Register(ui.Toast{})
}

// Sessions stores the signed-in user id and pending toasts in a signed
// cookie.
type Sessions struct {
	store  *sessions.CookieStore
	maxAge int
}

// NewSessions creates a cookie session store keyed by secret. maxAge is
// used for "remember me" logins; other logins last for the browser session.
func NewSessions(secret string, maxAge time.Duration, secure bool) *Sessions {
	age := int(maxAge.Seconds())
	store := sessions.NewCookieStore([]byte(secret))
	// Signed values older than age are rejected even if the browser kept
	// the cookie.
	store.MaxAge(age)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store, maxAge: age}
}

// session returns the request's session. A cookie that fails to decode,
// for example after the secret changed, yields a fresh session.
func (s *Sessions) session(r *http.Request) *sessions.Session {
	sess, _ := s.store.Get(r, sessionName)
	if remember, _ := sess.Values[rememberKey].(bool); remember {
		s.persist(sess)
	}
	return sess
}

// persist turns sess into a cookie that outlives the browser session.
func (s *Sessions) persist(sess *sessions.Session) {
	opts := *s.store.Options
	opts.MaxAge = s.maxAge
	sess.Options = &opts
}

// Login records user as signed in.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, user *users.User, remember bool) error {
	sess := s.session(r)
	sess.Values[userIDKey] = user.ID
	if remember {
		sess.Values[rememberKey] = true
		s.persist(sess)
	} else {
		delete(sess.Values, rememberKey)
	}
	return sess.Save(r, w)
}

// Logout forgets the signed-in user but keeps pending toasts.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	sess := s.session(r)
	delete(sess.Values, userIDKey)
	delete(sess.Values, rememberKey)
	opts := *s.store.Options
	sess.Options = &opts
	return sess.Save(r, w)
}

// UserID returns the signed-in user id, if any.
func (s *Sessions) UserID(r *http.Request) (int64, bool) {
	id, ok := s.session(r).Values[userIDKey].(int64)
	return id, ok
}

// AddToast queues a toast for the next rendered page.
func (s *Sessions) AddToast(w http.ResponseWriter, r *http.Request, kind ui.ToastKind, message string) {
	sess := s.session(r)
	sess.AddFlash(ui.Toast{Kind: kind, Message: message})
	sess.Save(r, w)
}

// Toasts returns and clears the pending toasts.
func (s *Sessions) Toasts(w http.ResponseWriter, r *http.Request) []ui.Toast {
	sess := s.session(r)
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	sess.Save(r, w)

	toasts := make([]ui.Toast, 0, len(flashes))
	for _, f := range flashes {
		if t, ok := f.(ui.Toast); ok {
			toasts = append(toasts, t)
		}
	}
	return toasts
}
