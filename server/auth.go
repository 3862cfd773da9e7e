package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookieName = "waypoint_session"

var (
	errUsernameTaken      = errors.New("username already taken")
	errInvalidCredentials = errors.New("invalid username or password")
)

type user struct {
	ID           string
	Username     string
	PasswordHash []byte
}

// authStore keeps credentials and live sessions in memory. Passwords are
// stored as bcrypt hashes only.
type authStore struct {
	mu       sync.RWMutex
	users    map[string]user   // by username
	sessions map[string]string // token -> user id
}

func newAuthStore() *authStore {
	return &authStore{
		users:    map[string]user{},
		sessions: map[string]string{},
	}
}

func (a *authStore) signup(username, password string) (user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.users[username]; exists {
		return user{}, errUsernameTaken
	}
	account := user{ID: uuid.NewString(), Username: username, PasswordHash: hash}
	a.users[username] = account
	return account, nil
}

func (a *authStore) login(username, password string) (string, error) {
	a.mu.RLock()
	account, exists := a.users[username]
	a.mu.RUnlock()
	if !exists {
		return "", errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return "", errInvalidCredentials
	}

	token := uuid.NewString()
	a.mu.Lock()
	a.sessions[token] = account.ID
	a.mu.Unlock()
	return token, nil
}

func (a *authStore) logout(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, token)
}

func (a *authStore) userID(token string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	userID, ok := a.sessions[token]
	return userID, ok
}

type contextKey string

const userIDKey contextKey = "userID"

// requireUser resolves the session cookie and stores the user id on the
// request context; unauthenticated requests get a 401.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		userID, ok := s.auth.userID(cookie.Value)
		if !ok {
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

func requestUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

func sessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Username == "" || len(body.Password) < 8 {
		writeError(w, http.StatusBadRequest, "username and a password of at least 8 characters are required")
		return
	}

	account, err := s.auth.signup(body.Username, body.Password)
	if errors.Is(err, errUsernameTaken) {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	token, err := s.auth.login(body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open session")
		return
	}
	http.SetCookie(w, sessionCookie(token, time.Now().Add(30*24*time.Hour)))
	writeJSON(w, http.StatusCreated, map[string]string{"id": account.ID, "username": account.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.auth.login(body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	http.SetCookie(w, sessionCookie(token, time.Now().Add(30*24*time.Hour)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.auth.logout(cookie.Value)
	}
	http.SetCookie(w, sessionCookie("", time.Unix(0, 0)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
