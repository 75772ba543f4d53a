// internal/httpserver/auth.go
//
// Admin authentication for puzzle management.
// There is a single admin account: its bcrypt hash lives in memory and is
// seeded from ADMIN_PASSWORD at startup. A successful login returns an
// HS256 JWT in the body and in an HttpOnly cookie; protected routes accept
// either the cookie or an Authorization: Bearer header.

package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	cookieName   = "crossword_token"
	adminSubject = "admin"
	minPassword  = 8
)

var (
	errBadCredentials = errors.New("invalid password")
	errWeakPassword   = errors.New("password must be 8-100 chars")
)

// Auth signs and checks admin tokens.
type Auth struct {
	secret []byte
	expiry time.Duration
	secure bool // Secure + SameSite=None cookies

	mu   sync.RWMutex
	hash []byte
}

// NewAuth hashes the initial admin password.
func NewAuth(secret string, expiry time.Duration, password string, secure bool) (*Auth, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Auth{secret: []byte(secret), expiry: expiry, secure: secure, hash: h}, nil
}

// Login checks the password and returns a signed token.
func (a *Auth) Login(password string) (string, time.Time, error) {
	if !a.check(password) {
		return "", time.Time{}, errBadCredentials
	}
	return a.sign()
}

// ChangePassword replaces the admin password after checking the old one.
func (a *Auth) ChangePassword(old, next string) error {
	if !a.check(old) {
		return errBadCredentials
	}
	if len(next) < minPassword || len(next) > 100 {
		return errWeakPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.hash = h
	a.mu.Unlock()
	return nil
}

func (a *Auth) check(password string) bool {
	a.mu.RLock()
	h := a.hash
	a.mu.RUnlock()
	return bcrypt.CompareHashAndPassword(h, []byte(password)) == nil
}

func (a *Auth) sign() (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(a.expiry)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString(a.secret)
	return ss, exp, err
}

// Valid reports whether tok is an unexpired admin token signed by us.
func (a *Auth) Valid(tok string) bool {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil && t.Valid && claims.Subject == adminSubject
}

// setCookie writes the auth token cookie.
func (a *Auth) setCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: a.sameSite(),
		Expires:  exp,
	})
}

// clearCookie deletes the auth token cookie.
func (a *Auth) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: a.sameSite(),
		MaxAge:   -1,
	})
}

func (a *Auth) sameSite() http.SameSite {
	if a.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// requireAdmin rejects requests without a valid admin token.
func (a *Auth) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerOrCookie(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !a.Valid(tok) {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
