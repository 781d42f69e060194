// Package auth issues and checks HMAC-signed session tokens. A token travels
// either in the session cookie or as an "Authorization: Bearer" header.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/shop-api/internal/httpx"
)

type ctxKey string

const (
	sessionCookieName = "session"
	userIDCtxKey      = ctxKey("userID")

	// DefaultTTL is how long a session stays valid.
	DefaultTTL = 14 * 24 * time.Hour
)

// UserVerifier validates that a session's user still exists.
type UserVerifier func(ctx context.Context, uid uint) bool

// Sessions signs and verifies session tokens with a shared secret.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	verify UserVerifier
	now    func() time.Time
}

// NewSessions returns a session manager signing with secret.
func NewSessions(secret string) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: DefaultTTL, now: time.Now}
}

// WithVerifier makes RequireAuth reject sessions of users v does not accept.
func (s *Sessions) WithVerifier(v UserVerifier) *Sessions {
	tmp := *s
	tmp.verify = v
	return &tmp
}

func (s *Sessions) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Token returns a signed token for userID: "<uid>.<expiry>.<sig>".
func (s *Sessions) Token(userID uint) string {
	exp := s.now().Add(s.ttl).Unix()
	payload := strconv.FormatUint(uint64(userID), 10) + "." + strconv.FormatInt(exp, 10)
	return payload + "." + s.sign(payload)
}

// Create issues a token for userID, sets it as the session cookie and returns it.
func (s *Sessions) Create(w http.ResponseWriter, userID uint) string {
	token := s.Token(userID)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(s.ttl),
	})
	return token
}

// Clear deletes the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// Verify checks a token and returns its user id.
func (s *Sessions) Verify(token string) (uint, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, false
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(s.sign(payload))) {
		return 0, false
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || s.now().Unix() >= exp {
		return 0, false
	}
	id64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

// Parse extracts the session from the bearer header, falling back to the cookie.
func (s *Sessions) Parse(r *http.Request) (uint, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return 0, false
		}
		return s.Verify(strings.TrimSpace(token))
	}
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	return s.Verify(c.Value)
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uint)
	return id, ok && id != 0
}

// Middleware attaches user id to request context if present.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := s.Parse(r); ok {
			r = r.WithContext(WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 unless Middleware found a valid session for a user
// the verifier still accepts.
func (s *Sessions) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if ok && s.verify != nil && !s.verify(r.Context(), uid) {
			// Session refers to a deleted user: clear it and treat as anonymous.
			s.Clear(w)
			ok = false
		}
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
