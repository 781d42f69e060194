package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/shop-api/internal/auth"
	"github.com/diewo77/shop-api/internal/db"
	"github.com/diewo77/shop-api/internal/httpx"
	"github.com/diewo77/shop-api/internal/models"
	"github.com/diewo77/shop-api/internal/validation"
)

// MinPasswordLength is enforced at signup.
const MinPasswordLength = 8

type AuthHandler struct {
	db       *gorm.DB
	sessions *auth.Sessions
}

func NewAuthHandler(conn *gorm.DB, sessions *auth.Sessions) *AuthHandler {
	return &AuthHandler{db: conn, sessions: sessions}
}

type credentials struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

type sessionResponse struct {
	Token string    `json:"token"`
	User  *userView `json:"user"`
}

type userView struct {
	*models.User
	Roles []string `json:"roles"`
}

func newUserView(u *models.User) *userView {
	return &userView{User: u, Roles: u.GetRoles()}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Email = normalizeEmail(in.Email)

	v := make(validation.Violations)
	validation.Required("email", in.Email, v)
	validation.Length("password", in.Password, MinPasswordLength, 72, v)
	if err := v.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := models.NewUser(in.Email)
	user.Password = string(hashedPassword)
	user.Name = in.Name
	if err := h.db.WithContext(r.Context()).Create(user).Error; err != nil {
		writeError(w, r, db.ClassifyError(err))
		return
	}

	token := h.sessions.Create(w, user.ID)
	httpx.JSON(w, http.StatusCreated, sessionResponse{Token: token, User: newUserView(user)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	var user models.User
	err := h.db.WithContext(r.Context()).Where("email = ?", normalizeEmail(in.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
			return
		}
		writeError(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}

	token := h.sessions.Create(w, user.ID)
	httpx.JSON(w, http.StatusOK, sessionResponse{Token: token, User: newUserView(&user)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	httpx.NoContent(w)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newUserView(&user))
}

// UserExists reports whether uid is still a stored user. It backs the
// session verifier so tokens of deleted users stop working.
func (h *AuthHandler) UserExists(ctx context.Context, uid uint) bool {
	var n int64
	h.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Count(&n)
	return n > 0
}
