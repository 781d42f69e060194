package models

import (
	"slices"
	"time"
)

// Roles understood by the authorization layer.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User represents an authenticated user owning products and orders.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Email     string    `gorm:"size:180;uniqueIndex;not null" json:"email"`
	Name      *string   `gorm:"size:255" json:"name,omitempty"`
	Password  string    `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	// Roles is stored as a JSON array. ROLE_USER is implied for every user.
	Roles []string `gorm:"serializer:json;not null" json:"roles"`

	Products []*Product `gorm:"foreignKey:UserID" json:"-"`
	Orders   []*Order   `gorm:"foreignKey:UserID" json:"-"`
}

// NewUser returns a user with empty relation collections.
func NewUser(email string) *User {
	return &User{
		Email:    email,
		Roles:    []string{},
		Products: []*Product{},
		Orders:   []*Order{},
	}
}

// GetRoles returns the stored roles plus the implicit ROLE_USER, deduplicated.
func (u *User) GetRoles() []string {
	roles := make([]string, 0, len(u.Roles)+1)
	for _, r := range append(slices.Clone(u.Roles), RoleUser) {
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// HasRole reports whether the user holds role, counting the implicit ROLE_USER.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.GetRoles(), role)
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}
