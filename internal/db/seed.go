package db

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/shop-api/internal/models"
)

// Seed creates the baseline product types and categories. Safe to run repeatedly.
func Seed(db *gorm.DB) error {
	productTypes := []struct{ Name, Libelle string }{
		{"Physique", "Produit expédié"},
		{"Numérique", "Produit téléchargeable"},
		{"Service", "Prestation de services"},
	}
	for _, pt := range productTypes {
		row := models.ProductType{Name: &pt.Name, Libelle: &pt.Libelle}
		if err := db.Where("name = ?", pt.Name).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seed product type %q: %w", pt.Name, err)
		}
	}

	categories := []struct{ Name, Libelle string }{
		{"Maison", "Maison et jardin"},
		{"Informatique", "Matériel et logiciels"},
		{"Loisirs", "Sport et loisirs"},
	}
	for _, c := range categories {
		row := models.Category{Name: &c.Name, Libelle: &c.Libelle}
		if err := db.Where("name = ?", c.Name).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	return nil
}

// EnsureAdmin creates an administrator with the given credentials, or grants
// ROLE_ADMIN to an existing account with that email. The password of an
// existing account is left untouched.
func EnsureAdmin(db *gorm.DB, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("admin email and password are required")
	}

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user = *models.NewUser(email)
		user.Password = string(hash)
		user.Roles = []string{models.RoleAdmin}
		if err := db.Create(&user).Error; err != nil {
			return nil, ClassifyError(err)
		}
		return &user, nil
	case err != nil:
		return nil, err
	}

	if !user.IsAdmin() {
		user.Roles = append(user.Roles, models.RoleAdmin)
		if err := db.Save(&user).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}
