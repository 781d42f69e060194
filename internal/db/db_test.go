package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/diewo77/shop-api/internal/config"
	"github.com/diewo77/shop-api/internal/models"
	"github.com/diewo77/shop-api/internal/schema"
	"github.com/diewo77/shop-api/internal/testdb"
)

func ptr[T any](v T) *T { return &v }

func TestConnectAndMigrate_SQLite(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "shop.db")}
	d, err := Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := Migrate(context.Background(), d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Running again is a no-op.
	if err := Migrate(context.Background(), d); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	for _, tbl := range schema.Shop().Tables {
		if !d.Migrator().HasTable(tbl.Name) {
			t.Errorf("missing table %s", tbl.Name)
		}
	}
}

func TestConnect_UnknownDriver(t *testing.T) {
	if _, err := Connect(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestClassifyError_SQLite(t *testing.T) {
	d := testdb.OpenMigrated(t)

	err := ClassifyError(d.Create(&models.Product{Name: ptr("Chair"), TypeID: ptr(uint(999))}).Error)
	var cv *ConstraintViolationError
	if !errors.As(err, &cv) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
	if cv.Kind != ForeignKeyViolation {
		t.Errorf("Kind = %s, want %s", cv.Kind, ForeignKeyViolation)
	}
	var count int64
	d.Model(&models.Product{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected insert left %d rows", count)
	}

	if err := d.Create(models.NewUser("dup@example.com")).Error; err != nil {
		t.Fatalf("first user: %v", err)
	}
	err = ClassifyError(d.Create(models.NewUser("dup@example.com")).Error)
	if !errors.As(err, &cv) || cv.Kind != UniqueViolation {
		t.Errorf("duplicate email: got %v, want unique violation", err)
	}
}

func TestClassifyError_Postgres(t *testing.T) {
	tests := []struct {
		code string
		want ConstraintKind
	}{
		{"23503", ForeignKeyViolation},
		{"23505", UniqueViolation},
		{"23502", NotNullViolation},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tt.code, ConstraintName: "fk_products_type_id", Message: "violation"}
			err := ClassifyError(pgErr)
			var cv *ConstraintViolationError
			if !errors.As(err, &cv) {
				t.Fatalf("expected constraint violation, got %v", err)
			}
			if cv.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", cv.Kind, tt.want)
			}
			if !errors.Is(err, pgErr) {
				t.Error("driver error must stay reachable")
			}
		})
	}

	other := &pgconn.PgError{Code: "42P01"}
	if got := ClassifyError(other); got != error(other) {
		t.Errorf("non-constraint error should pass through, got %v", got)
	}
	if ClassifyError(nil) != nil {
		t.Error("nil should stay nil")
	}
}

func TestSeedIdempotent(t *testing.T) {
	d := testdb.OpenMigrated(t)
	if err := Seed(d); err != nil {
		t.Fatal(err)
	}
	if err := Seed(d); err != nil {
		t.Fatal(err)
	}
	var ptCount, catCount int64
	d.Model(&models.ProductType{}).Count(&ptCount)
	d.Model(&models.Category{}).Count(&catCount)
	if ptCount != 3 || catCount != 3 {
		t.Fatalf("expected 3 product types and 3 categories, got %d and %d", ptCount, catCount)
	}
}

func TestEnsureAdmin(t *testing.T) {
	d := testdb.OpenMigrated(t)

	u, err := EnsureAdmin(d, " Admin@Shop.test ", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "admin@shop.test" || !u.IsAdmin() {
		t.Fatalf("unexpected admin %+v", u)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret")) != nil {
		t.Error("password should be stored as a bcrypt hash")
	}

	again, err := EnsureAdmin(d, "admin@shop.test", "other")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != u.ID || again.Password != u.Password {
		t.Error("existing admin must be reused unchanged")
	}

	plain := models.NewUser("plain@shop.test")
	plain.Password = "x"
	if err := d.Create(plain).Error; err != nil {
		t.Fatal(err)
	}
	promoted, err := EnsureAdmin(d, "plain@shop.test", "ignored")
	if err != nil {
		t.Fatal(err)
	}
	var stored models.User
	d.First(&stored, promoted.ID)
	if !stored.IsAdmin() {
		t.Errorf("roles = %v, want ROLE_ADMIN", stored.Roles)
	}

	if _, err := EnsureAdmin(d, "", "x"); err == nil {
		t.Error("empty email should be rejected")
	}
}
