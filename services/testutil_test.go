package services

import (
	"fmt"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/masalabite/pos-backend/config"
	"github.com/masalabite/pos-backend/models"
)

const testOwnerPassword = "owner-secret"

// setupTestDB opens a private in-memory SQLite database and migrates all
// models. The named DSN keeps GORM's connection pool on one database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.DailyCashCounter{},
		&models.InventoryItem{},
		&models.InventoryTransaction{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testOwnerPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash owner password: %v", err)
	}
	return &config.Config{
		GSTRateBasisPoints: 1800,
		MaxTables:          25,
		OwnerPasswordHash:  string(hash),
	}
}

// seedMenu creates a category with two dishes (8000 and 4000 paise) and an
// unavailable special.
func seedMenu(t *testing.T, db *gorm.DB) (dosa, chai, special models.MenuItem) {
	t.Helper()
	category := models.MenuCategory{Name: "South Indian"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	dosa = models.MenuItem{CategoryID: category.ID, Name: "Masala Dosa", Price: 8000, IsAvailable: true, IsVegetarian: true}
	chai = models.MenuItem{CategoryID: category.ID, Name: "Cutting Chai", Price: 4000, IsAvailable: true, IsBeverage: true}
	special = models.MenuItem{CategoryID: category.ID, Name: "Seasonal Special", Price: 15000, IsAvailable: false}
	for _, m := range []*models.MenuItem{&dosa, &chai, &special} {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("failed to seed menu item: %v", err)
		}
	}
	return dosa, chai, special
}
