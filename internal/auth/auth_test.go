package auth

import (
	"testing"

	"github.com/m-troja/taskstorm/internal/config"
	"github.com/m-troja/taskstorm/internal/db"
	"github.com/m-troja/taskstorm/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := db.Seed(gdb); err != nil {
		t.Fatalf("seed test db: %v", err)
	}
	return gdb
}

func testIssuer() *TokenIssuer {
	return NewTokenIssuer(config.JWTConfig{
		Secret:        "unit-test-secret",
		Issuer:        "taskstorm",
		Audience:      "taskstorm-api",
		ExpiryMinutes: 60,
	})
}

// registerTestUser creates a registered, enabled account and returns it.
func registerTestUser(t *testing.T, gdb *gorm.DB, email, password string) *models.User {
	t.Helper()
	u, err := Register(gdb, RegisterRequest{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  password,
	})
	if err != nil {
		t.Fatalf("register test user: %v", err)
	}
	return u
}
