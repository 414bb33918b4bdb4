package db

import (
	"errors"
	"fmt"

	"github.com/m-troja/taskstorm/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model for migration, dependencies first.
func AllModels() []interface{} {
	return []interface{}{
		&models.Role{},
		&models.User{},
		&models.Team{},
		&models.Project{},
		&models.Issue{},
		&models.IssueKey{},
		&models.Comment{},
		&models.CommentAttachment{},
		&models.Activity{},
		&models.RefreshToken{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// Seed creates the fixed rows the application relies on: the two roles,
// the system user and the dummy project. Safe to run repeatedly.
func Seed(db *gorm.DB) error {
	for _, name := range []string{models.RoleUser, models.RoleAdmin} {
		var role models.Role
		err := db.Where("name = ?", name).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = db.Create(&models.Role{Name: name}).Error
		}
		if err != nil {
			return fmt.Errorf("db: seed role %s: %w", name, err)
		}
	}
	if err := EnsureSystemRows(db); err != nil {
		return err
	}
	return nil
}

// EnsureSystemRows upserts the reserved system user and dummy project.
// Also invoked from the issue-creation path so a database seeded before
// these rows existed still behaves.
func EnsureSystemRows(db *gorm.DB) error {
	var user models.User
	err := db.Where("id = ?", models.SystemUserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Create(&models.User{
			ID:        models.SystemUserID,
			FirstName: "System",
			LastName:  "User",
			Email:     "system.user@taskstorm.local",
			Disabled:  true,
		}).Error
	}
	if err != nil {
		return fmt.Errorf("db: ensure system user: %w", err)
	}

	var project models.Project
	err = db.Where("id = ?", models.DummyProjectID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Create(&models.Project{
			ID:          models.DummyProjectID,
			ShortName:   "DUMMY",
			Description: "Fallback project for issues with no resolvable project",
		}).Error
	}
	if err != nil {
		return fmt.Errorf("db: ensure dummy project: %w", err)
	}
	return nil
}
