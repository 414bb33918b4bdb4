// Package project manages the projects that own issues and provide the
// short-name prefix for issue keys.
package project

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/m-troja/taskstorm/internal/models"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"gorm.io/gorm"
)

const (
	maxShortNameLen   = 6
	maxDescriptionLen = 255
)

// Create validates and persists a new project. The short name is trimmed
// and uppercased; only letters and spaces are allowed, up to six characters.
func Create(db *gorm.DB, shortName, description string) (*models.Project, error) {
	shortName = strings.ToUpper(strings.TrimSpace(shortName))
	if err := validateShortName(shortName); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, taskerr.New(taskerr.InvalidProjectData, "description cannot be empty")
	}
	if len(description) > maxDescriptionLen {
		return nil, taskerr.New(taskerr.InvalidProjectData,
			"description too long - max %d chars", maxDescriptionLen)
	}

	var count int64
	if err := db.Model(&models.Project{}).Where("short_name = ?", shortName).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("project: create: %w", err)
	}
	if count > 0 {
		return nil, taskerr.New(taskerr.InvalidProjectData, "project %s already exists", shortName)
	}

	p := models.Project{ShortName: shortName, Description: description}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("project: create %s: %w", shortName, err)
	}
	log.Printf("project: created %s (id %d)", shortName, p.ID)
	return &p, nil
}

func validateShortName(shortName string) error {
	if shortName == "" {
		return taskerr.New(taskerr.InvalidProjectData, "short name cannot be empty")
	}
	if len(shortName) > maxShortNameLen {
		return taskerr.New(taskerr.InvalidProjectData,
			"short name too long - max %d chars", maxShortNameLen)
	}
	for _, r := range shortName {
		if (r < 'A' || r > 'Z') && r != ' ' {
			return taskerr.New(taskerr.InvalidProjectData,
				"short name may contain only letters and spaces")
		}
	}
	return nil
}

// GetByID fetches a project with its issues loaded.
func GetByID(db *gorm.DB, id int) (*models.Project, error) {
	var p models.Project
	err := db.Preload("Issues").Preload("Issues.Key").First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerr.New(taskerr.ProjectNotFound, "project %d was not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("project: get %d: %w", id, err)
	}
	return &p, nil
}

// GetByShortName fetches a project by its key prefix, case-insensitively.
func GetByShortName(db *gorm.DB, shortName string) (*models.Project, error) {
	shortName = strings.ToUpper(strings.TrimSpace(shortName))
	var p models.Project
	err := db.Preload("Issues").Preload("Issues.Key").
		First(&p, "short_name = ?", shortName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerr.New(taskerr.ProjectNotFound, "project %s was not found", shortName)
	}
	if err != nil {
		return nil, fmt.Errorf("project: get %s: %w", shortName, err)
	}
	return &p, nil
}

// GetAll returns every project with issues loaded.
func GetAll(db *gorm.DB) ([]models.Project, error) {
	var projects []models.Project
	err := db.Preload("Issues").Preload("Issues.Key").Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("project: get all: %w", err)
	}
	return projects, nil
}

// DeleteByID removes a project. Its issue keys are deleted with it; the
// issues themselves survive and lose their project reference.
func DeleteByID(db *gorm.DB, id int) error {
	if _, err := GetByID(db, id); err != nil {
		return err
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.IssueKey{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Issue{}).Where("project_id = ?", id).
			Update("project_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("project: delete %d: %w", id, err)
	}
	log.Printf("project: deleted %d", id)
	return nil
}
