// Package team manages user groups and their issue assignments.
package team

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/m-troja/taskstorm/internal/models"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"github.com/m-troja/taskstorm/internal/user"
	"gorm.io/gorm"
)

const maxNameLen = 100

// Create validates and persists a new team. Names are unique.
func Create(db *gorm.DB, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, taskerr.New(taskerr.BadRequest, "team name cannot be empty")
	}
	if len(name) > maxNameLen {
		return nil, taskerr.New(taskerr.BadRequest, "team name too long - max %d chars", maxNameLen)
	}

	var count int64
	if err := db.Model(&models.Team{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("team: create: %w", err)
	}
	if count > 0 {
		return nil, taskerr.New(taskerr.TeamAlreadyExists, "team %s already exists", name)
	}

	tm := models.Team{Name: name}
	if err := db.Create(&tm).Error; err != nil {
		return nil, fmt.Errorf("team: create %s: %w", name, err)
	}
	log.Printf("team: created %s (id %d)", name, tm.ID)
	return &tm, nil
}

// GetByID fetches a team with members and issues loaded.
func GetByID(db *gorm.DB, id int) (*models.Team, error) {
	var tm models.Team
	err := db.Preload("Users").Preload("Issues").First(&tm, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerr.New(taskerr.TeamNotFound, "team %d was not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("team: get %d: %w", id, err)
	}
	return &tm, nil
}

// GetByName fetches a team by its exact name.
func GetByName(db *gorm.DB, name string) (*models.Team, error) {
	var tm models.Team
	err := db.Preload("Users").Preload("Issues").First(&tm, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerr.New(taskerr.TeamNotFound, "team %s was not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("team: get %s: %w", name, err)
	}
	return &tm, nil
}

// GetAll returns every team with members and issues loaded.
func GetAll(db *gorm.DB) ([]models.Team, error) {
	var teams []models.Team
	if err := db.Preload("Users").Preload("Issues").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("team: get all: %w", err)
	}
	return teams, nil
}

// AddUser puts a user on a team. Adding an existing member is a no-op.
func AddUser(db *gorm.DB, teamID, userID int) (*models.Team, error) {
	tm, err := GetByID(db, teamID)
	if err != nil {
		return nil, err
	}
	u, err := user.GetByID(db, userID)
	if err != nil {
		return nil, err
	}
	for _, member := range tm.Users {
		if member.ID == u.ID {
			return tm, nil
		}
	}
	if err := db.Model(tm).Association("Users").Append(u); err != nil {
		return nil, fmt.Errorf("team: add user %d to team %d: %w", userID, teamID, err)
	}
	return GetByID(db, teamID)
}

// RemoveUser takes a user off a team. Removing a non-member is a no-op.
func RemoveUser(db *gorm.DB, teamID, userID int) (*models.Team, error) {
	tm, err := GetByID(db, teamID)
	if err != nil {
		return nil, err
	}
	u, err := user.GetByID(db, userID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(tm).Association("Users").Delete(u); err != nil {
		return nil, fmt.Errorf("team: remove user %d from team %d: %w", userID, teamID, err)
	}
	return GetByID(db, teamID)
}

// UsersByTeam returns a team's members.
func UsersByTeam(db *gorm.DB, teamID int) ([]models.User, error) {
	tm, err := GetByID(db, teamID)
	if err != nil {
		return nil, err
	}
	return tm.Users, nil
}

// DeleteByID removes a team. Issues assigned to it lose their team
// reference but survive.
func DeleteByID(db *gorm.DB, id int) error {
	if _, err := GetByID(db, id); err != nil {
		return err
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Issue{}).Where("team_id = ?", id).
			Update("team_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM team_users WHERE team_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Team{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("team: delete %d: %w", id, err)
	}
	log.Printf("team: deleted %d", id)
	return nil
}
