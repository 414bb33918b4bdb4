// Package user implements account lookup and administration.
package user

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/m-troja/taskstorm/internal/models"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"gorm.io/gorm"
)

// SlackProfile is one user record pulled from the chat bridge directory.
type SlackProfile struct {
	SlackUserID string `json:"slackUserId"`
	SlackName   string `json:"slackName"`
}

// SlackDirectory pulls the known chat users from the external bridge.
// Implemented by notify.DirectoryClient; nil disables the remote lookup.
type SlackDirectory interface {
	FetchUsers(ctx context.Context) ([]SlackProfile, error)
}

// GetByID fetches a user with roles and teams loaded.
func GetByID(db *gorm.DB, id int) (*models.User, error) {
	var u models.User
	err := db.Preload("Roles").Preload("Teams").First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerr.New(taskerr.UserNotFound, "user %d was not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("user: get %d: %w", id, err)
	}
	return &u, nil
}

// GetByEmail fetches a user by email with roles loaded.
func GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	u, err := TryGetByEmail(db, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, taskerr.New(taskerr.UserNotFound, "user %s was not found", email)
	}
	return u, nil
}

// TryGetByEmail fetches a user by email, returning nil when absent.
func TryGetByEmail(db *gorm.DB, email string) (*models.User, error) {
	var u models.User
	err := db.Preload("Roles").First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user: get by email: %w", err)
	}
	return &u, nil
}

// GetAll returns every user with roles loaded.
func GetAll(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Preload("Roles").Preload("Teams").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user: get all: %w", err)
	}
	return users, nil
}

// Update persists changes to an existing user.
func Update(db *gorm.DB, u *models.User) error {
	if err := db.Save(u).Error; err != nil {
		return fmt.Errorf("user: update %d: %w", u.ID, err)
	}
	return nil
}

// DeleteByID removes a user row.
func DeleteByID(db *gorm.DB, id int) error {
	if _, err := GetByID(db, id); err != nil {
		return err
	}
	if err := db.Delete(&models.User{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("user: delete %d: %w", id, err)
	}
	return nil
}

// DeleteAll removes every user row.
func DeleteAll(db *gorm.DB) error {
	if err := db.Where("1 = 1").Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("user: delete all: %w", err)
	}
	return nil
}

// GetBySlackUserID fetches a user by their Slack id.
func GetBySlackUserID(db *gorm.DB, slackUserID string) (*models.User, error) {
	var u models.User
	err := db.Preload("Roles").First(&u, "slack_user_id = ?", slackUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerr.New(taskerr.UserNotFound, "user by slack id %q was not found", slackUserID)
	}
	if err != nil {
		return nil, fmt.Errorf("user: get by slack id: %w", err)
	}
	return &u, nil
}

// GetIDBySlackUserID resolves a Slack user id to a local user id. Unknown
// ids trigger a directory sync against the chat bridge; when that still
// yields nothing, the Slack bot user is returned as the fallback identity.
func GetIDBySlackUserID(ctx context.Context, db *gorm.DB, dir SlackDirectory, slackUserID string) (int, error) {
	if slackUserID == "" {
		return 0, taskerr.New(taskerr.BadRequest, "slack user id cannot be empty")
	}

	var u models.User
	err := db.First(&u, "slack_user_id = ?", slackUserID).Error
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("user: lookup slack id: %w", err)
	}

	if dir != nil {
		profiles, ferr := dir.FetchUsers(ctx)
		if ferr != nil {
			log.Printf("user: slack directory fetch failed: %v", ferr)
		} else if _, serr := SyncSlackUsers(db, profiles); serr != nil {
			log.Printf("user: slack directory sync failed: %v", serr)
		}
		if err := db.First(&u, "slack_user_id = ?", slackUserID).Error; err == nil {
			return u.ID, nil
		}
	}

	// Last resort: attribute the action to the Slack bot identity.
	if err := db.First(&u, "slack_user_id = ?", models.SlackBotUserID).Error; err != nil {
		return 0, taskerr.New(taskerr.UserNotFound, "user by slack id %q was not found", slackUserID)
	}
	return u.ID, nil
}

// SyncSlackUsers registers placeholder users for directory profiles not yet
// known locally. Profiles without a display name are skipped.
func SyncSlackUsers(db *gorm.DB, profiles []SlackProfile) ([]models.User, error) {
	var created []models.User
	for _, p := range profiles {
		if p.SlackUserID == "" {
			return created, taskerr.New(taskerr.BadRequest, "slack profile without user id")
		}
		if p.SlackName == "" {
			log.Printf("user: skipping slack profile %s without display name", p.SlackUserID)
			continue
		}

		var count int64
		if err := db.Model(&models.User{}).Where("slack_user_id = ?", p.SlackUserID).Count(&count).Error; err != nil {
			return created, fmt.Errorf("user: sync slack users: %w", err)
		}
		if count > 0 {
			continue
		}

		u := models.User{
			FirstName:   p.SlackName,
			SlackUserID: p.SlackUserID,
			// Synthetic address keeps the unique email index happy until
			// the user registers properly.
			Email:    p.SlackUserID + "@slack.local",
			Disabled: true,
		}
		if err := db.Create(&u).Error; err != nil {
			return created, fmt.Errorf("user: register slack user %s: %w", p.SlackUserID, err)
		}
		created = append(created, u)
	}
	return created, nil
}
