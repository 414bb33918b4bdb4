package auth

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

// RegisterRequest carries the fields of a registration call.
type RegisterRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	SlackUserID string `json:"slackUserId"`
}

// Register creates a new account. The email must be well-formed and not yet
// registered; a Slack id already held by any user (placeholder included) is
// a conflict, never merged.
func Register(db *gorm.DB, req RegisterRequest) (*models.User, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" ||
		strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		return nil, taskerr.New(taskerr.RegistrationError, "missing required fields")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		return nil, taskerr.New(taskerr.RegistrationError, "invalid email address")
	}

	existing, err := user.TryGetByEmail(db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, taskerr.New(taskerr.UserAlreadyRegistered, "email already registered")
	}

	if req.SlackUserID != "" {
		var count int64
		if err := db.Model(&models.User{}).Where("slack_user_id = ?", req.SlackUserID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("auth: register: %w", err)
		}
		if count > 0 {
			return nil, taskerr.New(taskerr.UserAlreadyRegistered, "slack id already registered")
		}
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	var role models.Role
	if err := db.First(&role, "name = ?", models.RoleUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("auth: register: role %s not seeded", models.RoleUser)
		}
		return nil, fmt.Errorf("auth: register: %w", err)
	}

	u := models.User{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       email,
		Password:    HashPassword(req.Password, salt),
		Salt:        salt,
		SlackUserID: req.SlackUserID,
		Roles:       []models.Role{role},
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("auth: register %s: %w", email, err)
	}

	log.Printf("auth: registered user %d (%s)", u.ID, email)
	return &u, nil
}

// ResetPassword sets a new password for a user (admin operation).
func ResetPassword(db *gorm.DB, userID int, newPassword string) (*models.User, error) {
	if strings.TrimSpace(newPassword) == "" {
		return nil, taskerr.New(taskerr.BadRequest, "password cannot be empty")
	}
	u, err := user.GetByID(db, userID)
	if err != nil {
		return nil, err
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	u.Salt = salt
	u.Password = HashPassword(newPassword, salt)
	if err := db.Save(u).Error; err != nil {
		return nil, fmt.Errorf("auth: reset password for user %d: %w", userID, err)
	}
	return u, nil
}
