package models

import "time"

// Reserved fallback rows, created by the seed step. Issues whose author or
// project cannot be resolved are attached to these instead of failing.
const (
	SystemUserID   = -1
	DummyProjectID = -1
)

// SlackBotUserID is Slack's well-known bot identity, used as the last
// fallback when a Slack user id cannot be resolved to a local user.
const SlackBotUserID = "USLACKBOT"

// User is a registered account or a placeholder synced from Slack.
type User struct {
	ID          int    `gorm:"primaryKey"`
	FirstName   string `gorm:"size:100"`
	LastName    string `gorm:"size:100"`
	Email       string `gorm:"size:250;uniqueIndex"`
	Password    string `gorm:"size:128"` // base64 pbkdf2 digest
	Salt        []byte
	Disabled    bool   `gorm:"default:false"`
	SlackUserID string `gorm:"size:64;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Roles         []Role         `gorm:"many2many:user_roles"`
	Teams         []Team         `gorm:"many2many:team_users"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Role names are fixed; rows are created by the seed step.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// Role is a coarse authorization group attached to users.
type Role struct {
	ID   int    `gorm:"primaryKey"`
	Name string `gorm:"size:32;uniqueIndex"`

	Users []User `gorm:"many2many:user_roles"`
}

// Team groups users; issues may be assigned to a team.
type Team struct {
	ID        int    `gorm:"primaryKey"`
	Name      string `gorm:"size:100;uniqueIndex;not null"`
	CreatedAt time.Time

	Users  []User  `gorm:"many2many:team_users"`
	Issues []Issue `gorm:"foreignKey:TeamID;constraint:OnDelete:SET NULL"`
}

// RefreshToken is a long-lived opaque credential used to mint access tokens.
// Tokens are revoked, never deleted, on rotation; dead rows are purged by a
// scheduled job.
type RefreshToken struct {
	ID        int    `gorm:"primaryKey"`
	Token     string `gorm:"size:64;uniqueIndex;not null"`
	UserID    int    `gorm:"index;not null"`
	Expires   time.Time
	IsRevoked bool `gorm:"default:false"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}

// Valid reports whether the token can still mint access tokens at now.
func (rt *RefreshToken) Valid(now time.Time) bool {
	return !rt.IsRevoked && rt.Expires.After(now)
}
