package auth

import (
	"log"
	"regexp"
	"strings"

	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"github.com/m-troja/taskstorm/internal/user"
	"gorm.io/gorm"
)

// maxCredentialLen bounds login email and password length.
const maxCredentialLen = 250

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Login verifies credentials and returns a token pair. Unknown email and
// wrong password produce the identical error, so responses reveal nothing
// about which accounts exist.
func Login(db *gorm.DB, issuer *TokenIssuer, email, password string) (dto.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateLoginInput(email, password); err != nil {
		return dto.TokenPair{}, err
	}

	u, err := user.TryGetByEmail(db, email)
	if err != nil {
		return dto.TokenPair{}, err
	}
	if u == nil {
		return dto.TokenPair{}, taskerr.New(taskerr.LoginError, "wrong email or password")
	}
	if u.Disabled {
		return dto.TokenPair{}, taskerr.New(taskerr.UserDisabled, "user account is disabled")
	}
	if !VerifyPassword(password, u.Salt, u.Password) {
		return dto.TokenPair{}, taskerr.New(taskerr.LoginError, "wrong email or password")
	}

	access, err := issuer.AccessToken(db, u.ID)
	if err != nil {
		return dto.TokenPair{}, err
	}
	minted, err := MintRefreshToken(u.ID)
	if err != nil {
		return dto.TokenPair{}, err
	}
	saved, err := SaveRefreshToken(db, minted)
	if err != nil {
		return dto.TokenPair{}, err
	}

	log.Printf("auth: login ok for user %d", u.ID)
	return dto.TokenPair{
		AccessToken:  access,
		RefreshToken: dto.FromRefreshToken(saved),
	}, nil
}

func validateLoginInput(email, password string) error {
	if email == "" || strings.TrimSpace(password) == "" {
		return taskerr.New(taskerr.LoginError, "email or password cannot be empty")
	}
	if len(email) > maxCredentialLen || len(password) > maxCredentialLen {
		return taskerr.New(taskerr.LoginError, "email or password too long - max 250 chars")
	}
	if !emailPattern.MatchString(email) {
		return taskerr.New(taskerr.LoginError, "invalid email format")
	}
	return nil
}
