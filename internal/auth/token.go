package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/models"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"gorm.io/gorm"
)

// RefreshTokenTTL is how long a refresh token stays usable.
const RefreshTokenTTL = 7 * 24 * time.Hour

// MintRefreshToken builds an unpersisted refresh token for a user:
// 32 random bytes, base64-encoded, 7-day expiry.
func MintRefreshToken(userID int) (*models.RefreshToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("auth: mint refresh token: %w", err)
	}
	return &models.RefreshToken{
		Token:   base64.StdEncoding.EncodeToString(buf),
		UserID:  userID,
		Expires: time.Now().Add(RefreshTokenTTL),
	}, nil
}

// SaveRefreshToken persists a freshly minted token, keeping at most one
// valid token per user: when the user already holds a valid one, the new
// token is discarded and the existing one returned. Expired unrevoked rows
// found on the way are deleted.
func SaveRefreshToken(db *gorm.DB, rt *models.RefreshToken) (*models.RefreshToken, error) {
	var existing []models.RefreshToken
	if err := db.Where("user_id = ? AND is_revoked = ?", rt.UserID, false).
		Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("auth: load refresh tokens for user %d: %w", rt.UserID, err)
	}

	now := time.Now()
	for i := range existing {
		if existing[i].Valid(now) {
			return &existing[i], nil
		}
		if err := db.Delete(&existing[i]).Error; err != nil {
			return nil, fmt.Errorf("auth: drop expired refresh token: %w", err)
		}
	}

	if err := db.Create(rt).Error; err != nil {
		return nil, fmt.Errorf("auth: save refresh token: %w", err)
	}
	return rt, nil
}

// ValidateRefreshToken resolves a refresh token string and checks its
// state, in order: unknown token (or missing user) → INVALID_REFRESH_TOKEN,
// revoked → TOKEN_REVOKED, expired → TOKEN_EXPIRED.
func ValidateRefreshToken(db *gorm.DB, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := db.Preload("User").First(&rt, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerr.New(taskerr.InvalidRefreshToken, "refresh token or user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("auth: validate refresh token: %w", err)
	}
	if rt.User.ID != rt.UserID || rt.User.ID == 0 {
		return nil, taskerr.New(taskerr.InvalidRefreshToken, "refresh token or user not found")
	}
	if rt.IsRevoked {
		return nil, taskerr.New(taskerr.TokenRevoked, "refresh token is revoked")
	}
	if !rt.Expires.After(time.Now()) {
		return nil, taskerr.New(taskerr.TokenExpired, "refresh token expired")
	}
	return &rt, nil
}

// RegenerateTokens rotates a refresh token: the old one is marked revoked
// (kept for audit), a new refresh token is minted and persisted, and a new
// access token is issued. Validation failures perform no writes.
func RegenerateTokens(db *gorm.DB, issuer *TokenIssuer, oldToken string) (dto.TokenPair, error) {
	old, err := ValidateRefreshToken(db, oldToken)
	if err != nil {
		return dto.TokenPair{}, err
	}

	fresh, err := MintRefreshToken(old.UserID)
	if err != nil {
		return dto.TokenPair{}, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(old).Update("is_revoked", true).Error; err != nil {
			return fmt.Errorf("auth: revoke refresh token: %w", err)
		}
		if err := tx.Create(fresh).Error; err != nil {
			return fmt.Errorf("auth: persist rotated refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.TokenPair{}, err
	}

	access, err := issuer.AccessToken(db, old.UserID)
	if err != nil {
		return dto.TokenPair{}, err
	}
	return dto.TokenPair{
		AccessToken:  access,
		RefreshToken: dto.FromRefreshToken(fresh),
	}, nil
}

// PurgeDeadTokens deletes revoked and expired refresh-token rows. Run on a
// schedule; the API never depends on it for correctness.
func PurgeDeadTokens(db *gorm.DB) (int64, error) {
	res := db.Where("is_revoked = ? OR expires <= ?", true, time.Now()).
		Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("auth: purge dead tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
