package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-troja/taskstorm/internal/config"
	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/models"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"gorm.io/gorm"
)

// verifyLeeway is the clock-skew tolerance applied when validating tokens.
const verifyLeeway = time.Minute

// Claims are the verified contents of an access token.
type Claims struct {
	UserID int
	Roles  []string
}

type accessClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HMAC-signed access tokens.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
	now      func() time.Time // test hook
}

// NewTokenIssuer builds a TokenIssuer from JWT configuration.
func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		expiry:   time.Duration(cfg.ExpiryMinutes) * time.Minute,
		now:      time.Now,
	}
}

// AccessToken mints a signed access token for a user, with the user's role
// names attached as claims.
func (ti *TokenIssuer) AccessToken(db *gorm.DB, userID int) (dto.Token, error) {
	var roles []string
	err := db.Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Pluck("roles.name", &roles).Error
	if err != nil {
		return dto.Token{}, fmt.Errorf("auth: load roles for user %d: %w", userID, err)
	}

	now := ti.now()
	expires := now.Add(ti.expiry)
	claims := accessClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			Issuer:    ti.issuer,
			Audience:  jwt.ClaimStrings{ti.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return dto.Token{}, fmt.Errorf("auth: sign access token: %w", err)
	}
	return dto.Token{Token: signed, Expires: expires}, nil
}

// Verify parses and validates an access token: signature, issuer, audience,
// and lifetime (with leeway).
func (ti *TokenIssuer) Verify(token string) (*Claims, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (interface{}, error) { return ti.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithAudience(ti.audience),
		jwt.WithLeeway(verifyLeeway),
		jwt.WithTimeFunc(func() time.Time { return ti.now() }),
	)
	if err != nil {
		return nil, taskerr.New(taskerr.LoginError, "invalid access token")
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return nil, taskerr.New(taskerr.LoginError, "invalid access token subject")
	}
	return &Claims{UserID: userID, Roles: claims.Roles}, nil
}
