package auth

import (
	"testing"
	"time"

	"github.com/m-troja/taskstorm/internal/models"
	"github.com/m-troja/taskstorm/internal/taskerr"
)

func TestSaveRefreshToken_OneValidPerUser(t *testing.T) {
	gdb := openAuthTestDB(t)
	u := registerTestUser(t, gdb, "ada@example.com", "pw-12345")

	first, err := MintRefreshToken(u.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	saved1, err := SaveRefreshToken(gdb, first)
	if err != nil {
		t.Fatalf("save first: %v", err)
	}

	// A second save while the first is still valid returns the first.
	second, err := MintRefreshToken(u.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	saved2, err := SaveRefreshToken(gdb, second)
	if err != nil {
		t.Fatalf("save second: %v", err)
	}
	if saved2.Token != saved1.Token {
		t.Error("user with a valid token should keep it, not get a new one")
	}

	var count int64
	gdb.Model(&models.RefreshToken{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Errorf("refresh token rows = %d, want 1", count)
	}
}

func TestSaveRefreshToken_ReplacesExpired(t *testing.T) {
	gdb := openAuthTestDB(t)
	u := registerTestUser(t, gdb, "ada@example.com", "pw-12345")

	stale := &models.RefreshToken{
		Token:   "stale-token",
		UserID:  u.ID,
		Expires: time.Now().Add(-time.Hour),
	}
	if err := gdb.Create(stale).Error; err != nil {
		t.Fatalf("create stale token: %v", err)
	}

	fresh, err := MintRefreshToken(u.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	saved, err := SaveRefreshToken(gdb, fresh)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Token != fresh.Token {
		t.Error("expired token should be replaced by the fresh one")
	}

	var count int64
	gdb.Model(&models.RefreshToken{}).Where("token = ?", "stale-token").Count(&count)
	if count != 0 {
		t.Error("expired row should have been deleted")
	}
}

func TestValidateRefreshToken_Order(t *testing.T) {
	gdb := openAuthTestDB(t)
	u := registerTestUser(t, gdb, "ada@example.com", "pw-12345")

	revoked := &models.RefreshToken{
		Token: "revoked-tok", UserID: u.ID,
		Expires: time.Now().Add(-time.Hour), IsRevoked: true,
	}
	expired := &models.RefreshToken{
		Token: "expired-tok", UserID: u.ID,
		Expires: time.Now().Add(-time.Hour),
	}
	live := &models.RefreshToken{
		Token: "live-tok", UserID: u.ID,
		Expires: time.Now().Add(time.Hour),
	}
	for _, rt := range []*models.RefreshToken{revoked, expired, live} {
		if err := gdb.Create(rt).Error; err != nil {
			t.Fatalf("create %s: %v", rt.Token, err)
		}
	}

	tests := []struct {
		name  string
		token string
		want  taskerr.Type
	}{
		{"unknown token", "no-such-token", taskerr.InvalidRefreshToken},
		// Revoked wins over expired for a token that is both.
		{"revoked token", "revoked-tok", taskerr.TokenRevoked},
		{"expired token", "expired-tok", taskerr.TokenExpired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateRefreshToken(gdb, tc.token)
			if got := taskerr.TypeOf(err); got != tc.want {
				t.Errorf("error type = %s, want %s", got, tc.want)
			}
		})
	}

	rt, err := ValidateRefreshToken(gdb, "live-tok")
	if err != nil {
		t.Fatalf("live token should validate: %v", err)
	}
	if rt.User.ID != u.ID {
		t.Errorf("resolved user = %d, want %d", rt.User.ID, u.ID)
	}
}

func TestRegenerateTokens_Rotates(t *testing.T) {
	gdb := openAuthTestDB(t)
	u := registerTestUser(t, gdb, "ada@example.com", "pw-12345")
	issuer := testIssuer()

	minted, err := MintRefreshToken(u.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	old, err := SaveRefreshToken(gdb, minted)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	pair, err := RegenerateTokens(gdb, issuer, old.Token)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if pair.RefreshToken.Token == old.Token {
		t.Error("rotation must mint a new refresh token")
	}
	if pair.AccessToken.Token == "" {
		t.Error("rotation must issue an access token")
	}

	// The old row stays, marked revoked.
	var oldRow models.RefreshToken
	if err := gdb.First(&oldRow, "token = ?", old.Token).Error; err != nil {
		t.Fatalf("old row should survive rotation: %v", err)
	}
	if !oldRow.IsRevoked {
		t.Error("old token should be revoked after rotation")
	}

	// Using the old token again reports it as revoked.
	_, err = RegenerateTokens(gdb, issuer, old.Token)
	if got := taskerr.TypeOf(err); got != taskerr.TokenRevoked {
		t.Errorf("reuse error type = %s, want %s", got, taskerr.TokenRevoked)
	}
}

func TestRegenerateTokens_NoWritesOnFailure(t *testing.T) {
	gdb := openAuthTestDB(t)
	u := registerTestUser(t, gdb, "ada@example.com", "pw-12345")

	expired := &models.RefreshToken{
		Token: "expired-tok", UserID: u.ID,
		Expires: time.Now().Add(-time.Hour),
	}
	if err := gdb.Create(expired).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := RegenerateTokens(gdb, testIssuer(), "expired-tok")
	if got := taskerr.TypeOf(err); got != taskerr.TokenExpired {
		t.Fatalf("error type = %s, want %s", got, taskerr.TokenExpired)
	}

	var count int64
	gdb.Model(&models.RefreshToken{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Errorf("failed rotation wrote rows: count = %d, want 1", count)
	}
	var row models.RefreshToken
	gdb.First(&row, "token = ?", "expired-tok")
	if row.IsRevoked {
		t.Error("failed rotation must not revoke the presented token")
	}
}

func TestPurgeDeadTokens(t *testing.T) {
	gdb := openAuthTestDB(t)
	u := registerTestUser(t, gdb, "ada@example.com", "pw-12345")

	rows := []*models.RefreshToken{
		{Token: "revoked", UserID: u.ID, Expires: time.Now().Add(time.Hour), IsRevoked: true},
		{Token: "expired", UserID: u.ID, Expires: time.Now().Add(-time.Hour)},
		{Token: "live", UserID: u.ID, Expires: time.Now().Add(time.Hour)},
	}
	for _, rt := range rows {
		if err := gdb.Create(rt).Error; err != nil {
			t.Fatalf("create %s: %v", rt.Token, err)
		}
	}

	purged, err := PurgeDeadTokens(gdb)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 2 {
		t.Errorf("purged = %d, want 2", purged)
	}

	var remaining []models.RefreshToken
	gdb.Find(&remaining)
	if len(remaining) != 1 || remaining[0].Token != "live" {
		t.Errorf("remaining = %v, want only the live token", remaining)
	}
}
