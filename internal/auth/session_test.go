package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/auth"
	"github.com/localnerve/edukit-content/internal/config"
	"github.com/localnerve/edukit-content/internal/models"
)

func newManager(accessTTL, refreshTTL time.Duration) *auth.SessionManager {
	return auth.NewSessionManager(&config.Config{
		AccessTokenSecret:  "access-secret-for-tests",
		RefreshTokenSecret: "refresh-secret-for-tests",
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	})
}

func TestIssueAndVerify(t *testing.T) {
	m := newManager(time.Minute, time.Hour)
	userID := uuid.New()

	pair, err := m.Issue(userID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("Empty token in pair")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatalf("Access and refresh tokens must differ")
	}

	claims, err := m.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.UserID != userID || claims.Role != models.RoleAdmin {
		t.Errorf("Claims mismatch: %+v", claims)
	}

	claims, err = m.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh failed: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("Refresh claims mismatch: %+v", claims)
	}
}

// TestTokenKindsNotInterchangeable verifies the distinct-secret invariant:
// neither token verifies under the other verifier.
func TestTokenKindsNotInterchangeable(t *testing.T) {
	m := newManager(time.Minute, time.Hour)

	pair, err := m.Issue(uuid.New(), models.RoleUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := m.VerifyAccess(pair.RefreshToken); err == nil {
		t.Errorf("Refresh token verified as access")
	}
	if _, err := m.VerifyRefresh(pair.AccessToken); err == nil {
		t.Errorf("Access token verified as refresh")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	m := newManager(-time.Minute, time.Hour)

	pair, err := m.Issue(uuid.New(), models.RoleUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := m.VerifyAccess(pair.AccessToken); err == nil {
		t.Errorf("Expired access token verified")
	}
	// The refresh token outlives the access token.
	if _, err := m.VerifyRefresh(pair.RefreshToken); err != nil {
		t.Errorf("Refresh token should still verify: %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	m := newManager(time.Minute, time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := m.VerifyAccess(token); err == nil {
			t.Errorf("Garbage token %q verified", token)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	m := newManager(time.Minute, time.Hour)
	other := auth.NewSessionManager(&config.Config{
		AccessTokenSecret:  "different-access-secret",
		RefreshTokenSecret: "different-refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	})

	pair, err := other.Issue(uuid.New(), models.RoleUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := m.VerifyAccess(pair.AccessToken); err == nil {
		t.Errorf("Token from a different secret verified")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "secret123" {
		t.Fatalf("Hash equals the plaintext")
	}

	if err := auth.VerifyPassword(hash, "secret123"); err != nil {
		t.Errorf("Correct password rejected: %v", err)
	}
	if err := auth.VerifyPassword(hash, "wrong"); err == nil {
		t.Errorf("Wrong password accepted")
	}
}
