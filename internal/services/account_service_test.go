package services_test

import (
	"testing"
	"time"

	"github.com/localnerve/edukit-content/internal/auth"
	"github.com/localnerve/edukit-content/internal/config"
	"github.com/localnerve/edukit-content/internal/models"
	"github.com/localnerve/edukit-content/internal/services"
	"github.com/localnerve/edukit-content/internal/types"
)

func testSessions() auth.Sessions {
	return auth.NewSessionManager(&config.Config{
		AccessTokenSecret:  "access-secret-for-tests",
		RefreshTokenSecret: "refresh-secret-for-tests",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	})
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)

	user, err := services.Register(db, services.RegisterInput{
		Name: "Student", Email: "Student@Example.COM", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Email != "student@example.com" {
		t.Errorf("Email not normalized: %s", user.Email)
	}
	if user.Role != models.RoleUser || user.Status != models.StatusPending {
		t.Errorf("New account must be a PENDING USER, got %s/%s", user.Role, user.Status)
	}
	if user.PasswordHash == "secret123" || user.PasswordHash == "" {
		t.Errorf("Password must be stored hashed")
	}

	// Same email, any casing, is a conflict.
	_, err = services.Register(db, services.RegisterInput{
		Name: "Other", Email: "student@example.com", Password: "other",
	})
	if ce, ok := types.AsCustomError(err); !ok || ce.Code != 409 {
		t.Fatalf("Expected 409 for duplicate email, got %v", err)
	}
}

// TestLoginGenericFailure verifies an unknown email and a wrong password are
// indistinguishable to the caller.
func TestLoginGenericFailure(t *testing.T) {
	db := setupTestDB(t)
	sessions := testSessions()

	_, err := services.Register(db, services.RegisterInput{
		Name: "Student", Email: "student@example.com", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, _, errUnknown := services.Login(db, sessions, "nobody@example.com", "secret123")
	_, _, errWrongPw := services.Login(db, sessions, "student@example.com", "wrong")

	ceUnknown, ok1 := types.AsCustomError(errUnknown)
	ceWrongPw, ok2 := types.AsCustomError(errWrongPw)
	if !ok1 || !ok2 {
		t.Fatalf("Expected typed errors, got %v / %v", errUnknown, errWrongPw)
	}
	if ceUnknown.Code != 401 || ceWrongPw.Code != 401 {
		t.Errorf("Both failures must be 401")
	}
	if ceUnknown.Message != ceWrongPw.Message {
		t.Errorf("Failure messages differ: %q vs %q", ceUnknown.Message, ceWrongPw.Message)
	}
}

func TestLoginIssuesVerifiableTokens(t *testing.T) {
	db := setupTestDB(t)
	sessions := testSessions()

	registered, err := services.Register(db, services.RegisterInput{
		Name: "Student", Email: "student@example.com", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	user, pair, err := services.Login(db, sessions, "student@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.LastLoginDate == nil {
		t.Errorf("lastLoginDate not stamped")
	}

	claims, err := sessions.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("Access token does not verify: %v", err)
	}
	if claims.UserID != registered.ID {
		t.Errorf("Token subject mismatch")
	}

	// Tokens are not interchangeable between the two verifiers.
	if _, err := sessions.VerifyAccess(pair.RefreshToken); err == nil {
		t.Errorf("Refresh token must not verify as access")
	}
	if _, err := sessions.VerifyRefresh(pair.AccessToken); err == nil {
		t.Errorf("Access token must not verify as refresh")
	}
}

func TestUpdateUserLastAdminGuard(t *testing.T) {
	role := models.RoleUser
	inactive := false

	t.Run("sole admin cannot be demoted", func(t *testing.T) {
		db := setupTestDB(t)
		admin := seedUser(t, db, models.RoleAdmin, models.StatusActive, true)

		_, err := services.UpdateUser(db, admin.ID, services.UpdateUserInput{Role: &role})
		if ce, ok := types.AsCustomError(err); !ok || ce.Code != 409 {
			t.Fatalf("Expected 409, got %v", err)
		}
	})

	t.Run("sole admin cannot be deactivated", func(t *testing.T) {
		db := setupTestDB(t)
		admin := seedUser(t, db, models.RoleAdmin, models.StatusActive, true)

		_, err := services.UpdateUser(db, admin.ID, services.UpdateUserInput{IsActive: &inactive})
		if ce, ok := types.AsCustomError(err); !ok || ce.Code != 409 {
			t.Fatalf("Expected 409, got %v", err)
		}
	})

	t.Run("demotion passes with a second active admin", func(t *testing.T) {
		db := setupTestDB(t)
		admin := seedUser(t, db, models.RoleAdmin, models.StatusActive, true)
		seedUser(t, db, models.RoleAdmin, models.StatusActive, true)

		updated, err := services.UpdateUser(db, admin.ID, services.UpdateUserInput{Role: &role})
		if err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		if updated.Role != models.RoleUser {
			t.Errorf("Role not updated")
		}
	})

	t.Run("an inactive second admin does not count", func(t *testing.T) {
		db := setupTestDB(t)
		admin := seedUser(t, db, models.RoleAdmin, models.StatusActive, true)
		seedUser(t, db, models.RoleAdmin, models.StatusActive, false)

		_, err := services.UpdateUser(db, admin.ID, services.UpdateUserInput{Role: &role})
		if ce, ok := types.AsCustomError(err); !ok || ce.Code != 409 {
			t.Fatalf("Expected 409, got %v", err)
		}
	})
}

func TestDeleteUserLastAdminGuard(t *testing.T) {
	db := setupTestDB(t)
	admin := seedUser(t, db, models.RoleAdmin, models.StatusActive, true)

	err := services.DeleteUser(db, admin.ID)
	if ce, ok := types.AsCustomError(err); !ok || ce.Code != 409 {
		t.Fatalf("Expected 409 deleting the sole admin, got %v", err)
	}

	seedUser(t, db, models.RoleAdmin, models.StatusActive, true)
	if err := services.DeleteUser(db, admin.ID); err != nil {
		t.Fatalf("DeleteUser failed with a second admin present: %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, models.RoleUser, models.StatusActive, true)
	plan := seedPlan(t, db, models.TierBasic)
	seedSubscription(t, db, user.ID, plan.ID, models.SubscriptionActive, time.Now().Add(time.Hour))
	file := seedFile(t, db, "lesson", nil, 0)

	if err := services.ToggleBookmark(db, user.ID, file.ID, true); err != nil {
		t.Fatalf("ToggleBookmark failed: %v", err)
	}
	if err := services.SetFileProgress(db, user.ID, file.ID, true); err != nil {
		t.Fatalf("SetFileProgress failed: %v", err)
	}

	if err := services.DeleteUser(db, user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	var bookmarks, progress, subs int64
	db.Model(&models.Bookmark{}).Where("user_id = ?", user.ID).Count(&bookmarks)
	db.Model(&models.FileProgress{}).Where("user_id = ?", user.ID).Count(&progress)
	db.Model(&models.Subscription{}).Where("user_id = ?", user.ID).Count(&subs)
	if bookmarks != 0 || progress != 0 || subs != 0 {
		t.Errorf("Dependent rows survived: %d/%d/%d", bookmarks, progress, subs)
	}

	// The file itself stays, just without an owner reference.
	var files int64
	db.Model(&models.File{}).Count(&files)
	if files != 1 {
		t.Errorf("Content must survive its owner")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	db := setupTestDB(t)
	sessions := testSessions()

	_, err := services.Register(db, services.RegisterInput{
		Name: "Student", Email: "student@example.com", Password: "original",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	token, err := services.CreatePasswordResetToken(db, "student@example.com")
	if err != nil {
		t.Fatalf("CreatePasswordResetToken failed: %v", err)
	}
	if token == "" {
		t.Fatalf("Empty reset token")
	}

	// The raw token is never stored.
	var count int64
	db.Model(&models.PasswordResetToken{}).Where("token_hash = ?", token).Count(&count)
	if count != 0 {
		t.Errorf("Raw token stored in the database")
	}

	if err := services.ResetPassword(db, token, "replacement"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, _, err := services.Login(db, sessions, "student@example.com", "replacement"); err != nil {
		t.Fatalf("Login with the new password failed: %v", err)
	}
	if _, _, err := services.Login(db, sessions, "student@example.com", "original"); err == nil {
		t.Errorf("Old password still works")
	}

	// Single use.
	err = services.ResetPassword(db, token, "third")
	if ce, ok := types.AsCustomError(err); !ok || ce.Code != 404 {
		t.Fatalf("Expected 404 reusing the token, got %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	db := setupTestDB(t)

	user, err := services.Register(db, services.RegisterInput{
		Name: "Student", Email: "student@example.com", Password: "original",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	token, err := services.CreatePasswordResetToken(db, user.Email)
	if err != nil {
		t.Fatalf("CreatePasswordResetToken failed: %v", err)
	}

	// Force the row past its expiry.
	db.Model(&models.PasswordResetToken{}).Where("user_id = ?", user.ID).
		Update("expires_at", time.Now().Add(-time.Minute))

	err = services.ResetPassword(db, token, "replacement")
	if ce, ok := types.AsCustomError(err); !ok || ce.Code != 404 {
		t.Fatalf("Expected 404 for expired token, got %v", err)
	}
}

func TestUpdateUserSubscriptionUpsert(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, models.RoleUser, models.StatusActive, true)
	plan := seedPlan(t, db, models.TierPremium)

	end := time.Now().Add(30 * 24 * time.Hour)
	updated, err := services.UpdateUser(db, user.ID, services.UpdateUserInput{
		Subscription: &services.SubscriptionInput{
			PlanID: plan.ID, Status: models.SubscriptionActive,
			StartDate: time.Now(), EndDate: end,
		},
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if updated.Subscription == nil || updated.Subscription.Status != models.SubscriptionActive {
		t.Fatalf("Subscription not attached: %+v", updated.Subscription)
	}

	// Second write updates the same row instead of inserting another.
	_, err = services.UpdateUser(db, user.ID, services.UpdateUserInput{
		Subscription: &services.SubscriptionInput{
			PlanID: plan.ID, Status: models.SubscriptionPastDue,
			StartDate: time.Now(), EndDate: end,
		},
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	var count int64
	db.Model(&models.Subscription{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("Expected one subscription row, got %d", count)
	}
}
