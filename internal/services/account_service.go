// account_service.go
//
// A scalable, high performance drop-in replacement for the edukit nodejs content service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of edukit-content.
// edukit-content is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// edukit-content is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with edukit-content.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/auth"
	"github.com/localnerve/edukit-content/internal/models"
	"github.com/localnerve/edukit-content/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const resetTokenTTL = time.Hour

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new PENDING user. Token issuance is the caller's
// concern and happens only after the row commits.
func Register(db *gorm.DB, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || email == "" || in.Password == "" {
		return nil, types.Validation("name, email and password are required", "account.register")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, types.Conflict("An account with this email already exists", "account.email")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Status:       models.StatusPending,
		IsActive:     true,
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// Login verifies credentials and issues a token pair. The failure message is
// identical whether the email is unknown or the password is wrong.
func Login(db *gorm.DB, sessions auth.Sessions, email, password string) (*models.User, auth.TokenPair, error) {
	invalid := types.Unauthorized("account.login")

	var user models.User
	err := db.Preload("Subscription.Plan").
		First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, auth.TokenPair{}, invalid
		}
		return nil, auth.TokenPair{}, err
	}

	if user.PasswordHash == "" || auth.VerifyPassword(user.PasswordHash, password) != nil {
		return nil, auth.TokenPair{}, invalid
	}

	now := time.Now()
	if err := db.Model(&user).Update("last_login_date", now).Error; err != nil {
		return nil, auth.TokenPair{}, err
	}
	user.LastLoginDate = &now

	pair, err := sessions.Issue(user.ID, user.Role)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}

	return &user, pair, nil
}

// LoginWithIdentity signs in (or first signs up) a user from a verified
// external identity. New accounts start PENDING with no local password.
func LoginWithIdentity(db *gorm.DB, sessions auth.Sessions, ident *auth.ExternalIdentity) (*models.User, auth.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(ident.Email))

	var user models.User
	err := db.Preload("Subscription.Plan").First(&user, "email = ?", email).Error
	if err == gorm.ErrRecordNotFound {
		user = models.User{
			ID:       uuid.New(),
			Name:     ident.Name,
			Email:    email,
			Role:     models.RoleUser,
			Status:   models.StatusPending,
			IsActive: true,
			Picture:  ident.Picture,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, auth.TokenPair{}, err
		}
	} else if err != nil {
		return nil, auth.TokenPair{}, err
	}

	now := time.Now()
	updates := map[string]interface{}{"last_login_date": now}
	if ident.Picture != "" && ident.Picture != user.Picture {
		updates["picture"] = ident.Picture
		user.Picture = ident.Picture
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return nil, auth.TokenPair{}, err
	}
	user.LastLoginDate = &now

	pair, err := sessions.Issue(user.ID, user.Role)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}

	return &user, pair, nil
}

// SubscriptionInput upserts the one-to-one subscription row for a user.
type SubscriptionInput struct {
	PlanID    uuid.UUID                 `json:"planId"`
	Status    models.SubscriptionStatus `json:"status"`
	StartDate time.Time                 `json:"startDate"`
	EndDate   time.Time                 `json:"endDate"`
}

// UpdateUserInput is a partial patch; nil fields are left untouched.
type UpdateUserInput struct {
	Name         *string            `json:"name"`
	Role         *models.Role       `json:"role"`
	Status       *models.UserStatus `json:"status"`
	IsActive     *bool              `json:"isActive"`
	Profile      interface{}        `json:"profile"`
	Subscription *SubscriptionInput `json:"subscription"`
}

// UpdateUser patches a user and optionally upserts their subscription in one
// transaction. The last-admin recount runs inside the same transaction under
// a row lock, so two concurrent demotions cannot both pass the check.
func UpdateUser(db *gorm.DB, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	var user models.User

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&user, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return types.NotFound("User not found", "account.user")
			}
			return err
		}

		losesAdmin := user.Role == models.RoleAdmin && user.IsActive &&
			((in.Role != nil && *in.Role != models.RoleAdmin) ||
				(in.IsActive != nil && !*in.IsActive) ||
				(in.Status != nil && *in.Status == models.StatusInactive))

		if losesAdmin {
			if err := requireAnotherActiveAdmin(tx, id); err != nil {
				return err
			}
		}

		if in.Name != nil {
			user.Name = *in.Name
		}
		if in.Role != nil {
			user.Role = *in.Role
		}
		if in.Status != nil {
			user.Status = *in.Status
		}
		if in.IsActive != nil {
			user.IsActive = *in.IsActive
		}
		if in.Profile != nil {
			user.Profile = models.JSONFrom(in.Profile)
		}

		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		if in.Subscription != nil {
			if err := upsertSubscription(tx, user.ID, *in.Subscription); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := db.Preload("Subscription.Plan").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// DeleteUser removes a user and their dependent rows. The last active admin
// can never be deleted.
func DeleteUser(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockForUpdate(tx).First(&user, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return types.NotFound("User not found", "account.user")
			}
			return err
		}

		if user.Role == models.RoleAdmin && user.IsActive {
			if err := requireAnotherActiveAdmin(tx, id); err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.FileProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Subscription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}

		// Content created by this user survives with a null creator/owner.
		if err := tx.Model(&models.Folder{}).Where("created_by_id = ?", id).
			Update("created_by_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.File{}).Where("owner_id = ?", id).
			Update("owner_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
}

// CreatePasswordResetToken issues a single-use, time-boxed reset token and
// returns the raw value. Only the SHA-256 digest is persisted.
func CreatePasswordResetToken(db *gorm.DB, email string) (string, error) {
	var user models.User
	err := db.First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", types.NotFound("User not found", "account.reset.user")
		}
		return "", err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	rawToken := hex.EncodeToString(raw)

	token := models.PasswordResetToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := db.Create(&token).Error; err != nil {
		return "", err
	}

	return rawToken, nil
}

// ResetPassword consumes the most recent unused, unexpired token matching
// the raw value. Superseded tokens are ignored, not deleted.
func ResetPassword(db *gorm.DB, rawToken, newPassword string) error {
	if newPassword == "" {
		return types.Validation("New password is required", "account.reset.password")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var token models.PasswordResetToken
		err := tx.Where("token_hash = ? AND used = ? AND expires_at > ?",
			hashToken(rawToken), false, time.Now()).
			Order("created_at DESC").
			First(&token).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return types.NotFound("Reset token not found or expired", "account.reset.token")
			}
			return err
		}

		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", token.UserID).
			Update("password_hash", hash).Error; err != nil {
			return err
		}

		return tx.Model(&token).Update("used", true).Error
	})
}

// ListUsers returns all users with their subscriptions, newest first.
func ListUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	err := db.Preload("Subscription.Plan").
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns one user with their subscription.
func GetUser(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := db.Preload("Subscription.Plan").First(&user, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, types.NotFound("User not found", "account.user")
		}
		return nil, err
	}
	return &user, nil
}

// requireAnotherActiveAdmin fails with Conflict unless at least one other
// active admin row exists. Rows are locked so a concurrent demotion blocks
// until this transaction resolves.
func requireAnotherActiveAdmin(tx *gorm.DB, exceptID uuid.UUID) error {
	var others int64
	err := lockForUpdate(tx.Model(&models.User{})).
		Where("role = ? AND is_active = ? AND id <> ?", models.RoleAdmin, true, exceptID).
		Count(&others).Error
	if err != nil {
		return err
	}
	if others == 0 {
		return types.Conflict("Cannot remove the last active admin", "account.lastAdmin")
	}
	return nil
}

func upsertSubscription(tx *gorm.DB, userID uuid.UUID, in SubscriptionInput) error {
	var planCount int64
	if err := tx.Model(&models.Plan{}).Where("id = ?", in.PlanID).Count(&planCount).Error; err != nil {
		return err
	}
	if planCount == 0 {
		return types.NotFound("Plan not found", "account.subscription.plan")
	}

	sub := models.Subscription{UserID: userID}
	if err := tx.Where("user_id = ?", userID).
		Attrs(models.Subscription{ID: uuid.New()}).
		FirstOrCreate(&sub).Error; err != nil {
		return err
	}

	return tx.Model(&sub).Updates(map[string]interface{}{
		"plan_id":    in.PlanID,
		"status":     in.Status,
		"start_date": in.StartDate,
		"end_date":   in.EndDate,
	}).Error
}

// lockForUpdate adds a row lock on dialects that have one. SQLite has no
// row locks; its transactions serialize writers already.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
