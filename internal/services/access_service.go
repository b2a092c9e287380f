// access_service.go
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
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/models"
	"github.com/localnerve/edukit-content/internal/types"
	"gorm.io/gorm"
)

// HasQualifyingSubscription reports whether the subscription grants paid
// content access at the given instant. An endDate exactly equal to now does
// not qualify.
func HasQualifyingSubscription(sub *types.SubscriptionInfo, now time.Time) bool {
	if sub == nil {
		return false
	}
	return sub.Status == models.SubscriptionActive &&
		sub.EndDate.After(now) &&
		sub.Tier != models.TierFree
}

// EvaluateAccess computes the tagged access decision for a caller. Admins
// always pass. The inactive check wins over the subscription check so the
// denial reason is stable.
func EvaluateAccess(uc *types.UserContext, now time.Time) types.AccessDecision {
	if uc.Role == models.RoleAdmin {
		return types.Allow
	}
	if uc.Status == models.StatusInactive || !uc.IsActive {
		return types.DenyInactive
	}
	if !HasQualifyingSubscription(uc.Subscription, now) {
		return types.DenyNoSubscription
	}
	return types.Allow
}

// ResolveDownloadURL releases the otherwise hidden external locator for a
// file. The subscription state is re-read from storage on every call;
// expiry is time sensitive and must never be trusted from the session.
func ResolveDownloadURL(db *gorm.DB, fileID, userID uuid.UUID) (string, error) {
	var file models.File
	if err := db.First(&file, "id = ?", fileID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", types.NotFound("File not found", "content.file")
		}
		return "", err
	}

	var user models.User
	if err := db.Preload("Subscription.Plan").First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", types.NotFound("User not found", "content.download.user")
		}
		return "", err
	}

	uc := ContextForUser(&user)
	if decision := EvaluateAccess(&uc, time.Now()); decision != types.Allow {
		message := "An active paid subscription is required to access this content"
		if decision == types.DenyInactive {
			message = "Account is inactive"
		}
		return "", types.Forbidden(message, "content.download."+decision.String())
	}

	return file.GoogleDriveURL, nil
}

// ContextForUser builds the request context value from a freshly loaded user
// row with Subscription.Plan preloaded.
func ContextForUser(user *models.User) types.UserContext {
	uc := types.UserContext{
		ID:       user.ID,
		Email:    user.Email,
		Role:     user.Role,
		Status:   user.Status,
		IsActive: user.IsActive,
	}

	if user.Subscription != nil {
		uc.Subscription = &types.SubscriptionInfo{
			Status:  user.Subscription.Status,
			Tier:    user.Subscription.Plan.Tier,
			EndDate: user.Subscription.EndDate,
		}
	}

	return uc
}
