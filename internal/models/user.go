// user.go
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

package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type UserStatus string

const (
	StatusPending  UserStatus = "PENDING"
	StatusActive   UserStatus = "ACTIVE"
	StatusInactive UserStatus = "INACTIVE"
	StatusRejected UserStatus = "REJECTED"
)

type User struct {
	ID            uuid.UUID     `gorm:"type:char(36);primaryKey" json:"id"`
	Name          string        `gorm:"size:255;not null" json:"name"`
	Email         string        `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash  string        `gorm:"size:255" json:"-"`
	Role          Role          `gorm:"size:16;not null;default:USER" json:"role"`
	Status        UserStatus    `gorm:"size:16;not null;default:PENDING" json:"status"`
	IsActive      bool          `gorm:"not null;default:true" json:"isActive"`
	LastLoginDate *time.Time    `json:"lastLoginDate,omitempty"`
	Picture       string        `gorm:"size:512" json:"picture,omitempty"`
	Profile       JSON          `gorm:"type:json" json:"profile,omitempty"`
	Subscription  *Subscription `json:"subscription,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type PlanTier string

const (
	TierFree    PlanTier = "FREE"
	TierBasic   PlanTier = "BASIC"
	TierPremium PlanTier = "PREMIUM"
)

type Plan struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name       string    `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Tier       PlanTier  `gorm:"size:16;not null" json:"tier"`
	PriceCents int       `gorm:"not null;default:0" json:"priceCents"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionInactive SubscriptionStatus = "INACTIVE"
	SubscriptionPastDue  SubscriptionStatus = "PAST_DUE"
)

// Subscription is one-to-one with User. Access rules read it fresh on every
// download request; nothing here is cached in the session.
type Subscription struct {
	ID        uuid.UUID          `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID          `gorm:"type:char(36);not null;uniqueIndex" json:"userId"`
	PlanID    uuid.UUID          `gorm:"type:char(36);not null" json:"planId"`
	Plan      Plan               `gorm:"foreignKey:PlanID" json:"plan"`
	Status    SubscriptionStatus `gorm:"size:16;not null;default:INACTIVE" json:"status"`
	StartDate time.Time          `json:"startDate"`
	EndDate   time.Time          `json:"endDate"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// PasswordResetToken stores only the SHA-256 digest of the issued token.
// Superseded tokens are not deleted; the lookup ignores them.
type PasswordResetToken struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index" json:"userId"`
	TokenHash string    `gorm:"size:64;not null;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	CreatedAt time.Time `json:"createdAt"`
}
