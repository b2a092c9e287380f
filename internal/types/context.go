// context.go
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

package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/models"
)

// SubscriptionInfo is the subscription slice of a caller's context,
// loaded fresh from storage when the request is resolved.
type SubscriptionInfo struct {
	Status  models.SubscriptionStatus `json:"status"`
	Tier    models.PlanTier           `json:"tier"`
	EndDate time.Time                 `json:"endDate"`
}

// UserContext is the immutable per-request caller identity. Middleware
// stages produce a new value rather than mutating a shared one.
type UserContext struct {
	ID           uuid.UUID         `json:"id"`
	Email        string            `json:"email"`
	Role         models.Role       `json:"role"`
	Status       models.UserStatus `json:"status"`
	IsActive     bool              `json:"isActive"`
	Subscription *SubscriptionInfo `json:"subscription,omitempty"`
}

// WithStatus returns a copy of the context with refreshed status flags.
func (u UserContext) WithStatus(status models.UserStatus, isActive bool) UserContext {
	u.Status = status
	u.IsActive = isActive
	return u
}

// AccessDecision is the tagged outcome of the content access evaluation.
type AccessDecision int

const (
	Allow AccessDecision = iota
	DenyInactive
	DenyNoSubscription
)

func (d AccessDecision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyInactive:
		return "deny.inactive"
	case DenyNoSubscription:
		return "deny.noSubscription"
	}
	return "unknown"
}
