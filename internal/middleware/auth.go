// auth.go
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

package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/auth"
	"github.com/localnerve/edukit-content/internal/config"
	"github.com/localnerve/edukit-content/internal/models"
	"github.com/localnerve/edukit-content/internal/services"
	"github.com/localnerve/edukit-content/internal/types"
	"gorm.io/gorm"
)

const (
	// AccessCookie is the name of the short-lived access token cookie.
	AccessCookie = "access_token"
	// RefreshCookie is the name of the long-lived refresh token cookie.
	RefreshCookie = "refresh_token"

	userContextKey = "userContext"
	accessGateKey  = "accessDecision"
)

// Authenticate resolves the caller's identity from the access token cookie
// (or the Authorization header), silently refreshing from the refresh token
// cookie when the access token is missing or expired. The resolved
// UserContext is stored in Locals for downstream handlers.
func Authenticate(db *gorm.DB, sessions auth.Sessions, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := resolveIdentity(c, sessions, cfg)
		if err != nil {
			return err
		}
		if err := loadUserContext(c, db, userID); err != nil {
			return err
		}
		return c.Next()
	}
}

// AuthenticateOptional is like Authenticate but lets unauthenticated
// requests through with no UserContext in Locals. The chain advances exactly
// once either way, so a downstream handler's error is never swallowed by a
// second dispatch.
func AuthenticateOptional(db *gorm.DB, sessions auth.Sessions, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, err := resolveIdentity(c, sessions, cfg); err == nil {
			// A stale identity is ignored, not an error, on an optional
			// route.
			_ = loadUserContext(c, db, userID)
		}
		return c.Next()
	}
}

// RefreshStatus re-reads status and is_active for non-admin callers so that
// gate decisions never run on stale token-era state. Admins skip the
// round trip. The refreshed access decision is stored in Locals.
func RefreshStatus(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := UserContext(c)
		if uc == nil {
			return types.Unauthorized("session.context")
		}

		if uc.Role != models.RoleAdmin {
			var row struct {
				Status   models.UserStatus
				IsActive bool
			}
			err := db.Model(&models.User{}).
				Select("status", "is_active").
				Where("id = ?", uc.ID).
				First(&row).Error
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return types.Unauthorized("session.user")
				}
				return err
			}
			refreshed := uc.WithStatus(row.Status, row.IsActive)
			uc = &refreshed
			c.Locals(userContextKey, uc)
		}

		c.Locals(accessGateKey, services.EvaluateAccess(uc, time.Now()))
		return c.Next()
	}
}

// RequireActive denies callers flagged inactive by the refreshed gate
// decision. PENDING users pass; subscription checks happen per resource.
func RequireActive() fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision, ok := c.Locals(accessGateKey).(types.AccessDecision)
		if ok && decision == types.DenyInactive {
			return types.Forbidden("Account is inactive", "session.inactive")
		}
		return c.Next()
	}
}

// RequireRole denies callers whose role does not match.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := UserContext(c)
		if uc == nil {
			return types.Unauthorized("session.context")
		}
		if uc.Role != role {
			return types.Forbidden("Insufficient permissions", "session.role")
		}
		return c.Next()
	}
}

// UserContext returns the caller's resolved context, or nil when the
// request is anonymous.
func UserContext(c *fiber.Ctx) *types.UserContext {
	uc, _ := c.Locals(userContextKey).(*types.UserContext)
	return uc
}

// AccessGate returns the refreshed access decision for the request.
func AccessGate(c *fiber.Ctx) (types.AccessDecision, bool) {
	decision, ok := c.Locals(accessGateKey).(types.AccessDecision)
	return decision, ok
}

// SetTokenCookies writes the access/refresh pair as HTTP-only cookies.
func SetTokenCookies(c *fiber.Ctx, sessions auth.Sessions, cfg *config.Config, pair auth.TokenPair) {
	now := time.Now()
	c.Cookie(&fiber.Cookie{
		Name:     AccessCookie,
		Value:    pair.AccessToken,
		Expires:  now.Add(sessions.AccessTTL()),
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookie,
		Value:    pair.RefreshToken,
		Expires:  now.Add(sessions.RefreshTTL()),
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

// ClearTokenCookies expires both token cookies.
func ClearTokenCookies(c *fiber.Ctx, cfg *config.Config) {
	expired := time.Now().Add(-time.Hour)
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  expired,
			HTTPOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
			Path:     "/",
		})
	}
}

// resolveIdentity extracts and verifies a user id from the request. A dead
// access token falls through to the refresh token; a good refresh token
// mints and sets a new pair so the client never sees the expiry.
func resolveIdentity(c *fiber.Ctx, sessions auth.Sessions, cfg *config.Config) (uuid.UUID, error) {
	token := c.Cookies(AccessCookie)
	if token == "" {
		if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}

	if token != "" {
		if claims, err := sessions.VerifyAccess(token); err == nil {
			return claims.UserID, nil
		}
	}

	refresh := c.Cookies(RefreshCookie)
	if refresh == "" {
		return uuid.Nil, types.Unauthorized("session.token")
	}

	claims, err := sessions.VerifyRefresh(refresh)
	if err != nil {
		return uuid.Nil, types.Unauthorized("session.refresh")
	}

	pair, err := sessions.Issue(claims.UserID, claims.Role)
	if err != nil {
		return uuid.Nil, err
	}
	SetTokenCookies(c, sessions, cfg, pair)

	return claims.UserID, nil
}

// loadUserContext reads the user with their subscription and stores the
// resolved context in Locals.
func loadUserContext(c *fiber.Ctx, db *gorm.DB, userID uuid.UUID) error {
	var user models.User
	err := db.Preload("Subscription.Plan").First(&user, "id = ?", userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return types.Unauthorized("session.user")
		}
		return err
	}

	uc := services.ContextForUser(&user)
	c.Locals(userContextKey, &uc)
	return nil
}
