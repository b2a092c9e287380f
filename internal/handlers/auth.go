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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/edukit-content/internal/auth"
	"github.com/localnerve/edukit-content/internal/config"
	"github.com/localnerve/edukit-content/internal/middleware"
	"github.com/localnerve/edukit-content/internal/services"
	"github.com/localnerve/edukit-content/internal/types"
	"github.com/localnerve/edukit-content/internal/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AuthHandler handles registration, login and session routes
type AuthHandler struct {
	DB       *gorm.DB
	Sessions auth.Sessions
	Cfg      *config.Config
	Identity auth.IdentityVerifier // nil when federated login is not configured
}

// Register handles POST /api/auth/register
// @Summary Register a new account
// @Description Create a new PENDING account and start a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Registration fields"
// @Success 201 {object} models.User
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var body services.RegisterInput
	if err := c.BodyParser(&body); err != nil {
		return types.Validation("Invalid input", "account.register.input")
	}

	user, err := services.Register(h.DB, body)
	if err != nil {
		return err
	}

	pair, err := h.Sessions.Issue(user.ID, user.Role)
	if err != nil {
		return err
	}
	middleware.SetTokenCookies(c, h.Sessions, h.Cfg, pair)

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/auth/login
// @Summary Log in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body object true "Email and password"
// @Success 200 {object} models.User
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return types.Validation("Invalid input", "account.login.input")
	}

	user, pair, err := services.Login(h.DB, h.Sessions, body.Email, body.Password)
	if err != nil {
		return err
	}
	middleware.SetTokenCookies(c, h.Sessions, h.Cfg, pair)

	return c.Status(fiber.StatusOK).JSON(user)
}

// OAuthLogin handles POST /api/auth/oauth
// @Summary Log in with an external identity token
// @Description Verify an OIDC id token and sign in, creating the account on first use
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body object true "OIDC id token"
// @Success 200 {object} models.User
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/oauth [post]
func (h *AuthHandler) OAuthLogin(c *fiber.Ctx) error {
	if h.Identity == nil {
		return types.NotFound("Federated login is not configured", "account.oauth")
	}

	var body struct {
		IDToken string `json:"idToken"`
	}
	if err := c.BodyParser(&body); err != nil || body.IDToken == "" {
		return types.Validation("Invalid input", "account.oauth.input")
	}

	ident, err := h.Identity.Verify(c.Context(), body.IDToken)
	if err != nil {
		return types.Unauthorized("account.oauth.token")
	}

	user, pair, err := services.LoginWithIdentity(h.DB, h.Sessions, ident)
	if err != nil {
		return err
	}
	middleware.SetTokenCookies(c, h.Sessions, h.Cfg, pair)

	return c.Status(fiber.StatusOK).JSON(user)
}

// Refresh handles POST /api/auth/refresh
// @Summary Rotate the session token pair
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refresh := c.Cookies(middleware.RefreshCookie)
	if refresh == "" {
		return types.Unauthorized("session.refresh")
	}

	claims, err := h.Sessions.VerifyRefresh(refresh)
	if err != nil {
		return types.Unauthorized("session.refresh")
	}

	pair, err := h.Sessions.Issue(claims.UserID, claims.Role)
	if err != nil {
		return err
	}
	middleware.SetTokenCookies(c, h.Sessions, h.Cfg, pair)

	return utils.MutationSuccessResponse(c, 0)
}

// Logout handles POST /api/auth/logout
// @Summary End the session
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	middleware.ClearTokenCookies(c, h.Cfg)
	return utils.MutationSuccessResponse(c, 0)
}

// Me handles GET /api/auth/me
// @Summary Get the authenticated caller
// @Tags Auth
// @Produce json
// @Success 200 {object} types.UserContext
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(uc)
}

// RequestPasswordReset handles POST /api/auth/password-reset
// @Summary Request a password reset token
// @Description Always responds 202; whether the email exists is not disclosed
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body object true "Account email"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil || body.Email == "" {
		return types.Validation("Email is required", "account.reset.input")
	}

	token, err := services.CreatePasswordResetToken(h.DB, body.Email)
	if err != nil {
		// Unknown emails get the same response as known ones.
		if ce, ok := types.AsCustomError(err); !ok || ce.Code != fiber.StatusNotFound {
			return err
		}
	} else {
		// Delivery is out of band; the token never appears in the response.
		log.Debug().Str("email", body.Email).Str("token", token).
			Msg("password reset token issued")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"ok": true})
}

// ResetPassword handles POST /api/auth/password-reset/confirm
// @Summary Reset a password with a reset token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body object true "Reset token and new password"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /auth/password-reset/confirm [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil || body.Token == "" {
		return types.Validation("Token and password are required", "account.reset.input")
	}

	if err := services.ResetPassword(h.DB, body.Token, body.Password); err != nil {
		return err
	}

	return utils.MutationSuccessResponse(c, 1)
}
