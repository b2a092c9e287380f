// session.go
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

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/config"
	"github.com/localnerve/edukit-content/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carry only identity and role. Role is a claim, not re-derived from
// storage on access-token checks; role changes take effect at refresh time.
type Claims struct {
	UserID uuid.UUID   `json:"userId"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Sessions issues and verifies the stateless access/refresh token pair.
// There is no server-side revocation list; a future store can be substituted
// behind this interface without touching callers.
type Sessions interface {
	Issue(userID uuid.UUID, role models.Role) (TokenPair, error)
	VerifyAccess(token string) (*Claims, error)
	VerifyRefresh(token string) (*Claims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// SessionManager is the HS256 implementation of Sessions. Access and refresh
// tokens are signed with distinct secrets so one can never stand in for the
// other.
type SessionManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewSessionManager(cfg *config.Config) *SessionManager {
	return &SessionManager{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
}

func (m *SessionManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *SessionManager) RefreshTTL() time.Duration { return m.refreshTTL }

// Issue mints a new access/refresh pair for the given identity.
func (m *SessionManager) Issue(userID uuid.UUID, role models.Role) (TokenPair, error) {
	access, err := sign(userID, role, m.accessSecret, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := sign(userID, role, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (m *SessionManager) VerifyAccess(token string) (*Claims, error) {
	return verify(token, m.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (m *SessionManager) VerifyRefresh(token string) (*Claims, error) {
	return verify(token, m.refreshSecret)
}

func sign(userID uuid.UUID, role models.Role, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func verify(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
