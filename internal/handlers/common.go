// common.go
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
	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/middleware"
	"github.com/localnerve/edukit-content/internal/types"
)

// paramUUID parses a path parameter as a UUID.
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, types.Validation("Invalid id", "validation.uuid")
	}
	return id, nil
}

// requireUser returns the authenticated caller's context or an
// unauthorized error. Handlers behind Authenticate always get a context;
// this guards against route wiring mistakes.
func requireUser(c *fiber.Ctx) (*types.UserContext, error) {
	uc := middleware.UserContext(c)
	if uc == nil {
		return nil, types.Unauthorized("session.context")
	}
	return uc, nil
}
