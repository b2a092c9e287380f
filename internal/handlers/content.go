// content.go
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
	"github.com/localnerve/edukit-content/internal/services"
	"github.com/localnerve/edukit-content/internal/types"
	"github.com/localnerve/edukit-content/internal/utils"
	"gorm.io/gorm"
)

// ContentHandler handles content tree and engagement routes
type ContentHandler struct {
	DB *gorm.DB
}

// GetContentTree handles GET /api/content
// @Summary Get the content tree
// @Description Get the folder/file tree, decorated per user when authenticated
// @Tags Content
// @Produce json
// @Success 200 {object} services.ContentTreeResult
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /content [get]
func (h *ContentHandler) GetContentTree(c *fiber.Ctx) error {
	var userID *uuid.UUID
	if uc := middleware.UserContext(c); uc != nil {
		userID = &uc.ID
	}

	result, err := services.BuildContentTree(h.DB, userID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// GetDownloadURL handles GET /api/content/files/:id/download
// @Summary Get the download URL for a file
// @Description Resolve the backing URL; requires an active qualifying subscription unless admin
// @Tags Content
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /content/files/{id}/download [get]
func (h *ContentHandler) GetDownloadURL(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}
	fileID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	url, err := services.ResolveDownloadURL(h.DB, fileID, uc.ID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": url})
}

// SetBookmark handles PUT /api/content/files/:id/bookmark
// @Summary Bookmark a file
// @Tags Content
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /content/files/{id}/bookmark [put]
func (h *ContentHandler) SetBookmark(c *fiber.Ctx) error {
	return h.toggleBookmark(c, true)
}

// DeleteBookmark handles DELETE /api/content/files/:id/bookmark
// @Summary Remove a file bookmark
// @Tags Content
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /content/files/{id}/bookmark [delete]
func (h *ContentHandler) DeleteBookmark(c *fiber.Ctx) error {
	return h.toggleBookmark(c, false)
}

func (h *ContentHandler) toggleBookmark(c *fiber.Ctx, present bool) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}
	fileID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := services.ToggleBookmark(h.DB, uc.ID, fileID, present); err != nil {
		return err
	}

	return utils.MutationSuccessResponse(c, 1)
}

// SetProgress handles PUT /api/content/files/:id/progress
// @Summary Set completion state for a file
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param body body object true "Completion flag"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /content/files/{id}/progress [put]
func (h *ContentHandler) SetProgress(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}
	fileID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var body struct {
		Completed *bool `json:"completed"`
	}
	if err := c.BodyParser(&body); err != nil || body.Completed == nil {
		return types.Validation("completed is required", "content.progress.input")
	}

	if err := services.SetFileProgress(h.DB, uc.ID, fileID, *body.Completed); err != nil {
		return err
	}

	return utils.MutationSuccessResponse(c, 1)
}

// MarkOpened handles POST /api/content/files/:id/opened
// @Summary Record that a file was opened
// @Tags Content
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /content/files/{id}/opened [post]
func (h *ContentHandler) MarkOpened(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}
	fileID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := services.MarkFileOpened(h.DB, uc.ID, fileID); err != nil {
		return err
	}

	return utils.MutationSuccessResponse(c, 1)
}
