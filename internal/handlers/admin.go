// admin.go
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
	"github.com/localnerve/edukit-content/internal/services"
	"github.com/localnerve/edukit-content/internal/types"
	"github.com/localnerve/edukit-content/internal/utils"
	"gorm.io/gorm"
)

// AdminHandler handles content and user administration routes
type AdminHandler struct {
	DB *gorm.DB
}

// reorderBody accepts ids as a single value or an array.
type reorderBody struct {
	ParentID *uuid.UUID                `json:"parentId"`
	IDs      types.FlexList[uuid.UUID] `json:"ids"`
}

// CreateFolder handles POST /api/admin/folders
// @Summary Create a folder
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body services.CreateFolderInput true "Folder fields"
// @Success 201 {object} models.Folder
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/folders [post]
func (h *AdminHandler) CreateFolder(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	var body services.CreateFolderInput
	if err := c.BodyParser(&body); err != nil {
		return types.Validation("Invalid input", "content.folder.input")
	}
	body.CreatedByID = &uc.ID

	folder, err := services.CreateFolder(h.DB, body)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(folder)
}

// UpdateFolder handles PUT /api/admin/folders/:id
// @Summary Update a folder
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Folder ID"
// @Param body body services.UpdateFolderInput true "Fields to change"
// @Success 200 {object} models.Folder
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/folders/{id} [put]
func (h *AdminHandler) UpdateFolder(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var body services.UpdateFolderInput
	if err := c.BodyParser(&body); err != nil {
		return types.Validation("Invalid input", "content.folder.input")
	}

	folder, err := services.UpdateFolder(h.DB, id, body)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(folder)
}

// DeleteFolder handles DELETE /api/admin/folders/:id
// @Summary Delete an empty folder
// @Tags Admin
// @Produce json
// @Param id path string true "Folder ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /admin/folders/{id} [delete]
func (h *AdminHandler) DeleteFolder(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := services.DeleteFolder(h.DB, id); err != nil {
		return err
	}

	return utils.MutationSuccessResponse(c, 1)
}

// ReorderFolders handles PUT /api/admin/folders/reorder
// @Summary Reorder sibling folders
// @Description Apply a new ordering to the folders under one parent; all or nothing
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body object true "Parent id and ordered folder ids"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/folders/reorder [put]
func (h *AdminHandler) ReorderFolders(c *fiber.Ctx) error {
	return h.reorder(c, services.ReorderFolders)
}

// ReorderFiles handles PUT /api/admin/files/reorder
// @Summary Reorder sibling files
// @Description Apply a new ordering to the files under one folder; all or nothing
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body object true "Folder id and ordered file ids"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/files/reorder [put]
func (h *AdminHandler) ReorderFiles(c *fiber.Ctx) error {
	return h.reorder(c, services.ReorderFiles)
}

func (h *AdminHandler) reorder(c *fiber.Ctx, kind services.ReorderKind) error {
	var body reorderBody
	if err := c.BodyParser(&body); err != nil || len(body.IDs) == 0 {
		return types.Validation("Invalid input", "content.reorder.input")
	}

	if err := services.ReorderSiblings(h.DB, body.ParentID, kind, body.IDs.Slice()); err != nil {
		return err
	}

	return utils.MutationSuccessResponse(c, int64(len(body.IDs)))
}

// CreateFile handles POST /api/admin/files
// @Summary Create a file
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body services.CreateFileInput true "File fields"
// @Success 201 {object} models.File
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/files [post]
func (h *AdminHandler) CreateFile(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	var body services.CreateFileInput
	if err := c.BodyParser(&body); err != nil {
		return types.Validation("Invalid input", "content.file.input")
	}
	body.OwnerID = &uc.ID

	file, err := services.CreateFile(h.DB, body)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(file)
}

// UpdateFile handles PUT /api/admin/files/:id
// @Summary Update a file
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param body body services.UpdateFileInput true "Fields to change"
// @Success 200 {object} models.File
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/files/{id} [put]
func (h *AdminHandler) UpdateFile(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var body services.UpdateFileInput
	if err := c.BodyParser(&body); err != nil {
		return types.Validation("Invalid input", "content.file.input")
	}

	file, err := services.UpdateFile(h.DB, id, body)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(file)
}

// DeleteFile handles DELETE /api/admin/files/:id
// @Summary Delete a file and its bookmarks and progress rows
// @Tags Admin
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/files/{id} [delete]
func (h *AdminHandler) DeleteFile(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := services.DeleteFile(h.DB, id); err != nil {
		return err
	}

	return utils.MutationSuccessResponse(c, 1)
}

// ListUsers handles GET /api/admin/users
// @Summary List all users
// @Tags Admin
// @Produce json
// @Success 200 {array} models.User
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := services.ListUsers(h.DB)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(users)
}

// GetUser handles GET /api/admin/users/:id
// @Summary Get one user
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	user, err := services.GetUser(h.DB, id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

// UpdateUser handles PUT /api/admin/users/:id
// @Summary Update a user
// @Description Patch user fields and optionally upsert the subscription; the last active admin cannot lose admin
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body services.UpdateUserInput true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var body services.UpdateUserInput
	if err := c.BodyParser(&body); err != nil {
		return types.Validation("Invalid input", "account.user.input")
	}

	user, err := services.UpdateUser(h.DB, id, body)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

// DeleteUser handles DELETE /api/admin/users/:id
// @Summary Delete a user and their dependent rows
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := services.DeleteUser(h.DB, id); err != nil {
		return err
	}

	return utils.MutationSuccessResponse(c, 1)
}
