// folder_service.go
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
	"fmt"

	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/models"
	"github.com/localnerve/edukit-content/internal/types"
	"gorm.io/gorm"
)

// CreateFolderInput carries the fields of a folder create request.
type CreateFolderInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parentId"`
	CreatedByID *uuid.UUID `json:"-"`
}

// UpdateFolderInput is a partial patch; nil fields are left untouched.
type UpdateFolderInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ReorderKind selects which sibling set a bulk reorder applies to.
type ReorderKind string

const (
	ReorderFolders ReorderKind = "folders"
	ReorderFiles   ReorderKind = "files"
)

// CreateFolder creates a folder appended to the end of its sibling list.
func CreateFolder(db *gorm.DB, in CreateFolderInput) (*models.Folder, error) {
	if in.Name == "" {
		return nil, types.Validation("Folder name is required", "content.folder.name")
	}

	if in.ParentID != nil {
		if err := folderExists(db, *in.ParentID); err != nil {
			return nil, err
		}
	}

	var siblings int64
	if err := scopeParent(db.Model(&models.Folder{}), in.ParentID).
		Count(&siblings).Error; err != nil {
		return nil, err
	}

	folder := models.Folder{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		ParentID:    in.ParentID,
		Order:       int(siblings),
		CreatedByID: in.CreatedByID,
	}

	if err := db.Create(&folder).Error; err != nil {
		return nil, err
	}

	return &folder, nil
}

// UpdateFolder applies a partial patch to an existing folder.
func UpdateFolder(db *gorm.DB, id uuid.UUID, in UpdateFolderInput) (*models.Folder, error) {
	var folder models.Folder
	if err := db.First(&folder, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, types.NotFound("Folder not found", "content.folder")
		}
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, types.Validation("Folder name must not be empty", "content.folder.name")
		}
		folder.Name = *in.Name
	}
	if in.Description != nil {
		folder.Description = *in.Description
	}

	if err := db.Save(&folder).Error; err != nil {
		return nil, err
	}

	return &folder, nil
}

// DeleteFolder deletes a folder only when it is empty. Deletion is never
// cascading; the caller must empty the folder first. The emptiness check and
// the delete run in one transaction so a concurrent child create cannot
// slip in between them.
func DeleteFolder(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var folder models.Folder
		if err := lockForUpdate(tx).First(&folder, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return types.NotFound("Folder not found", "content.folder")
			}
			return err
		}

		var childFolders int64
		if err := tx.Model(&models.Folder{}).Where("parent_id = ?", id).Count(&childFolders).Error; err != nil {
			return err
		}

		var childFiles int64
		if err := tx.Model(&models.File{}).Where("folder_id = ?", id).Count(&childFiles).Error; err != nil {
			return err
		}

		if childFolders > 0 || childFiles > 0 {
			return types.Conflict("Folder is not empty; move or delete its contents first", "content.folder.notEmpty")
		}

		return tx.Delete(&folder).Error
	})
}

// ReorderSiblings assigns order = index for every id in the list, scoped to
// the given parent, in a single transaction. A partial reorder must never be
// observable, so any id that does not belong to the target parent rolls the
// whole operation back.
func ReorderSiblings(db *gorm.DB, parentID *uuid.UUID, kind ReorderKind, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return types.Validation("No ids supplied", "content.reorder.empty")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for index, id := range orderedIDs {
			var result *gorm.DB
			switch kind {
			case ReorderFolders:
				result = scopeParent(tx.Model(&models.Folder{}), parentID).
					Where("id = ?", id).
					Update("sort_order", index)
			case ReorderFiles:
				result = scopeFileParent(tx.Model(&models.File{}), parentID).
					Where("id = ?", id).
					Update("sort_order", index)
			default:
				return types.Validation(fmt.Sprintf("Unknown reorder kind: %s", kind), "content.reorder.kind")
			}

			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return types.NotFound(
					fmt.Sprintf("Id %s is not a child of the target parent", id),
					"content.reorder.id",
				)
			}
		}
		return nil
	})
}

func folderExists(db *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := db.Model(&models.Folder{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return types.NotFound("Parent folder not found", "content.folder.parent")
	}
	return nil
}

// scopeParent narrows a folder query to one sibling set; nil means the roots.
func scopeParent(q *gorm.DB, parentID *uuid.UUID) *gorm.DB {
	if parentID == nil {
		return q.Where("parent_id IS NULL")
	}
	return q.Where("parent_id = ?", *parentID)
}

func scopeFileParent(q *gorm.DB, folderID *uuid.UUID) *gorm.DB {
	if folderID == nil {
		return q.Where("folder_id IS NULL")
	}
	return q.Where("folder_id = ?", *folderID)
}
