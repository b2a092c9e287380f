// file_service.go
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
	"net/url"

	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/models"
	"github.com/localnerve/edukit-content/internal/types"
	"gorm.io/gorm"
)

// driveHosts are the only hosts a file locator may point at. The check
// exists to catch pasted-URL typos before they are persisted.
var driveHosts = map[string]struct{}{
	"drive.google.com": {},
	"docs.google.com":  {},
}

// CreateFileInput carries the fields of a file create request.
type CreateFileInput struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	FileType       models.FileType `json:"fileType"`
	GoogleDriveURL string          `json:"googleDriveUrl"`
	FolderID       *uuid.UUID      `json:"folderId"`
	OwnerID        *uuid.UUID      `json:"-"`
}

// UpdateFileInput is a partial patch; nil fields are left untouched.
type UpdateFileInput struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	FileType       *models.FileType `json:"fileType"`
	GoogleDriveURL *string          `json:"googleDriveUrl"`
	FolderID       *uuid.UUID       `json:"folderId"`
}

// CreateFile creates a file appended to the end of its sibling list after
// validating the external locator.
func CreateFile(db *gorm.DB, in CreateFileInput) (*models.File, error) {
	if in.Name == "" {
		return nil, types.Validation("File name is required", "content.file.name")
	}
	if in.FileType != models.FileTypeVideo && in.FileType != models.FileTypePDF {
		return nil, types.Validation("fileType must be VIDEO or PDF", "content.file.type")
	}
	if err := validateDriveURL(in.GoogleDriveURL); err != nil {
		return nil, err
	}

	if in.FolderID != nil {
		if err := folderExists(db, *in.FolderID); err != nil {
			return nil, err
		}
	}

	var siblings int64
	if err := scopeFileParent(db.Model(&models.File{}), in.FolderID).
		Count(&siblings).Error; err != nil {
		return nil, err
	}

	file := models.File{
		ID:             uuid.New(),
		Name:           in.Name,
		Description:    in.Description,
		FileType:       in.FileType,
		GoogleDriveURL: in.GoogleDriveURL,
		FolderID:       in.FolderID,
		OwnerID:        in.OwnerID,
		Order:          int(siblings),
	}

	if err := db.Create(&file).Error; err != nil {
		return nil, err
	}

	return &file, nil
}

// UpdateFile applies a partial patch to an existing file.
func UpdateFile(db *gorm.DB, id uuid.UUID, in UpdateFileInput) (*models.File, error) {
	var file models.File
	if err := db.First(&file, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, types.NotFound("File not found", "content.file")
		}
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, types.Validation("File name must not be empty", "content.file.name")
		}
		file.Name = *in.Name
	}
	if in.Description != nil {
		file.Description = *in.Description
	}
	if in.FileType != nil {
		if *in.FileType != models.FileTypeVideo && *in.FileType != models.FileTypePDF {
			return nil, types.Validation("fileType must be VIDEO or PDF", "content.file.type")
		}
		file.FileType = *in.FileType
	}
	if in.GoogleDriveURL != nil {
		if err := validateDriveURL(*in.GoogleDriveURL); err != nil {
			return nil, err
		}
		file.GoogleDriveURL = *in.GoogleDriveURL
	}
	if in.FolderID != nil {
		if err := folderExists(db, *in.FolderID); err != nil {
			return nil, err
		}
		file.FolderID = in.FolderID
	}

	if err := db.Save(&file).Error; err != nil {
		return nil, err
	}

	return &file, nil
}

// DeleteFile removes a file and its dependent per-user state in one
// transaction. Files have no children to protect.
func DeleteFile(db *gorm.DB, id uuid.UUID) error {
	var file models.File
	if err := db.First(&file, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return types.NotFound("File not found", "content.file")
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("file_id = ?", id).Delete(&models.FileProgress{}).Error; err != nil {
			return err
		}
		return tx.Delete(&file).Error
	})
}

func validateDriveURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "https" {
		return types.Validation("Locator must be an https URL", "content.file.locator")
	}
	if _, ok := driveHosts[parsed.Hostname()]; !ok {
		return types.Validation("Locator must point at the configured drive provider", "content.file.locator")
	}
	return nil
}
