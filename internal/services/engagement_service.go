// engagement_service.go
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
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/models"
	"github.com/localnerve/edukit-content/internal/types"
	"gorm.io/gorm"
)

// ToggleBookmark creates or removes the (user, file) bookmark pair.
func ToggleBookmark(db *gorm.DB, userID, fileID uuid.UUID, present bool) error {
	if err := fileExists(db, fileID); err != nil {
		return err
	}

	if present {
		bookmark := models.Bookmark{UserID: userID, FileID: fileID}
		return db.Where("user_id = ? AND file_id = ?", userID, fileID).
			Attrs(models.Bookmark{ID: uuid.New()}).
			FirstOrCreate(&bookmark).Error
	}

	return db.Where("user_id = ? AND file_id = ?", userID, fileID).
		Delete(&models.Bookmark{}).Error
}

// SetFileProgress upserts the completed flag for the (user, file) pair.
func SetFileProgress(db *gorm.DB, userID, fileID uuid.UUID, completed bool) error {
	if err := fileExists(db, fileID); err != nil {
		return err
	}

	progress, err := findOrCreateProgress(db, userID, fileID)
	if err != nil {
		return err
	}

	return db.Model(progress).Update("completed", completed).Error
}

// MarkFileOpened upserts the last-opened timestamp for the (user, file) pair.
func MarkFileOpened(db *gorm.DB, userID, fileID uuid.UUID) error {
	if err := fileExists(db, fileID); err != nil {
		return err
	}

	progress, err := findOrCreateProgress(db, userID, fileID)
	if err != nil {
		return err
	}

	return db.Model(progress).Update("last_opened_at", time.Now()).Error
}

func findOrCreateProgress(db *gorm.DB, userID, fileID uuid.UUID) (*models.FileProgress, error) {
	progress := models.FileProgress{UserID: userID, FileID: fileID}
	err := db.Where("user_id = ? AND file_id = ?", userID, fileID).
		Attrs(models.FileProgress{ID: uuid.New()}).
		FirstOrCreate(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func fileExists(db *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := db.Model(&models.File{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return types.NotFound("File not found", "content.file")
	}
	return nil
}
