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

package models

import (
	"time"

	"github.com/google/uuid"
)

type FileType string

const (
	FileTypeVideo FileType = "VIDEO"
	FileTypePDF   FileType = "PDF"
)

// Folder is a node in the curated content forest. ParentID is self
// referential; a nil parent means forest root. "order" is a reserved word in
// most SQL dialects, hence the sort_order column.
type Folder struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"size:1024" json:"description,omitempty"`
	ParentID    *uuid.UUID `gorm:"type:char(36);index" json:"parentId,omitempty"`
	Order       int        `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedByID *uuid.UUID `gorm:"type:char(36)" json:"createdById,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// File is a leaf pointing at an external Drive locator. The locator is never
// serialized; it is only released by the download authorization path.
type File struct {
	ID             uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Description    string     `gorm:"size:1024" json:"description,omitempty"`
	FileType       FileType   `gorm:"size:8;not null" json:"fileType"`
	GoogleDriveURL string     `gorm:"size:1024;not null" json:"-"`
	FolderID       *uuid.UUID `gorm:"type:char(36);index" json:"folderId,omitempty"`
	OwnerID        *uuid.UUID `gorm:"type:char(36)" json:"ownerId,omitempty"`
	Order          int        `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type Bookmark struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_bookmark_user_file" json:"userId"`
	FileID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_bookmark_user_file" json:"fileId"`
	CreatedAt time.Time `json:"createdAt"`
}

type FileProgress struct {
	ID           uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_progress_user_file" json:"userId"`
	FileID       uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_progress_user_file" json:"fileId"`
	Completed    bool       `gorm:"not null;default:false" json:"completed"`
	LastOpenedAt *time.Time `json:"lastOpenedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName overrides the table name for FileProgress (the default
// pluralization is unusable).
func (FileProgress) TableName() string {
	return "file_progress"
}
