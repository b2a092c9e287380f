// tree_service.go
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
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/models"
	"gorm.io/gorm"
)

// FileItem is a file entry of the content tree. The decoration fields are
// nil for anonymous callers and explicit true/false for authenticated ones;
// absent-vs-false is the one consistent sentinel across all call sites.
type FileItem struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	FileType     models.FileType `json:"fileType"`
	FolderID     *uuid.UUID      `json:"folderId,omitempty"`
	Order        int             `json:"order"`
	Bookmarked   *bool           `json:"bookmarked,omitempty"`
	Completed    *bool           `json:"completed,omitempty"`
	LastOpenedAt *time.Time      `json:"lastOpenedAt,omitempty"`
}

// FolderNode is a folder entry of the content tree with its nested children.
type FolderNode struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	ParentID    *uuid.UUID    `json:"parentId,omitempty"`
	Order       int           `json:"order"`
	Children    []*FolderNode `json:"children"`
	Files       []FileItem    `json:"files"`
}

// ContentTreeResult is the full tree response. Progress is present only for
// authenticated callers against a non-empty catalog.
type ContentTreeResult struct {
	Tree      []*FolderNode `json:"tree"`
	RootFiles []FileItem    `json:"rootFiles"`
	Progress  *float64      `json:"progress,omitempty"`
}

// BuildContentTree assembles the folder/file forest from flat rows, ordered
// by (sort_order, name), and decorates every file with the caller's bookmark
// and progress state. The whole view is computed fresh from storage; there is
// no cached tree that could drift from the rows.
//
// A folder or file whose parent reference points at a missing folder is
// placed at the root instead of being dropped, and a parent cycle is broken
// by promoting one of its members to the root, so one corrupt row can never
// break the whole view.
func BuildContentTree(db *gorm.DB, userID *uuid.UUID) (*ContentTreeResult, error) {
	var folders []models.Folder
	if err := db.Order("sort_order asc, name asc").Find(&folders).Error; err != nil {
		return nil, err
	}

	var files []models.File
	if err := db.Order("sort_order asc, name asc").Find(&files).Error; err != nil {
		return nil, err
	}

	// Batch-fetch the caller's interaction state; per-node queries would be
	// an N+1 against the whole catalog.
	bookmarked := make(map[uuid.UUID]struct{})
	progress := make(map[uuid.UUID]models.FileProgress)
	if userID != nil {
		var bookmarks []models.Bookmark
		if err := db.Where("user_id = ?", *userID).Find(&bookmarks).Error; err != nil {
			return nil, err
		}
		for _, b := range bookmarks {
			bookmarked[b.FileID] = struct{}{}
		}

		var rows []models.FileProgress
		if err := db.Where("user_id = ?", *userID).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, p := range rows {
			progress[p.FileID] = p
		}
	}

	// Pass 1: index every folder as a node with empty children/files.
	nodes := make(map[uuid.UUID]*FolderNode, len(folders))
	for _, f := range folders {
		nodes[f.ID] = &FolderNode{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			ParentID:    f.ParentID,
			Order:       f.Order,
			Children:    []*FolderNode{},
			Files:       []FileItem{},
		}
	}

	// Pass 2: link children by id lookup. The scan order is already the
	// (sort_order, name) display order, so appends keep siblings sorted.
	// Folders trapped in a parent cycle would otherwise all become children
	// of one another and never reach the root list, taking their descendants
	// with them; severing each cycle at one member keeps them visible.
	promoted := severParentCycles(folders, nodes)
	result := &ContentTreeResult{
		Tree:      []*FolderNode{},
		RootFiles: []FileItem{},
	}
	for _, f := range folders {
		node := nodes[f.ID]
		if f.ParentID != nil && !promoted[f.ID] {
			if parent, ok := nodes[*f.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		result.Tree = append(result.Tree, node)
	}

	completedCount := 0
	for _, f := range files {
		item := FileItem{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			FileType:    f.FileType,
			FolderID:    f.FolderID,
			Order:       f.Order,
		}

		if userID != nil {
			_, isBookmarked := bookmarked[f.ID]
			item.Bookmarked = &isBookmarked

			completed := false
			if p, ok := progress[f.ID]; ok {
				completed = p.Completed
				item.LastOpenedAt = p.LastOpenedAt
			}
			item.Completed = &completed
			if completed {
				completedCount++
			}
		}

		if f.FolderID != nil {
			if parent, ok := nodes[*f.FolderID]; ok {
				parent.Files = append(parent.Files, item)
				continue
			}
		}
		result.RootFiles = append(result.RootFiles, item)
	}

	if userID != nil && len(files) > 0 {
		pct := round2(float64(completedCount) / float64(len(files)) * 100)
		result.Progress = &pct
	}

	return result, nil
}

// severParentCycles walks every folder's parent chain and returns one id per
// parent cycle. Treating that folder as a root leaves every other cycle
// member reachable through it, so no member needs its row rewritten. Folders
// iterate in display order, so the earliest member of a cycle is the one
// promoted.
func severParentCycles(folders []models.Folder, nodes map[uuid.UUID]*FolderNode) map[uuid.UUID]bool {
	const (
		walking = 1
		settled = 2
	)
	state := make(map[uuid.UUID]uint8, len(folders))
	promoted := make(map[uuid.UUID]bool)

	for _, f := range folders {
		if state[f.ID] != 0 {
			continue
		}
		chain := []uuid.UUID{}
		cur := f.ID
		for {
			if state[cur] == settled {
				break
			}
			if state[cur] == walking {
				// The chain looped back onto itself.
				promoted[cur] = true
				break
			}
			state[cur] = walking
			chain = append(chain, cur)

			parentID := nodes[cur].ParentID
			if parentID == nil {
				break
			}
			parent, ok := nodes[*parentID]
			if !ok {
				break
			}
			cur = parent.ID
		}
		for _, id := range chain {
			state[id] = settled
		}
	}

	return promoted
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
