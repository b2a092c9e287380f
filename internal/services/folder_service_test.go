package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/models"
	"github.com/localnerve/edukit-content/internal/services"
	"github.com/localnerve/edukit-content/internal/types"
)

func TestCreateFolderAppendsToSiblings(t *testing.T) {
	db := setupTestDB(t)

	first, err := services.CreateFolder(db, services.CreateFolderInput{Name: "First"})
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if first.Order != 0 {
		t.Errorf("First root folder order = %d, want 0", first.Order)
	}

	second, err := services.CreateFolder(db, services.CreateFolderInput{Name: "Second"})
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if second.Order != 1 {
		t.Errorf("Second root folder order = %d, want 1", second.Order)
	}

	// A different parent scope starts its own numbering.
	child, err := services.CreateFolder(db, services.CreateFolderInput{
		Name: "Child", ParentID: &first.ID,
	})
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if child.Order != 0 {
		t.Errorf("First child order = %d, want 0", child.Order)
	}
}

func TestCreateFolderUnknownParent(t *testing.T) {
	db := setupTestDB(t)

	missing := uuid.New()
	_, err := services.CreateFolder(db, services.CreateFolderInput{
		Name: "Stray", ParentID: &missing,
	})
	if ce, ok := types.AsCustomError(err); !ok || ce.Code != 404 {
		t.Fatalf("Expected 404 for unknown parent, got %v", err)
	}
}

func TestUpdateFolderPartialPatch(t *testing.T) {
	db := setupTestDB(t)
	folder := seedFolder(t, db, "Old Name", nil, 0)

	name := "New Name"
	updated, err := services.UpdateFolder(db, folder.ID, services.UpdateFolderInput{Name: &name})
	if err != nil {
		t.Fatalf("UpdateFolder failed: %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("Name not updated: %s", updated.Name)
	}
	if updated.Order != folder.Order {
		t.Errorf("Order must be untouched by a name patch")
	}
}

func TestDeleteFolderRequiresEmpty(t *testing.T) {
	db := setupTestDB(t)

	t.Run("folder with child folder", func(t *testing.T) {
		parent := seedFolder(t, db, "Parent", nil, 0)
		seedFolder(t, db, "Child", &parent.ID, 0)

		err := services.DeleteFolder(db, parent.ID)
		if ce, ok := types.AsCustomError(err); !ok || ce.Code != 409 {
			t.Fatalf("Expected 409 for non-empty folder, got %v", err)
		}
	})

	t.Run("folder with file", func(t *testing.T) {
		parent := seedFolder(t, db, "Docs", nil, 1)
		seedFile(t, db, "doc", &parent.ID, 0)

		err := services.DeleteFolder(db, parent.ID)
		if ce, ok := types.AsCustomError(err); !ok || ce.Code != 409 {
			t.Fatalf("Expected 409 for folder with files, got %v", err)
		}

		// The check and the delete share one transaction; a refusal must
		// leave the folder row intact.
		var count int64
		db.Model(&models.Folder{}).Where("id = ?", parent.ID).Count(&count)
		if count != 1 {
			t.Errorf("Refused delete must not touch the folder row")
		}
	})

	t.Run("empty folder", func(t *testing.T) {
		empty := seedFolder(t, db, "Empty", nil, 2)

		if err := services.DeleteFolder(db, empty.ID); err != nil {
			t.Fatalf("DeleteFolder failed: %v", err)
		}

		var count int64
		db.Model(&models.Folder{}).Where("id = ?", empty.ID).Count(&count)
		if count != 0 {
			t.Errorf("Folder row survived the delete")
		}
	})
}

func TestReorderSiblings(t *testing.T) {
	db := setupTestDB(t)

	a := seedFolder(t, db, "a", nil, 0)
	b := seedFolder(t, db, "b", nil, 1)
	c := seedFolder(t, db, "c", nil, 2)

	err := services.ReorderSiblings(db, nil, services.ReorderFolders,
		[]uuid.UUID{c.ID, a.ID, b.ID})
	if err != nil {
		t.Fatalf("ReorderSiblings failed: %v", err)
	}

	result, err := services.BuildContentTree(db, nil)
	if err != nil {
		t.Fatalf("BuildContentTree failed: %v", err)
	}
	got := []uuid.UUID{result.Tree[0].ID, result.Tree[1].ID, result.Tree[2].ID}
	want := []uuid.UUID{c.ID, a.ID, b.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Wrong order after reorder: %v", got)
		}
	}
}

// TestReorderSiblingsRollsBack verifies that an unknown id in the middle of
// the list leaves every row untouched.
func TestReorderSiblingsRollsBack(t *testing.T) {
	db := setupTestDB(t)

	a := seedFolder(t, db, "a", nil, 0)
	b := seedFolder(t, db, "b", nil, 1)

	err := services.ReorderSiblings(db, nil, services.ReorderFolders,
		[]uuid.UUID{b.ID, uuid.New(), a.ID})
	if ce, ok := types.AsCustomError(err); !ok || ce.Code != 404 {
		t.Fatalf("Expected 404 for unknown id, got %v", err)
	}

	var reloaded models.Folder
	db.First(&reloaded, "id = ?", b.ID)
	if reloaded.Order != 1 {
		t.Errorf("Order changed despite rollback: %d", reloaded.Order)
	}
}

func TestReorderFiles(t *testing.T) {
	db := setupTestDB(t)

	folder := seedFolder(t, db, "Folder", nil, 0)
	x := seedFile(t, db, "x", &folder.ID, 0)
	y := seedFile(t, db, "y", &folder.ID, 1)

	err := services.ReorderSiblings(db, &folder.ID, services.ReorderFiles,
		[]uuid.UUID{y.ID, x.ID})
	if err != nil {
		t.Fatalf("ReorderSiblings failed: %v", err)
	}

	var reloaded models.File
	db.First(&reloaded, "id = ?", y.ID)
	if reloaded.Order != 0 {
		t.Errorf("File y order = %d, want 0", reloaded.Order)
	}
}
