package services_test

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Plan{},
		&models.User{},
		&models.Subscription{},
		&models.PasswordResetToken{},
		&models.Folder{},
		&models.File{},
		&models.Bookmark{},
		&models.FileProgress{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func seedUser(t *testing.T, db *gorm.DB, role models.Role, status models.UserStatus, active bool) *models.User {
	t.Helper()

	user := models.User{
		ID:       uuid.New(),
		Name:     "user-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@example.com",
		Role:     role,
		Status:   status,
		IsActive: active,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	if !active {
		// GORM omits zero-value fields with a default tag on insert, so the
		// column's default:true wins; force the false value explicitly.
		if err := db.Model(&user).Update("is_active", false).Error; err != nil {
			t.Fatalf("Failed to deactivate seeded user: %v", err)
		}
	}
	return &user
}

func seedPlan(t *testing.T, db *gorm.DB, tier models.PlanTier) *models.Plan {
	t.Helper()

	plan := models.Plan{
		ID:   uuid.New(),
		Name: "plan-" + uuid.NewString()[:8],
		Tier: tier,
	}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("Failed to seed plan: %v", err)
	}
	return &plan
}

func seedSubscription(t *testing.T, db *gorm.DB, userID, planID uuid.UUID, status models.SubscriptionStatus, endDate time.Time) *models.Subscription {
	t.Helper()

	sub := models.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		PlanID:    planID,
		Status:    status,
		StartDate: endDate.AddDate(-1, 0, 0),
		EndDate:   endDate,
	}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("Failed to seed subscription: %v", err)
	}
	return &sub
}

func seedFolder(t *testing.T, db *gorm.DB, name string, parentID *uuid.UUID, order int) *models.Folder {
	t.Helper()

	folder := models.Folder{
		ID:       uuid.New(),
		Name:     name,
		ParentID: parentID,
		Order:    order,
	}
	if err := db.Create(&folder).Error; err != nil {
		t.Fatalf("Failed to seed folder: %v", err)
	}
	return &folder
}

func seedFile(t *testing.T, db *gorm.DB, name string, folderID *uuid.UUID, order int) *models.File {
	t.Helper()

	file := models.File{
		ID:             uuid.New(),
		Name:           name,
		FileType:       models.FileTypePDF,
		GoogleDriveURL: "https://drive.google.com/file/d/" + uuid.NewString(),
		FolderID:       folderID,
		Order:          order,
	}
	if err := db.Create(&file).Error; err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}
	return &file
}
