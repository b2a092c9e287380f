package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/localnerve/edukit-content/internal/auth"
	"github.com/localnerve/edukit-content/internal/config"
	"github.com/localnerve/edukit-content/internal/middleware"
	"github.com/localnerve/edukit-content/internal/models"
	"github.com/localnerve/edukit-content/internal/types"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Plan{}, &models.User{}, &models.Subscription{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret-for-tests",
		RefreshTokenSecret: "refresh-secret-for-tests",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	}
}

// newTestApp wires a fiber app with the typed error mapping the server uses.
func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if ce, ok := types.AsCustomError(err); ok {
				return c.Status(ce.Code).JSON(fiber.Map{"message": ce.Message, "type": ce.Type})
			}
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).SendString(e.Message)
			}
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
	})
}

func seedUser(t *testing.T, db *gorm.DB, role models.Role, status models.UserStatus, active bool) *models.User {
	t.Helper()

	user := models.User{
		ID:       uuid.New(),
		Name:     "user",
		Email:    uuid.NewString()[:8] + "@example.com",
		Role:     role,
		Status:   status,
		IsActive: active,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return &user
}

func whoami(c *fiber.Ctx) error {
	uc := middleware.UserContext(c)
	if uc == nil {
		return types.Unauthorized("session.context")
	}
	return c.JSON(uc)
}

func TestAuthenticateWithAccessCookie(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	sessions := auth.NewSessionManager(cfg)
	user := seedUser(t, db, models.RoleUser, models.StatusActive, true)

	app := newTestApp()
	app.Get("/me", middleware.Authenticate(db, sessions, cfg), whoami)

	pair, _ := sessions.Issue(user.ID, user.Role)
	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: pair.AccessToken})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthenticateWithBearerHeader(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	sessions := auth.NewSessionManager(cfg)
	user := seedUser(t, db, models.RoleUser, models.StatusActive, true)

	app := newTestApp()
	app.Get("/me", middleware.Authenticate(db, sessions, cfg), whoami)

	pair, _ := sessions.Issue(user.ID, user.Role)
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthenticateRejectsAnonymous(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	sessions := auth.NewSessionManager(cfg)

	app := newTestApp()
	app.Get("/me", middleware.Authenticate(db, sessions, cfg), whoami)

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

// TestSilentRefresh verifies a request carrying only a refresh cookie
// succeeds and receives a fresh, verifiable token pair.
func TestSilentRefresh(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	sessions := auth.NewSessionManager(cfg)
	user := seedUser(t, db, models.RoleUser, models.StatusActive, true)

	app := newTestApp()
	app.Get("/me", middleware.Authenticate(db, sessions, cfg), whoami)

	pair, _ := sessions.Issue(user.ID, user.Role)
	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.RefreshCookie, Value: pair.RefreshToken})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200 via silent refresh, got %d", resp.StatusCode)
	}

	var gotAccess, gotRefresh string
	for _, c := range resp.Cookies() {
		switch c.Name {
		case middleware.AccessCookie:
			gotAccess = c.Value
		case middleware.RefreshCookie:
			gotRefresh = c.Value
		}
	}
	if gotAccess == "" || gotRefresh == "" {
		t.Fatalf("Silent refresh must set both cookies")
	}

	if claims, err := sessions.VerifyAccess(gotAccess); err != nil || claims.UserID != user.ID {
		t.Errorf("New access cookie does not verify: %v", err)
	}
	if claims, err := sessions.VerifyRefresh(gotRefresh); err != nil || claims.UserID != user.ID {
		t.Errorf("New refresh cookie does not verify: %v", err)
	}
}

func TestAuthenticateOptionalAnonymous(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	sessions := auth.NewSessionManager(cfg)

	app := newTestApp()
	app.Get("/tree", middleware.AuthenticateOptional(db, sessions, cfg), func(c *fiber.Ctx) error {
		if middleware.UserContext(c) != nil {
			return types.Validation("unexpected context", "test")
		}
		return c.SendStatus(200)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/tree", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Anonymous optional auth must pass, got %d", resp.StatusCode)
	}
}

// TestAuthenticateOptionalPropagatesHandlerError verifies that an error
// returned by the handler behind optional auth reaches the error handler
// unchanged for an authenticated caller, instead of being replaced by a
// second route dispatch.
func TestAuthenticateOptionalPropagatesHandlerError(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	sessions := auth.NewSessionManager(cfg)
	user := seedUser(t, db, models.RoleUser, models.StatusActive, true)

	app := newTestApp()
	app.Get("/tree", middleware.AuthenticateOptional(db, sessions, cfg), func(c *fiber.Ctx) error {
		if middleware.UserContext(c) == nil {
			return types.Validation("missing context", "test")
		}
		return types.Conflict("simulated failure", "test.conflict")
	})

	pair, _ := sessions.Issue(user.ID, user.Role)
	req := httptest.NewRequest("GET", "/tree", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: pair.AccessToken})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 409 {
		t.Errorf("Expected the handler's 409 to propagate, got %d", resp.StatusCode)
	}
}

func TestRequireRole(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	sessions := auth.NewSessionManager(cfg)
	user := seedUser(t, db, models.RoleUser, models.StatusActive, true)
	admin := seedUser(t, db, models.RoleAdmin, models.StatusActive, true)

	app := newTestApp()
	app.Get("/admin",
		middleware.Authenticate(db, sessions, cfg),
		middleware.RequireRole(models.RoleAdmin),
		func(c *fiber.Ctx) error { return c.SendStatus(200) })

	userPair, _ := sessions.Issue(user.ID, user.Role)
	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: userPair.AccessToken})
	resp, _ := app.Test(req)
	if resp.StatusCode != 403 {
		t.Errorf("Non-admin expected 403, got %d", resp.StatusCode)
	}

	adminPair, _ := sessions.Issue(admin.ID, admin.Role)
	req = httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: adminPair.AccessToken})
	resp, _ = app.Test(req)
	if resp.StatusCode != 200 {
		t.Errorf("Admin expected 200, got %d", resp.StatusCode)
	}
}

// TestRefreshStatusOverridesStaleState verifies a user deactivated after
// their token was minted is denied by the gate on the next request.
func TestRefreshStatusOverridesStaleState(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	sessions := auth.NewSessionManager(cfg)
	user := seedUser(t, db, models.RoleUser, models.StatusActive, true)

	app := newTestApp()
	app.Get("/gated",
		middleware.Authenticate(db, sessions, cfg),
		middleware.RefreshStatus(db),
		middleware.RequireActive(),
		func(c *fiber.Ctx) error { return c.SendStatus(200) })

	pair, _ := sessions.Issue(user.ID, user.Role)

	// Deactivate after the token was minted.
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("Failed to deactivate user: %v", err)
	}

	req := httptest.NewRequest("GET", "/gated", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: pair.AccessToken})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Errorf("Deactivated user expected 403, got %d", resp.StatusCode)
	}
}

// TestRequireActivePassesPending verifies PENDING users reach gated routes;
// subscription enforcement is per resource, not at the gate.
func TestRequireActivePassesPending(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	sessions := auth.NewSessionManager(cfg)
	user := seedUser(t, db, models.RoleUser, models.StatusPending, true)

	app := newTestApp()
	app.Get("/gated",
		middleware.Authenticate(db, sessions, cfg),
		middleware.RefreshStatus(db),
		middleware.RequireActive(),
		func(c *fiber.Ctx) error { return c.SendStatus(200) })

	pair, _ := sessions.Issue(user.ID, user.Role)
	req := httptest.NewRequest("GET", "/gated", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: pair.AccessToken})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Pending user expected 200, got %d", resp.StatusCode)
	}
}

// TestAuthenticateDeletedUser verifies a valid token for a user that no
// longer exists is rejected.
func TestAuthenticateDeletedUser(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	sessions := auth.NewSessionManager(cfg)

	app := newTestApp()
	app.Get("/me", middleware.Authenticate(db, sessions, cfg), whoami)

	pair, _ := sessions.Issue(uuid.New(), models.RoleUser)
	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: pair.AccessToken})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("Expected 401 for a missing user, got %d", resp.StatusCode)
	}
}
