// main.go
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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/localnerve/edukit-content/internal/auth"
	"github.com/localnerve/edukit-content/internal/config"
	"github.com/localnerve/edukit-content/internal/database"
	"github.com/localnerve/edukit-content/internal/handlers"
	"github.com/localnerve/edukit-content/internal/middleware"
	"github.com/localnerve/edukit-content/internal/models"
	"github.com/localnerve/edukit-content/internal/services"
	"github.com/localnerve/edukit-content/internal/types"
	"github.com/localnerve/edukit-content/pkg/logger"
)

// @title EduKit Content API
// @version 1.0.0
// @description Go Fiber education content service with multi-database support
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/edukit-content
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name access_token

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.AppEnv)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	sessions := auth.NewSessionManager(cfg)

	// Federated login is optional; without an issuer the oauth route 404s.
	var identity auth.IdentityVerifier
	if cfg.OIDCIssuer != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		identity, err = auth.NewOIDCVerifier(ctx, cfg)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("issuer", cfg.OIDCIssuer).
				Msg("Failed to initialize identity verifier")
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          makeErrorHandler(cfg),
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("edukit_content")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Health
	app.Get("/health", func(c *fiber.Ctx) error {
		result := services.HealthCheck(cfg, db)
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(result)
	})

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())

	authHandler := &handlers.AuthHandler{DB: db, Sessions: sessions, Cfg: cfg, Identity: identity}
	contentHandler := &handlers.ContentHandler{DB: db}
	adminHandler := &handlers.AdminHandler{DB: db}

	authenticated := middleware.Authenticate(db, sessions, cfg)
	refreshStatus := middleware.RefreshStatus(db)
	requireActive := middleware.RequireActive()

	// Session routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/oauth", authHandler.OAuthLogin)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Get("/me", authenticated, authHandler.Me)
	authGroup.Post("/password-reset", authHandler.RequestPasswordReset)
	authGroup.Post("/password-reset/confirm", authHandler.ResetPassword)

	// Content routes; the tree is public, engagement and downloads are gated
	content := api.Group("/content")
	content.Get("/", middleware.AuthenticateOptional(db, sessions, cfg), contentHandler.GetContentTree)
	content.Get("/files/:id/download", authenticated, refreshStatus, requireActive, contentHandler.GetDownloadURL)
	content.Put("/files/:id/bookmark", authenticated, refreshStatus, requireActive, contentHandler.SetBookmark)
	content.Delete("/files/:id/bookmark", authenticated, refreshStatus, requireActive, contentHandler.DeleteBookmark)
	content.Put("/files/:id/progress", authenticated, refreshStatus, requireActive, contentHandler.SetProgress)
	content.Post("/files/:id/opened", authenticated, refreshStatus, requireActive, contentHandler.MarkOpened)

	// Admin routes
	admin := api.Group("/admin", authenticated, middleware.RequireRole(models.RoleAdmin))
	admin.Post("/folders", adminHandler.CreateFolder)
	admin.Put("/folders/reorder", adminHandler.ReorderFolders)
	admin.Put("/folders/:id", adminHandler.UpdateFolder)
	admin.Delete("/folders/:id", adminHandler.DeleteFolder)
	admin.Post("/files", adminHandler.CreateFile)
	admin.Put("/files/reorder", adminHandler.ReorderFiles)
	admin.Put("/files/:id", adminHandler.UpdateFile)
	admin.Delete("/files/:id", adminHandler.DeleteFile)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/users/:id", adminHandler.GetUser)
	admin.Put("/users/:id", adminHandler.UpdateUser)
	admin.Delete("/users/:id", adminHandler.DeleteUser)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info().Msg("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	log.Info().Str("port", cfg.Port).Msg("Starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}

	log.Info().Msg("Server stopped")
}

// makeErrorHandler maps errors to the standard error envelope. Unexpected
// errors are logged and collapsed to a generic message in production.
func makeErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()
		errorType := "unknown"

		if ce, ok := types.AsCustomError(err); ok {
			code = ce.Code
			message = ce.Message
			errorType = ce.Type
		} else if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("url", c.OriginalURL()).Msg("request failed")
			if cfg.AppEnv == "production" {
				message = "Internal Server Error"
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"status":    code,
			"message":   message,
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
			"type":      errorType,
		})
	}
}
