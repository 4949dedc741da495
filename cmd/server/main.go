package main

import (
	"context"
	"log"
	"net/http"

	"petkeeper/docs"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"petkeeper/internal/auth"
	"petkeeper/internal/cache"
	"petkeeper/internal/config"
	"petkeeper/internal/db"
	"petkeeper/internal/handler"
	"petkeeper/internal/model"
	"petkeeper/internal/repository"
	"petkeeper/internal/router"
	"petkeeper/internal/service"
	"petkeeper/internal/storage"
)

// @title Pet Keeper API
// @version 1.0
// @description Pet tracking API with photo uploads and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Pet{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	bucket, err := storage.NewBucket(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageUseSSL,
		cfg.StorageBucket,
		cfg.StoragePublicURL,
	)
	if err != nil {
		log.Fatalf("object store init: %v", err)
	}
	if err := bucket.EnsureExists(context.Background()); err != nil {
		log.Printf("Warning: could not ensure bucket exists: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	petRepo := repository.NewPetRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	petService := service.NewPetService(petRepo, bucket, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	petHandler := handler.NewPetHandler(petService, bucket)

	// Register routes
	router.Register(e, cfg, authHandler, petHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
