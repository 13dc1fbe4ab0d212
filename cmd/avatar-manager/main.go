package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/inhausmakers/avatar-manager/internal/api"
	"github.com/inhausmakers/avatar-manager/internal/auth"
	"github.com/inhausmakers/avatar-manager/internal/avatar"
	"github.com/inhausmakers/avatar-manager/internal/config"
	"github.com/inhausmakers/avatar-manager/internal/database"
	"github.com/inhausmakers/avatar-manager/internal/gateway"
	"github.com/inhausmakers/avatar-manager/internal/imageproc"
	redisclient "github.com/inhausmakers/avatar-manager/internal/redis"
	"github.com/inhausmakers/avatar-manager/internal/service"
	"github.com/inhausmakers/avatar-manager/internal/snowflake"
	"github.com/inhausmakers/avatar-manager/internal/storage"
)

// gatewayNotifier forwards avatar mutations to connected clients.
type gatewayNotifier struct {
	gw *gateway.Manager
}

func (n gatewayNotifier) NotifyAvatarUpdated(userID int64) {
	n.gw.DispatchToUser(userID, gateway.EventAvatarUpdate, gateway.AvatarUpdateData{UserID: userID})
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// --- Infrastructure ---

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	files, err := storage.NewLocalStore(cfg.UploadsDir, cfg.BaseURL)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	var archive *storage.ArchiveStore
	if cfg.MinIOEndpoint != "" {
		archive, err = storage.NewArchiveStore(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket)
		if err != nil {
			log.Fatalf("archive storage: %v", err)
		}
	}

	sf, err := snowflake.NewGenerator(1, 1)
	if err != nil {
		log.Fatalf("snowflake: %v", err)
	}
	tokenSvc := auth.NewTokenService(cfg.JWTSecret)

	// --- Repositories ---

	users := database.NewUserRepository(pool)
	attachments := database.NewAttachmentRepository(pool)

	// --- Avatar engine ---

	paths := avatar.NewPathMapper(cfg.UploadsDir, cfg.BaseURL)
	hooks := avatar.NewHooks()
	resizeCache := avatar.NewResizeCache(attachments, paths, imageproc.NewEditor(), hooks)
	resolver := avatar.NewResolver(avatar.Options{
		Enabled:     cfg.ShowAvatars,
		DefaultSize: cfg.DefaultSize,
		Ceiling:     cfg.RatingCeiling,
	}, users, attachments, resizeCache, paths, hooks)
	store := avatar.NewStore(users, attachments, resizeCache, paths, hooks, cfg.DefaultSize)

	// --- Gateway ---

	gwManager := gateway.NewManager(tokenSvc)

	hooks.OnResize(func(attachmentID int64, size int) {
		gwManager.Broadcast(gateway.EventAvatarResize, gateway.AvatarResizeData{
			AttachmentID: attachmentID,
			Size:         size,
		})
	})
	hooks.OnDelete(func(attachmentID int64) {
		gwManager.Broadcast(gateway.EventAvatarDelete, gateway.AvatarUpdateData{
			AttachmentID: attachmentID,
		})
	})

	// --- Services ---

	authSvc := service.NewAuthService(users, tokenSvc, rdb, sf)
	avatarSvc := service.NewAvatarService(users, attachments, store, resolver, files, archive, rdb, sf,
		gatewayNotifier{gwManager}, cfg.AvatarUploads, cfg.ScopeID)

	// --- Handlers ---

	authHandler := api.NewAuthHandler(authSvc)
	userHandler := api.NewUserHandler(users)
	avatarHandler := api.NewAvatarHandler(avatarSvc, resolver, rdb, cfg.DefaultSize)

	deps := &api.Dependencies{
		Auth:         authHandler,
		Users:        userHandler,
		Avatars:      avatarHandler,
		Gateway:      gwManager,
		TokenService: tokenSvc,
		Redis:        rdb,
	}

	// --- Echo ---

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Original and resized avatar files are served straight off disk.
	e.Static("/uploads", cfg.UploadsDir)

	api.SetupRouter(e, deps)

	// --- Start ---

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("avatar-manager starting on %s", cfg.ServerAddr)
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("shutting down...")
	gwManager.Shutdown()
	if err := e.Shutdown(context.Background()); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
