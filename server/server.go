package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulsegram/cache"
	"pulsegram/config"
	"pulsegram/core/auth"
	"pulsegram/db"
	"pulsegram/logger"
	"pulsegram/model"
	"pulsegram/repository"
	"pulsegram/storage"

	"github.com/gorilla/mux"
)

// userCacheTTL bounds how stale a cached profile projection can get.
const userCacheTTL = 10 * time.Minute

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.Follow{}, &model.PostRef{}, &model.OTP{}); err != nil {
		logger.Fatal("Failed to migrate models", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	cred := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	userRepo := repository.NewMySQLUserRepository(db.DB, cred)
	followRepo := repository.NewGormFollowRepository(db.GormDB)
	postRepo := repository.NewGormPostRefRepository(db.GormDB)
	otpRepo := repository.NewGormOTPRepository(db.GormDB)
	userCache := cache.NewUserCache(db.RedisClient, userCacheTTL)

	apiHandler := NewAPIHandler(userRepo, followRepo, postRepo, otpRepo, cred, userCache, cfg)

	router := mux.NewRouter()

	// CORS middleware.
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Credential endpoints
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/password", apiHandler.AuthMiddleware(apiHandler.ChangePasswordHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/auth/password/reset", apiHandler.RequestPasswordResetHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/password/reset/confirm", apiHandler.ResetPasswordHandler).Methods(http.MethodPost)

	// Profile endpoints
	router.HandleFunc("/api/me", apiHandler.AuthMiddleware(apiHandler.GetProfileHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/me", apiHandler.AuthMiddleware(apiHandler.UpdateProfileHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/me/avatar", apiHandler.AuthMiddleware(apiHandler.UploadAvatarHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/me/status", apiHandler.AuthMiddleware(apiHandler.UpdateStatusHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/me/posts/{postID:[0-9]+}", apiHandler.AuthMiddleware(apiHandler.AttachPostHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/me/posts/{postID:[0-9]+}", apiHandler.AuthMiddleware(apiHandler.DetachPostHandler)).Methods(http.MethodDelete)

	// Verification endpoints
	router.HandleFunc("/api/me/verify", apiHandler.AuthMiddleware(apiHandler.RequestVerificationHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/me/verify/confirm", apiHandler.AuthMiddleware(apiHandler.ConfirmVerificationHandler)).Methods(http.MethodPost)

	// User and relation endpoints
	router.HandleFunc("/api/users/search", apiHandler.SearchUsersHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{uname}", apiHandler.GetUserHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id:[0-9]+}/follow", apiHandler.AuthMiddleware(apiHandler.FollowHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/users/{id:[0-9]+}/follow", apiHandler.AuthMiddleware(apiHandler.UnfollowHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/users/{id:[0-9]+}/followers", apiHandler.FollowersHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id:[0-9]+}/following", apiHandler.FollowingHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id:[0-9]+}/posts", apiHandler.ListPostsHandler).Methods(http.MethodGet)

	// Presence websocket
	router.HandleFunc("/ws/presence", apiHandler.PresenceHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server listening", logger.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", logger.ErrorField(err))
	}
	logger.Info("Server stopped")
}
