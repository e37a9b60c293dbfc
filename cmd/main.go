package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"file-sharing-server/config"
	_ "file-sharing-server/docs"
	"file-sharing-server/internal/handler"
	"file-sharing-server/internal/repository"
	"file-sharing-server/internal/security"
	"file-sharing-server/internal/service"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title File-sharing-server
// @version 1.0
// @description REST API для обмена файлами: публичные ссылки, именные доступы, журнал действий

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	srv, router := config.SetupServer(cfg.ServerAddr)

	userRepo := repository.NewUserRepository(db)
	jwtRepo := repository.NewJWTRepository(db)
	fileRepo := repository.NewFileRepository(db)
	linkShareRepo := repository.NewLinkShareRepository(db)
	userShareRepo := repository.NewUserShareRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, time.Duration(cfg.TTL.S3AndRedis)*time.Second)

	s3Service, err := service.NewS3Service(ctx, &cfg.S3Config)
	if err != nil {
		log.Fatalf("Ошибка создания S3 сервиса: %v", err)
	}

	auditService := service.NewAuditService(auditRepo)
	fileService := service.NewFileService(fileRepo, cacheRepo, s3Service, auditService, &cfg.TTL)
	shareService := service.NewShareService(fileRepo, linkShareRepo, userShareRepo, userRepo, auditService, cacheRepo, s3Service, &cfg.TTL)
	deletionService := service.NewDeletionService(fileRepo, linkShareRepo, userShareRepo, auditRepo, userRepo, jwtRepo, auditService, cacheRepo, s3Service)

	jwtService := security.NewJWTService(&cfg.JWT)
	userService := service.NewUserService(userRepo, jwtService, jwtRepo, deletionService, auditService, &cfg.Admin)
	authService := service.NewAuthenticationService(jwtRepo, cfg, jwtService, userRepo)

	authHandler := handler.NewAuthenticationHandler(authService, jwtService, jwtRepo, []byte(cfg.JWT.SecretKey))
	fileHandler := handler.NewFileHandler(fileService, deletionService)
	shareHandler := handler.NewShareHandler(shareService)
	userHandler := handler.NewUserHandler(userService)

	router.Use(config.DBMiddleware(db))
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Handle("/metrics", promhttp.Handler())

	setupAuthRoutes(router, authHandler, jwtService, jwtRepo, cfg)
	setupUserRoutes(router, userHandler, jwtService, jwtRepo, cfg)
	setupFileRoutes(router, fileHandler, shareHandler, jwtService, jwtRepo, cfg)

	runServer(ctx, srv)
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, jwtService *security.JWTService, jwtRepo *repository.JWTRepository, cfg *config.AppConfig) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtRepo, jwtService, cfg.Admin.AdminToken))
			r.Get("/me", h.GetCurrentUsersUUID)
			r.Head("/me", h.GetCurrentUsersUUIDHead)
			r.Post("/refresh", h.RefreshToken)
		})
		r.Group(func(r chi.Router) {
			r.Post("/", h.Login)
			r.Delete("/{token}", h.Logout)
		})
	})
}

func setupUserRoutes(r chi.Router, h *handler.UserHandler, jwtService *security.JWTService, jwtRepo *repository.JWTRepository, cfg *config.AppConfig) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.RegisterUser)

		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtRepo, jwtService, cfg.Admin.AdminToken))

			r.Get("/users", h.ListUsers)
			r.Head("/users", h.ListUsersHead)

			r.Route("/users/{uuid}", func(r chi.Router) {
				r.Get("/", h.GetUser)
				r.Head("/", h.GetUserHead)
				r.Put("/", h.UpdateUser)
				r.Put("/password", h.UpdatePassword)
			})

			r.Delete("/users/{uuid}", h.DeleteUser)
		})
	})
}

func setupFileRoutes(r chi.Router, fh *handler.FileHandler, sh *handler.ShareHandler, jwtService *security.JWTService, jwtRepo *repository.JWTRepository, cfg *config.AppConfig) {
	r.Route("/api/files", func(r chi.Router) {
		r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtRepo, jwtService, cfg.Admin.AdminToken))
		r.Get("/", fh.ListFiles)
		r.Post("/", fh.CreateFile)

		r.Route("/{uuid}", func(r chi.Router) {
			r.Get("/", fh.GetFile)
			r.Head("/", fh.GetFileHead)
			r.Put("/name", fh.RenameFile)
			r.Put("/category", fh.MoveFile)
			r.Delete("/", fh.DeleteFile)
			r.Get("/history", fh.FileHistory)

			r.Get("/shares", sh.ListFileShares)
			r.Delete("/shares", sh.RevokeAllShares)
			r.Post("/shares/link", sh.CreateLinkShare)
			r.Post("/shares/user", sh.CreateUserShare)
		})
	})

	r.Route("/api/shares", func(r chi.Router) {
		r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtRepo, jwtService, cfg.Admin.AdminToken))
		r.Delete("/link/{share_uuid}", sh.RevokeLinkShare)
		r.Delete("/user/{share_uuid}", sh.RevokeUserShare)
	})

	r.Route("/api/shared", func(r chi.Router) {
		r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtRepo, jwtService, cfg.Admin.AdminToken))
		r.Get("/", sh.ListSharedWithMe)
		r.Post("/{uuid}/download", sh.ConsumeUserShare)
	})

	// Публичный маршрут: токен сам по себе является авторизацией
	r.Post("/public/shares/{token}", sh.ConsumeLinkShare)
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
