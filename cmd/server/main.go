package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/avatar"
	"github.com/iliyamo/contacts-api/internal/cache"
	"github.com/iliyamo/contacts-api/internal/config"
	"github.com/iliyamo/contacts-api/internal/database"
	"github.com/iliyamo/contacts-api/internal/handler"
	"github.com/iliyamo/contacts-api/internal/mailer"
	"github.com/iliyamo/contacts-api/internal/queue"
	"github.com/iliyamo/contacts-api/internal/repository"
	"github.com/iliyamo/contacts-api/internal/router"
	"github.com/iliyamo/contacts-api/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	contacts := repository.NewContactRepo(db)

	// A nil Redis client disables the user cache without disabling the app.
	redisClient := config.NewRedisClient()
	if redisClient == nil {
		log.Println("redis unavailable; user cache disabled")
	}
	userCache := cache.NewUserCache(redisClient)

	var uploader storage.Uploader
	if cfg.CloudinaryName != "" {
		uploader, err = storage.NewCloudinaryUploader(cfg.CloudinaryName, cfg.CloudinaryKey, cfg.CloudinarySecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
	} else {
		log.Println("cloudinary not configured; avatar uploads disabled")
	}

	// Confirmation mail is delivered out of band by the queue consumer.
	if cfg.MailHost != "" {
		m := mailer.New(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)
		go queue.NewEmailConsumer(cfg.JWTSecret, m).Start()
	} else {
		log.Println("smtp not configured; confirmation mail disabled")
	}

	e := echo.New()
	e.Validator = handler.NewValidator()

	authHandler := handler.NewAuthHandler(cfg, users, userCache, avatar.NewGravatar())
	contactHandler := handler.NewContactHandler(contacts)
	userHandler := handler.NewUserHandler(users, userCache, uploader)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler)
	router.RegisterProtected(e, contactHandler, userHandler, cfg.JWTSecret, users, userCache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
