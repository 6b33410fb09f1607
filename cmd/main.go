package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"datelink/backend/internal/api/handler"
	"datelink/backend/internal/chathub"
	"datelink/backend/internal/config"
	"datelink/backend/internal/models"
	"datelink/backend/internal/notify"
	"datelink/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Token{},
		&models.Message{},
		&models.MediaFile{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting Datelink Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, rdb := setupDependencies(cfg)
	s := storage.NewService(db, rdb)

	hub := chathub.NewHub(s)

	if cfg.TelegramBotToken != "" {
		notifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, s)
		if err != nil {
			log.Fatalf("Failed to start Telegram notifier: %v", err)
		}
		hub.SetNotifier(notifier)
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set, offline notifications disabled")
	}

	go hub.Run()
	go hub.ListenNewUsers()

	r := gin.Default()
	h := handler.NewHandler(hub, s, cfg)

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.AuthRequired(), h.Logout)
	auth.GET("/verify", h.AuthRequired(), h.Verify)

	users := api.Group("/users", h.AuthRequired())
	users.GET("/profile", h.Profile)
	users.PUT("/profile", h.UpdateProfile)
	users.GET("/:id", h.UserProfile)
	users.POST("/search", h.SearchUsers)

	messages := api.Group("/messages", h.AuthRequired())
	messages.GET("/conversations", h.ListConversations)
	messages.GET("/conversation/:userId", h.GetConversation)
	messages.POST("/send", h.SendMessage)

	r.GET("/ws", h.ServeWebSocket)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
