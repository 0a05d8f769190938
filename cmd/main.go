package main

import (
	"context"
	"net/http"
	"time"

	"mentorchat/backend/internal/api/handler"
	"mentorchat/backend/internal/chathub"
	"mentorchat/backend/internal/config"
	"mentorchat/backend/internal/models"
	"mentorchat/backend/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{})
	}
	return log
}

func setupDependencies(cfg *config.Config, log *logrus.Logger) (*gorm.DB, *redis.Client) {
	// TranslateError turns unique violations into gorm.ErrDuplicatedKey,
	// which the chat resolver relies on to arbitrate creation races.
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.Party{},
		&models.Chat{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := newLogger(cfg)
	log.Println("Starting MentorChat Backend...")

	db, rdb := setupDependencies(cfg, log)
	s := storage.NewStorageService(db, rdb, log)

	registry := chathub.NewPresenceRegistry()
	resolver := chathub.NewChatResolver(s, log)
	router := chathub.NewDeliveryRouter(registry, resolver, s, log)
	hub := chathub.NewManagerService(registry, router, s, log)

	go hub.Run()

	r := gin.Default()
	r.Use(cors.Default())
	h := handler.NewHandler(hub, s, log)

	r.GET("/", h.Health)
	r.GET("/ws", h.ServeWebSocket)
	r.GET("/list/:partyID", h.ListChats)
	r.GET("/history/:chatID", h.ChatHistory)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
