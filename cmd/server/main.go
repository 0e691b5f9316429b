package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Nikhilkapkoti/Chat-app/internal/blob"
	"github.com/Nikhilkapkoti/Chat-app/internal/chat"
	"github.com/Nikhilkapkoti/Chat-app/internal/config"
	"github.com/Nikhilkapkoti/Chat-app/internal/db"
	myMiddleware "github.com/Nikhilkapkoti/Chat-app/internal/middleware"
	"github.com/Nikhilkapkoti/Chat-app/internal/user"
)

func main() {
	// 1. Config
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Bad config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// 2. Connect to Database (Platform Layer)
	database, err := db.NewDatabase(cfg.DSN)
	if err != nil {
		log.Fatalf("❌ Failed to connect to DB: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database Schema Initialized")

	// 3. Connect to Redis (user-status store)
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// 4. Initialize User Feature (identity provider)
	userRepo := user.NewRepository(database.Conn)
	userService := user.NewService(userRepo, cfg.JWTSecret)
	userHandler := user.NewHandler(userService)

	// 5. Blob store (uploads)
	blobStore, err := blob.NewDiskStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to init upload dir: %v", err)
	}
	blobHandler := blob.NewHandler(blobStore, logger)

	// 6. Chat Feature: store -> pipeline -> coordinator -> handler
	messageStore := chat.NewPostgresStore(database.Conn)
	statusStore := chat.NewRedisStatusStore(redisClient)
	pipeline := chat.NewPipeline(messageStore, cfg.MaxMessageBytes, blobStore.URLPrefix())
	coordinator := chat.NewCoordinator(pipeline, statusStore, logger)
	chatHandler := chat.NewHandler(coordinator, messageStore, logger, cfg.HistoryPageSize)

	authMiddleware := myMiddleware.NewAuthMiddleware(userService)

	// 7. Define Routes
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Public Routes
	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "index.html")
	})
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(blobStore.Dir()))))

	// Protected Routes (Require JWT)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)
		r.Get("/api/users/search", userHandler.SearchUsers)

		// WebSocket (Real-time)
		r.Get("/ws", chatHandler.ServeWs)

		r.Get("/api/messages", chatHandler.GetHistory)
		r.Get("/api/members", chatHandler.GetMembers)
		r.Post("/api/upload", blobHandler.Upload)
	})

	log.Printf("🚀 Server starting on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}
