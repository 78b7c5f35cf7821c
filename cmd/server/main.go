package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/postcaldev/postcal/configs"
	"github.com/postcaldev/postcal/internal/adapters"
	"github.com/postcaldev/postcal/internal/api/handlers"
	"github.com/postcaldev/postcal/internal/api/middleware"
	"github.com/postcaldev/postcal/internal/apperrors"
	"github.com/postcaldev/postcal/internal/dispatcher"
	job "github.com/postcaldev/postcal/internal/jobs"
	"github.com/postcaldev/postcal/internal/queue"
	"github.com/postcaldev/postcal/internal/repository"
	"github.com/postcaldev/postcal/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			status := fiber.StatusInternalServerError
			switch {
			case apperrors.IsValidation(err):
				status = fiber.StatusBadRequest
			case apperrors.IsNotFound(err):
				status = fiber.StatusNotFound
			case apperrors.IsConflict(err):
				status = fiber.StatusConflict
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Api-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	clientRepo := repository.NewClientRepository(db)
	postRepo := repository.NewPostRepository(db)
	taskRepo := repository.NewDeliveryTaskRepository(db)
	accountRepo := repository.NewPlatformAccountRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)

	r2Service := service.NewR2Service(*cfg)
	postService := service.NewPostService(db, clientRepo, postRepo, taskRepo, mediaAssetRepo, r2Service)
	registryService := service.NewRegistryService(*cfg, accountRepo)
	taskViewService := service.NewTaskViewService(taskRepo)

	adapterSet := adapters.NewSet(*cfg)
	schedulingQueue := queue.NewQueue(taskRepo, cfg.Dispatcher)
	disp := dispatcher.New(schedulingQueue, registryService, postRepo, adapterSet, cfg.Dispatcher)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, clientRepo)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/remove", post.RemovePost)
	api.Post("/posts/reschedule", post.ReschedulePost)

	queueView := handlers.NewQueueHandler(taskViewService)
	api.Get("/queue", queueView.ListQueued)
	api.Get("/published", queueView.ListPublished)

	account := handlers.NewAccountHandler(registryService)
	api.Get("/accounts", account.ListAccounts)
	api.Post("/accounts/connect", account.ConnectAccount)
	api.Post("/accounts/remove", account.RemoveAccount)

	clientInfo := handlers.NewClientHandler(clientRepo, *cfg)
	api.Get("/clients/:id", clientInfo.GetClient)
	api.Post("/clients/session", clientInfo.IssueSession)
	api.Post("/clients/rotate-key", clientInfo.RotateApiKey)

	// cron jobs: the dispatcher poll loop and the account expiry sweep
	expiryJob := job.NewAccountExpiryJob(registryService)

	c := cron.New()
	c.AddFunc(fmt.Sprintf("@every %ds", cfg.Dispatcher.PollIntervalSeconds), func() {
		disp.RunCycle(context.Background())
	})
	c.AddFunc("@every 00h10m00s", expiryJob.SweepExpired)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: cfg.Dispatcher.Workers,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeDispatch, queue.NewWorker(disp).HandleDispatchTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
