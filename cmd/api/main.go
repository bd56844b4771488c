package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/amirasyraf/edugrade-api/internal/config"
	"github.com/amirasyraf/edugrade-api/internal/database"
	"github.com/amirasyraf/edugrade-api/internal/extract"
	"github.com/amirasyraf/edugrade-api/internal/handler"
	"github.com/amirasyraf/edugrade-api/internal/middleware"
	"github.com/amirasyraf/edugrade-api/internal/models"
	"github.com/amirasyraf/edugrade-api/internal/repository"
	"github.com/amirasyraf/edugrade-api/internal/router"
	"github.com/amirasyraf/edugrade-api/internal/service"
	"github.com/amirasyraf/edugrade-api/pkg/ai"
	cloud "github.com/amirasyraf/edugrade-api/pkg/cloudinary"
	"github.com/amirasyraf/edugrade-api/pkg/ocr"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Assignment{},
		&models.Submission{},
		&models.SubmissionFile{},
		&models.GradeHistory{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, continuing without cache and upload guard")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	blobs, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	var (
		textEvaluator  ai.TextEvaluator
		imageEvaluator ai.ImageEvaluator
		recognizer     extract.Recognizer
	)
	if cfg.OpenAIAPIKey != "" {
		evaluator, err := ai.NewOpenAIEvaluator(ai.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.EvaluationTimeout,
			Logger:  logger,
		})
		if err != nil {
			log.Fatalf("failed to create openai evaluator: %v", err)
		}
		textEvaluator = evaluator
		imageEvaluator = evaluator

		ocrClient, err := ocr.New(ocr.Config{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OCRModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create ocr client: %v", err)
		}
		recognizer = ocrClient
	} else {
		logger.Warn().Msg("no openai key configured, AI evaluation and OCR disabled")
	}

	dispatcher := extract.NewDispatcher(recognizer, logger)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, continuing without cross-node events")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	eventService := service.NewEventService(redisClient, cfg.EventChannelBase, natsConn, logger)
	eventService.Start(shutdownCtx)

	activityService := service.NewActivityService(activityRepo, logger)
	progressService := service.NewProgressService(assignmentRepo, submissionRepo, redisClient, logger)
	submissionService := service.NewSubmissionService(
		submissionRepo, assignmentRepo, blobs, dispatcher,
		textEvaluator, imageEvaluator, eventService, progressService,
		redisClient, validate, logger,
	)
	gradingService := service.NewGradingService(
		submissionRepo, activityService, eventService, progressService,
		validate, cfg.DisagreementThreshold, logger,
	)
	assignmentService := service.NewAssignmentService(
		assignmentRepo, submissionRepo, blobs, activityService, eventService, validate, logger,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    25 << 20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:    handler.NewGradingHandler(gradingService, activityService, logger),
		ProgressHandler:   handler.NewProgressHandler(progressService, logger),
		EventsHandler:     handler.NewEventsHandler(eventService, logger, cfg.SSEKeepAlive),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
