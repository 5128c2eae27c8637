package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-gate-api/internal/config"
	"github.com/noah-isme/campus-gate-api/internal/cron"
	"github.com/noah-isme/campus-gate-api/internal/database"
	"github.com/noah-isme/campus-gate-api/internal/handler"
	"github.com/noah-isme/campus-gate-api/internal/middleware"
	"github.com/noah-isme/campus-gate-api/internal/models"
	"github.com/noah-isme/campus-gate-api/internal/observability"
	"github.com/noah-isme/campus-gate-api/internal/passtoken"
	"github.com/noah-isme/campus-gate-api/internal/repository"
	"github.com/noah-isme/campus-gate-api/internal/router"
	"github.com/noah-isme/campus-gate-api/internal/service"
	"github.com/noah-isme/campus-gate-api/pkg/mailer"
	"github.com/noah-isme/campus-gate-api/pkg/qrcode"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Teacher{},
		&models.Admin{},
		&models.NonTeachingStaff{},
		&models.GatePass{},
		&models.OTPCode{},
		&models.ActivityLog{},
		&models.BankAccount{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable; gate events go to redis only")
		} else {
			defer natsConn.Drain()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	codec, err := passtoken.NewCodec(cfg.GatePassSecret, passtoken.WithIssuer(cfg.GatePassIssuer))
	if err != nil {
		log.Fatalf("failed to create pass token codec: %v", err)
	}

	var otpMailer service.OTPMailer = service.NewLogOTPMailer(logger, cfg.AppEnv == "development")
	if cfg.MailEnabled() {
		smtp, err := mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create mailer: %v", err)
		}
		otpMailer = service.NewSMTPOTPMailer(smtp, cfg.AppName)
	} else {
		logger.Warn().Msg("smtp not configured; login codes are not emailed")
	}

	studentRepo := repository.NewStudentRepository(db)
	holderRepo := repository.NewHolderStatusRepository(db)
	passRepo := repository.NewGatePassRepository(db)
	identityRepo := repository.NewIdentityRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	studentService := service.NewStudentService(studentRepo, logger)
	directoryService := service.NewDirectoryService(studentRepo, teacherRepo, validate, logger)
	accountService := service.NewAccountService(accountRepo, validate, logger)
	authService := service.NewAuthService(identityRepo, otpRepo, redisClient, otpMailer, validate, logger, service.AuthOptions{
		SessionSecret:  cfg.JWTSecret,
		SessionTTL:     cfg.JWTTTL,
		OTPTTL:         cfg.OTPTTL,
		OTPLength:      cfg.OTPLength,
		OTPMaxAttempts: cfg.OTPMaxAttempts,
		OTPCooldown:    cfg.OTPCooldown,
	})
	gatePassService := service.NewGatePassService(passRepo, studentRepo, holderRepo, codec, validate, logger, service.GatePassOptions{
		Validity: cfg.GatePassValidity,
		QR:       qrcode.New(qrcode.DefaultSize),
		Events:   service.NewGateEventBus(redisClient, natsConn, cfg.GateEventChannel),
		Activity: activityService,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.AllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:           handler.NewAuthHandler(authService, logger),
		StudentHandler:        handler.NewStudentHandler(studentService, logger),
		GatePassHandler:       handler.NewGatePassHandler(gatePassService, logger),
		AdminActivityHandler:  handler.NewAdminActivityHandler(activityService, logger),
		AdminDirectoryHandler: handler.NewAdminDirectoryHandler(directoryService, logger),
		AccountHandler:        handler.NewAccountHandler(accountService, logger),
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
		HealthProbes: map[string]handler.HealthProbe{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler, err := newScheduler(cfg, logger, redisClient, gatePassService, authService)
	if err != nil {
		log.Fatalf("failed to configure background jobs: %v", err)
	}
	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("background jobs stopped")
		}
	}()

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(ctx, app)
}

func newScheduler(cfg config.Config, logger zerolog.Logger, redisClient redis.Cmdable, passes service.GatePassService, auth service.AuthService) (*cron.Service, error) {
	lock, err := cron.NewRedisLock(redisClient, "campus:cron:lock", cfg.GateSweepEvery)
	if err != nil {
		return nil, err
	}
	expiry, err := cron.NewPassExpiryJob(passes, logger)
	if err != nil {
		return nil, err
	}
	cleanup, err := cron.NewOTPCleanupJob(auth, logger)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logger,
		Registry: cron.NewRegistry(expiry, cleanup),
		Lock:     lock,
		Interval: cfg.GateSweepEvery,
	})
}

func waitForShutdown(ctx context.Context, app *fiber.App) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
