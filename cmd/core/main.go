package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mindaid/counseling/internal/app"
	"github.com/mindaid/counseling/internal/config"
	"github.com/mindaid/counseling/internal/notify"
	"github.com/mindaid/counseling/internal/repository"
	"github.com/mindaid/counseling/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Репозитории
	userRepo := repository.NewUserRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	programRepo := repository.NewProgramRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	surveyRepo := repository.NewSurveyRepository(pool)

	notifier := notify.NewLogNotifier(logger)

	// Сервисы ядра
	availability := service.NewAvailabilityService(userRepo, appointmentRepo, programRepo, logger)
	booking := service.NewAppointmentService(userRepo, appointmentRepo, availability, notifier, logger)
	programs := service.NewProgramService(userRepo, programRepo, enrollmentRepo, surveyRepo, notifier, logger, cfg.EnrollRetryLimit)

	core := app.NewCore(availability, booking, programs, appointmentRepo, notifier, logger)
	core.Start(ctx)
	defer core.Stop()

	logger.Info("Counseling core started",
		zap.String("environment", cfg.Environment),
		zap.Int("enroll_retry_limit", cfg.EnrollRetryLimit),
	)

	// Ждём сигнал остановки
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down")
}
