package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskhub/internal/ai"
	"taskhub/internal/config"
	"taskhub/internal/httpapi"
	"taskhub/internal/notify"
	"taskhub/internal/repository"
	"taskhub/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	subtaskRepo := repository.NewSubtaskRepository(db)

	suggester := ai.New(ai.Config{
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})

	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	categorySvc := service.NewCategoryService(categoryRepo)
	taskSvc := service.NewTaskService(taskRepo, categoryRepo, suggester)
	subtaskSvc := service.NewSubtaskService(subtaskRepo, taskRepo, categoryRepo, suggester)
	reminderSvc := service.NewReminderService(userRepo, taskRepo)

	server := httpapi.New(authSvc, categorySvc, taskSvc, subtaskSvc)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	if cfg.ReminderInterval > 0 && cfg.TelegramToken != "" {
		telegram, err := notify.NewTelegram(cfg.TelegramToken)
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
		scheduler := service.NewSchedulerService(time.Local)
		if _, err := scheduler.ScheduleInterval(cfg.ReminderInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := reminderSvc.SendDigests(jobCtx, telegram, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("reminder: %v", err)
			}
		}); err != nil {
			log.Fatalf("schedule reminders: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("taskhub listening on %s", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
