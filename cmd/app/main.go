package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ogulyaev/todo-api/internal/config"
	"github.com/ogulyaev/todo-api/internal/handler"
	"github.com/ogulyaev/todo-api/internal/mail"
	"github.com/ogulyaev/todo-api/internal/metrics"
	"github.com/ogulyaev/todo-api/internal/notify"
	"github.com/ogulyaev/todo-api/internal/repo"
	"github.com/ogulyaev/todo-api/internal/service"
	"github.com/ogulyaev/todo-api/migrations"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Накатываем миграции перед стартом
	if err := runMigrations(cfg.Database.URL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Подключаем БД
	pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to Database.") // Fatal потому что дальнейшая работа теряет смысл
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("Failed to ping the Database.")
	}
	logger.Info("Successfully connected to the Database!")

	taskRepo := repo.NewTaskRepo(pool)
	userRepo := repo.NewUserRepo(pool)
	taskService := service.NewTaskService(taskRepo)
	taskHandler := handler.NewTaskHandler(taskService, logger)

	// Почтовый коллаборатор: без настроек SMTP рассылка деградирует
	// до поштучных ошибок отправки, но выборка продолжает работать
	var mailer notify.Mailer
	if cfg.SMTP.Configured() {
		smtp, err := mail.NewSMTP(cfg.SMTP, logger)
		if err != nil {
			logger.Error("Failed to set up SMTP client, mail disabled", zap.Error(err))
			mailer = mail.Disabled{}
		} else {
			mailer = smtp
		}
	} else {
		logger.Warn("SMTP not configured, reminder delivery disabled")
		mailer = mail.Disabled{}
	}

	registry := prometheus.NewRegistry()
	notifyMetrics := metrics.NewNotifications(registry)

	clock := notify.SystemClock{}
	selector := notify.NewSelector(taskRepo, userRepo, logger)
	dispatcher := notify.NewDispatcher(mailer, logger, cfg.Notify.Workers)
	notifier := notify.NewNotifier(selector, dispatcher, clock, notifyMetrics, logger)

	scheduler := notify.NewScheduler(clock, cfg.Notify.Hour, cfg.Notify.Minute, notifier.Job(), logger)
	scheduler.Start(context.Background())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(handler.WithUser(userRepo, logger))

		r.Route("/api/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.Create)
			r.Get("/", taskHandler.List)
			r.Get("/{id}", taskHandler.Get)
			r.Patch("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})
		r.Get("/api/stats", taskHandler.Stats)
	})

	srv := http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started at ", zap.String("port", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error: ", zap.Error(err))
	}
	logger.Info("Server stopped succsessfully!")
}

func runMigrations(dbURL string) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
