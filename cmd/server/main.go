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

	"github.com/ignatzorin/crowdship-backend/internal/app"
	"github.com/ignatzorin/crowdship-backend/internal/config"
	"github.com/ignatzorin/crowdship-backend/internal/db"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/goroutine"
	httpRouter "github.com/ignatzorin/crowdship-backend/internal/http/router"
	"github.com/ignatzorin/crowdship-backend/internal/infrastructure/events"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/handler"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}
	initLogger(cfg)

	infra, err := app.Open(ctx, cfg, app.OpenOptions{Storage: true})
	if err != nil {
		logger.Log.WithError(err).Fatal("main: ошибка подключения инфраструктуры")
	}
	defer infra.Close()

	applied, err := db.RunMigrations(ctx, infra.DB, cfg.MigrationsPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("main: ошибка миграций")
	}
	if len(applied) > 0 {
		logger.Log.WithField("migrations", applied).Info("миграции применены")
	}

	// Вебсокеты. При включённой Kafka события приходят в хаб через
	// потребителя, иначе сценарии уведомляют хаб напрямую.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, "ws.hub", hub.Run)

	var notifier repository.Notifier
	if cfg.Kafka.Enabled() {
		consumer := events.NewConsumer(cfg.Kafka.Brokers, relayGroupID(cfg.Kafka.GroupID),
			cfg.Kafka.MatchTopic, cfg.Kafka.PaymentTopic)
		relay := ws.NewEventRelay(hub)
		goroutine.SafeGoWithContext(ctx, "events.relay", func(ctx context.Context) {
			if err := consumer.Run(ctx, relay.Handle); err != nil {
				logger.Log.WithError(err).Error("main: потребитель событий остановлен")
			}
		})
	} else {
		notifier = hub
	}

	uc := app.NewUseCases(cfg, infra, app.NewRepositories(infra), notifier)

	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Auth:     handler.NewAuthHandler(uc.Auth, uc.Profile),
		User:     handler.NewUserHandler(uc.Profile, uc.ListRatings),
		Parcel:   handler.NewParcelHandler(uc.CreateParcel, uc.GetParcel, uc.ListParcels, uc.ParcelStatus, uc.Tracking, uc.UploadPhoto),
		Travel:   handler.NewTravelHandler(uc.CreateTravel, uc.GetTravel, uc.ListTravels, uc.TravelStatus),
		Matching: handler.NewMatchingHandler(uc.FindMatches, uc.FindTravels, uc.AutoMatch),
		Match: handler.NewMatchHandler(handler.MatchUseCases{
			Create:         uc.CreateMatch,
			Get:            uc.GetMatch,
			List:           uc.ListMatches,
			Negotiate:      uc.Negotiate,
			GetNegotiation: uc.GetNegotiation,
			Accept:         uc.AcceptMatch,
			Reject:         uc.RejectMatch,
			Cancel:         uc.CancelMatch,
		}),
		Payment: handler.NewPaymentHandler(uc.Payments),
		Rating:  handler.NewRatingHandler(uc.CreateRating, uc.ListRatings),
		WS:      handler.NewWSHandler(hub, uc.Tokens, cfg.AllowedOrigins),
		Health:  handler.NewHealthHandler(infra.DB, infra.Redis),
	}, uc.Tokens, infra.Redis)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.WithError(err).Fatal("main: сервер завершился с ошибкой")
	}
}

func initLogger(cfg *config.Config) {
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
		return
	}
	logger.Init("info")
}

// relayGroupID у каждой реплики своя группа, чтобы событие дошло до всех
// подключённых к ней пользователей.
func relayGroupID(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return base
	}
	return base + "-" + host
}
