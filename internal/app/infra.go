package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/crowdship-backend/internal/config"
	"github.com/ignatzorin/crowdship-backend/internal/db"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/infrastructure/cache"
	"github.com/ignatzorin/crowdship-backend/internal/infrastructure/events"
	"github.com/ignatzorin/crowdship-backend/internal/infrastructure/queue"
	"github.com/ignatzorin/crowdship-backend/internal/infrastructure/storage"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
)

// Infra внешние подключения процесса. Redis, очередь и Kafka
// необязательны: поля остаются nil, если интеграция не настроена.
type Infra struct {
	DB        *sqlx.DB
	Redis     *redis.Client
	Queue     *asynq.Client
	Publisher *events.KafkaPublisher
	Storage   repository.PhotoStorage
}

type OpenOptions struct {
	// Storage подключать хранилище фотографий (нужно только API).
	Storage bool
}

// Open подключается к базе и настроенным интеграциям.
func Open(ctx context.Context, cfg *config.Config, opts OpenOptions) (*Infra, error) {
	conn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.DefaultPool)
	if err != nil {
		return nil, err
	}
	infra := &Infra{DB: conn}

	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Redis = client
		infra.Queue = asynq.NewClient(queue.RedisOpt(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))
	} else {
		logger.Log.Warn("REDIS_ADDR не задан: ключи идемпотентности хранятся в памяти, фоновое истечение матчей отключено")
	}

	if cfg.Kafka.Enabled() {
		infra.Publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, events.Topics{
			Match:   cfg.Kafka.MatchTopic,
			Payment: cfg.Kafka.PaymentTopic,
		})
	}

	if opts.Storage {
		st, err := openStorage(ctx, cfg.Storage)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Storage = st
	}
	return infra, nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (repository.PhotoStorage, error) {
	switch cfg.Driver {
	case config.StorageS3:
		s3, err := storage.NewS3Storage(storage.S3Options{
			Endpoint:    cfg.S3Endpoint,
			AccessKey:   cfg.S3AccessKey,
			SecretKey:   cfg.S3SecretKey,
			Bucket:      cfg.S3Bucket,
			Region:      cfg.S3Region,
			UseSSL:      cfg.S3UseSSL,
			MaxUploadMB: cfg.MaxUploadMB,
		})
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s3, nil
	case config.StorageLocal:
		return storage.NewLocalStorage(cfg.MediaPath, MediaURLPrefix, cfg.MaxUploadMB)
	default:
		return nil, fmt.Errorf("app: неизвестный драйвер хранилища %q", cfg.Driver)
	}
}

// MediaURLPrefix путь, по которому API раздаёт локально сохранённые фото.
const MediaURLPrefix = "/media"

// Close закрывает подключения в обратном порядке.
func (i *Infra) Close() {
	if i.Publisher != nil {
		if err := i.Publisher.Close(); err != nil {
			logger.Log.WithError(err).Warn("app: ошибка закрытия kafka writer")
		}
	}
	if i.Queue != nil {
		if err := i.Queue.Close(); err != nil {
			logger.Log.WithError(err).Warn("app: ошибка закрытия клиента очереди")
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			logger.Log.WithError(err).Warn("app: ошибка закрытия redis")
		}
	}
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			logger.Log.WithError(err).Warn("app: ошибка закрытия базы")
		}
	}
}
