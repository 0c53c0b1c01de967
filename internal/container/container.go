package container

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/config"
	"github.com/ChaoPei/flasky/internal/application"
	"github.com/ChaoPei/flasky/internal/domain/repository"
	"github.com/ChaoPei/flasky/internal/infrastructure/memory"
	"github.com/ChaoPei/flasky/internal/infrastructure/postgres"
	"github.com/ChaoPei/flasky/internal/infrastructure/search"
	"github.com/ChaoPei/flasky/pkg/helpers"
	"github.com/ChaoPei/flasky/pkg/mailer"
)

// Infra is the set of external clients an App runs on. Everything except
// Store may be nil; the matching feature is then switched off.
type Infra struct {
	Store  repository.Store
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	GCS    *storage.Client
	ES     *elasticsearch.Client
	Rabbit *helpers.RabbitPublisher

	// Mailer overrides the queue/log dispatcher choice.
	Mailer application.Mailer
	Now    application.Clock
}

// App holds the configured services and the clients behind them. It is
// built once at startup and passed to whoever needs it.
type App struct {
	Config *config.Config
	Logger *logrus.Logger

	Store  repository.Store
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	GCS    *storage.Client
	ES     *elasticsearch.Client
	Rabbit *helpers.RabbitPublisher

	JWT     *helpers.JWTManager
	Tokens  *helpers.ActionTokens
	Cookies *helpers.SessionCookies
	Mailer  application.Mailer
	Indexer application.Indexer
	Avatars application.AvatarStore

	Auth    *application.AuthService
	Users   *application.UserService
	Follows *application.FollowService
	Posts   *application.PostService
}

// NewApp wires services on top of already opened infrastructure.
func NewApp(cfg *config.Config, logger *logrus.Logger, infra Infra) *App {
	a := &App{
		Config: cfg,
		Logger: logger,
		Store:  infra.Store,
		Pool:   infra.Pool,
		Redis:  infra.Redis,
		GCS:    infra.GCS,
		ES:     infra.ES,
		Rabbit: infra.Rabbit,
	}

	a.JWT = helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	a.Tokens = helpers.NewActionTokens(cfg.SecretKey)
	a.Cookies = helpers.NewSessionCookies(cfg.CookieDomain, cfg.CookieSecure)
	if infra.Now != nil {
		a.JWT.Now = infra.Now
		a.Tokens.Now = infra.Now
		a.Cookies.Now = infra.Now
	}

	switch {
	case infra.Mailer != nil:
		a.Mailer = infra.Mailer
	case cfg.MailSendEnabled && infra.Rabbit != nil:
		a.Mailer = mailer.NewQueueDispatcher(infra.Rabbit, cfg.MailSubjectPrefix)
	default:
		a.Mailer = &mailer.LogDispatcher{Logger: logger, SubjectPrefix: cfg.MailSubjectPrefix}
	}

	// assigned only when backed, so the services see a nil interface otherwise
	if infra.ES != nil {
		a.Indexer = search.NewIndexer(infra.ES, cfg.ESUsersIndex, cfg.ESPostsIndex, logger)
	}
	if infra.GCS != nil && cfg.GCSBucket != "" {
		a.Avatars = helpers.NewAvatarUploader(infra.GCS, cfg.GCSBucket)
	}

	a.Auth = &application.AuthService{
		Store:    a.Store,
		Tokens:   a.Tokens,
		JWT:      a.JWT,
		Redis:    a.Redis,
		Mailer:   a.Mailer,
		Indexer:  a.Indexer,
		Logger:   logger,
		Settings: application.SettingsFromConfig(cfg),
		Now:      infra.Now,
	}
	a.Follows = &application.FollowService{
		Store:   a.Store,
		Now:     infra.Now,
		PerPage: cfg.FollowersPerPage,
	}
	a.Users = &application.UserService{
		Store:        a.Store,
		Follows:      a.Follows,
		Redis:        a.Redis,
		Avatars:      a.Avatars,
		Indexer:      a.Indexer,
		Logger:       logger,
		Now:          infra.Now,
		PostsPerPage: cfg.PostsPerPage,
	}
	a.Posts = &application.PostService{
		Store:           a.Store,
		Indexer:         a.Indexer,
		Logger:          logger,
		Now:             infra.Now,
		PostsPerPage:    cfg.PostsPerPage,
		CommentsPerPage: cfg.CommentsPerPage,
	}
	return a
}

// OpenStore returns the configured store with migrations applied and the
// default roles seeded. pool is nil for the memory driver.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.Store, *pgxpool.Pool, error) {
	var (
		store repository.Store
		pool  *pgxpool.Pool
	)
	switch cfg.StoreDriver {
	case "memory":
		store = memory.New()
		logger.Warn("using the in-memory store; data is lost on restart")
	case "postgres", "":
		if err := postgres.MigrateUp(cfg.PostgresDSN(), logger); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		p, err := postgres.NewPool(ctx, postgres.PoolConfig{
			DSN:             cfg.PostgresDSN(),
			AppName:         cfg.AppName,
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		pool = p
		store = postgres.NewStore(p)
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if _, err := application.SeedRoles(ctx, store); err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, nil, fmt.Errorf("seed roles: %w", err)
	}
	return store, pool, nil
}

// Build opens the configured infrastructure and returns the wired App with
// a cleanup func that closes what was opened. Only the store is mandatory;
// Redis, GCS, Elasticsearch and RabbitMQ are logged and skipped when they
// cannot be reached.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, pool, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, func() {}, err
	}
	if pool != nil {
		closers = append(closers, pool.Close)
	}
	infra := Infra{Store: store, Pool: pool}

	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			logger.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable; sessions and rate limits disabled")
			_ = rdb.Close()
		} else {
			closers = append(closers, func() { _ = rdb.Close() })
			infra.Redis = rdb
		}
	}

	if cfg.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("gcs unavailable; avatar upload disabled")
		} else {
			closers = append(closers, func() { _ = gcs.Close() })
			infra.GCS = gcs
		}
	}

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err == nil {
			err = helpers.PingES(ctx, es)
		}
		if err != nil {
			logger.WithError(err).WithField("addrs", addrs).Warn("elasticsearch unavailable; search disabled")
		} else {
			infra.ES = es
		}
	}

	if cfg.MailSendEnabled && cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; outgoing mail is logged only")
		} else {
			closers = append(closers, pub.Close)
			infra.Rabbit = pub
		}
	}

	return NewApp(cfg, logger, infra), cleanup, nil
}
