package cli

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"

	"github.com/taskdesk/todo-service/internal/api"
	"github.com/taskdesk/todo-service/internal/api/handler"
	"github.com/taskdesk/todo-service/internal/api/middleware"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/core/realtime"
	"github.com/taskdesk/todo-service/internal/core/service"
	"github.com/taskdesk/todo-service/internal/infrastructure/awsclient"
	mongodb "github.com/taskdesk/todo-service/internal/infrastructure/db/mongo"
	redisdb "github.com/taskdesk/todo-service/internal/infrastructure/db/redis"
	"github.com/taskdesk/todo-service/internal/infrastructure/identity"
	"github.com/taskdesk/todo-service/internal/infrastructure/notifier"
	"github.com/taskdesk/todo-service/internal/infrastructure/queue"
	s3store "github.com/taskdesk/todo-service/internal/infrastructure/storage/s3"
	"github.com/taskdesk/todo-service/internal/pkg/config"
	"github.com/taskdesk/todo-service/pkg/logger"
)

// app is the fully wired server.
type app struct {
	deps     api.Deps
	registry *realtime.Registry
	reaper   *realtime.Reaper
	authBus  *redisdb.AuthEventBus
	limiter  *middleware.RateLimiter
	close    func(context.Context)
}

func mongoConfig(cfg *config.Config) mongodb.Config {
	return mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: "todo-service"}
}

// wireApp connects the backing stores and builds every service. ctx bounds
// the change-feed workers and subscriptions.
func wireApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	mongoClient, db, err := mongodb.Connect(ctx, mongoConfig(cfg))
	if err != nil {
		return nil, wrap("connect mongo", err)
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, wrap("connect redis", err)
	}
	closeAll := func(ctx context.Context) {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		closeAll(ctx)
		return nil, wrap("ensure indexes", err)
	}

	awsCfg, err := awsclient.Load(ctx, awsclient.Options{
		Region:      cfg.AWS.Region,
		AccessKeyID: cfg.AWS.AccessKeyID,
		SecretKey:   cfg.AWS.SecretKey,
	})
	if err != nil {
		closeAll(ctx)
		return nil, wrap("load aws config", err)
	}

	loc := cfg.Location()
	clock := service.SystemClock(loc)
	users := mongodb.NewUserRepository(db)
	todos := mongodb.NewTodoRepository(db)
	sessions := redisdb.NewSessionStore(rdb)

	publisher, feed := changeFeed(ctx, cfg, db, rdb)

	var verifier ports.IdentityVerifier
	if cfg.Auth.GoogleClientID != "" {
		verifier = identity.NewGoogleVerifier(cfg.Auth.GoogleClientID)
	} else {
		log.Info().Msg("GOOGLE_CLIENT_ID not set, federated sign-in disabled")
	}

	var resetNotifier ports.ResetNotifier
	if cfg.Notify.ResetTopicARN != "" {
		resetNotifier = notifier.NewSNSNotifier(awsCfg, cfg.AWS.EndpointURL, cfg.Notify.ResetTopicARN, logger.Component("notifier"))
	} else {
		resetNotifier = notifier.NewLogNotifier(logger.Component("notifier"))
	}

	avatars := s3store.NewStore(
		s3store.NewClient(awsCfg, cfg.AWS.EndpointURL),
		cfg.Storage.Bucket, cfg.AWS.Region, cfg.AWS.EndpointURL, cfg.Storage.PublicBaseURL,
	)

	events := service.NewStateFeed()
	authService := service.NewAuthService(service.AuthDeps{
		Users:    users,
		Sessions: sessions,
		Resets:   sessions,
		Verifier: verifier,
		Notifier: resetNotifier,
		Events:   events,
		Clock:    clock,
	}, service.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
		ResetTTL:  cfg.Auth.ResetTTL,
		ResetURL:  cfg.Auth.ResetURL,
	}, logger.Component("auth"))

	registry := realtime.NewRegistry(ctx, users, realtime.NewDeriver(todos, clock), feed, logger.Component("realtime"))
	unsubscribe := events.Subscribe(registry.HandleAuthEvent)
	authBus := redisdb.NewAuthEventBus(rdb, logger.Component("auth-events"))
	unforward := events.Subscribe(authBus.Forward)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.HTTP.AuthRateLimit), cfg.HTTP.AuthRateBurst)

	return &app{
		deps: api.Deps{
			Auth:     authService,
			Todos:    service.NewTodoService(todos, publisher, clock, logger.Component("todos")),
			Profile:  service.NewProfileService(users, avatars, events, cfg.Storage.MaxAvatarBytes, logger.Component("profile")),
			Admin:    service.NewAdminService(users, events, logger.Component("admin")),
			Sessions: registry,
			Readiness: map[string]handler.Pinger{
				"mongo": mongodb.Ping(mongoClient),
				"redis": redisdb.Ping(rdb),
			},
			Location:       loc,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			AuthLimiter:    limiter,
			Log:            logger.Component("http"),
		},
		registry: registry,
		reaper:   realtime.NewReaper(registry, sessions, cfg.Auth.SweepInterval, logger.Component("reaper")),
		authBus:  authBus,
		limiter:  limiter,
		close: func(ctx context.Context) {
			unforward()
			unsubscribe()
			closeAll(ctx)
		},
	}, nil
}

// changeFeed selects the change-feed transport. With redis, mutations are
// published through the sharded dispatcher; with mongo, change streams carry
// them and the service publishes nothing itself.
func changeFeed(ctx context.Context, cfg *config.Config, db *mongo.Database, rdb *goredis.Client) (ports.ChangePublisher, ports.ChangeFeed) {
	if cfg.ChangeFeed.Driver == config.ChangeFeedMongo {
		return mongodb.NopPublisher{}, mongodb.NewChangeFeed(db, logger.Component("changefeed"))
	}

	dispatcher := queue.NewDispatcher(cfg.ChangeFeed.Workers, redisdb.NewPublisher(rdb), logger.Component("dispatcher"))
	dispatcher.Start(ctx)
	return dispatcher, redisdb.NewChangeFeed(rdb, logger.Component("changefeed"))
}
