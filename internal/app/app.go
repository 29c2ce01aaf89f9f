package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"notification-service/internal/attributes"
	"notification-service/internal/config"
	"notification-service/internal/correlation"
	"notification-service/internal/inbox"
	"notification-service/internal/localization"
	"notification-service/internal/orders"
	"notification-service/internal/services"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// App holds the storage clients and services built from a Config.
type App struct {
	Config        *config.Config
	DB            *sql.DB
	Redis         *redis.Client
	Orders        *orders.SQLRepository
	Attributes    attributes.Store
	Correlations  *correlation.Store
	Recorder      *services.CorrelationRecorder
	Matcher       *services.Matcher
	Annotator     *services.Annotator
	Inbox         inbox.Inbox
	Notifications *services.NotificationService

	sqlAttributes *attributes.SQLStore
}

func New(cfg *config.Config) (*App, error) {
	switch cfg.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MinIdleConns: 20,
		MaxRetries:   1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		IdleTimeout:  2 * time.Minute,
	})

	a := &App{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Orders: orders.NewSQLRepository(db),
	}

	if cfg.Attributes == "redis" {
		a.Attributes = attributes.NewRedisStore(redisClient)
	} else {
		a.sqlAttributes = attributes.NewSQLStore(db)
		a.Attributes = a.sqlAttributes
	}

	// one locker guards both the correlation record and the order state;
	// they use different keys
	var locker correlation.Locker
	switch cfg.Locking {
	case config.LockingLocal:
		locker = correlation.NewKeyedMutex()
	case config.LockingRedis:
		locker = correlation.NewRedisLocker(redisClient, cfg.LockTTL)
	}

	opts := []correlation.Option{}
	serviceOpts := []services.ServiceOption{}
	if locker != nil {
		opts = append(opts, correlation.WithLocker(locker))
		serviceOpts = append(serviceOpts, services.WithOrderLocker(locker))
	}
	if cfg.RefundIndex {
		opts = append(opts, correlation.WithRefundIndex(correlation.NewRedisRefundIndex(redisClient, cfg.SystemName)))
	}
	a.Correlations = correlation.NewStore(a.Attributes, cfg.SystemName, opts...)

	catalog, err := localization.DefaultCatalog()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Recorder = services.NewCorrelationRecorder(a.Correlations)
	a.Matcher = services.NewMatcher(a.Orders, a.Correlations, cfg.SystemName)
	a.Annotator = services.NewAnnotator(a.Orders, catalog.For(cfg.Language), services.AnnotatorOptions{
		Enabled:    cfg.AddOrderNotes,
		StoreURL:   cfg.StoreURL,
		SystemName: cfg.SystemName,
	})
	a.Inbox = inbox.NewRedisInbox(redisClient, cfg.ClaimTTL)
	a.Notifications = services.NewNotificationService(a.Matcher, a.Annotator, a.Recorder, a.Orders, a.Inbox, serviceOpts...)

	return a, nil
}

// Ping checks both storage backends.
func (a *App) Ping(ctx context.Context) error {
	if err := a.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := a.Redis.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

// Migrate creates the SQL tables the configured stores need.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.Orders.Migrate(ctx); err != nil {
		return err
	}
	if a.sqlAttributes != nil {
		return a.sqlAttributes.Migrate(ctx)
	}
	return nil
}

func (a *App) Close() error {
	return errors.Join(a.DB.Close(), a.Redis.Close())
}
