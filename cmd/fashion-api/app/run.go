package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	_ "github.com/go-sql-driver/mysql"

	"github.com/thaijunny/fashion-be/configs"
	"github.com/thaijunny/fashion-be/internal/adapter/cache"
	httpadapter "github.com/thaijunny/fashion-be/internal/adapter/http"
	"github.com/thaijunny/fashion-be/internal/adapter/http/middleware"
	"github.com/thaijunny/fashion-be/internal/adapter/kafka"
	"github.com/thaijunny/fashion-be/internal/adapter/memory"
	"github.com/thaijunny/fashion-be/internal/adapter/observ"
	"github.com/thaijunny/fashion-be/internal/adapter/queue"
	"github.com/thaijunny/fashion-be/internal/adapter/repo"
	"github.com/thaijunny/fashion-be/internal/logging"
	"github.com/thaijunny/fashion-be/internal/security"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

// Version is stamped at build time with -ldflags "-X .../app.Version=...".
var Version = "dev"

// App owns the HTTP server, the background workers and everything that
// must be closed on shutdown.
type App struct {
	cfg     configs.Config
	log     *slog.Logger
	server  *http.Server
	workers []func(ctx context.Context)
	closers []func(ctx context.Context)
}

// ports groups the storage-backed implementations selected by storage.driver.
type ports struct {
	tx       usecase.TxManager
	carts    usecase.CartRepo
	products usecase.ProductRepo
	orders   usecase.OrderRepo
	users    usecase.UserRepo
	outbox   usecase.OutboxRepo
	idem     usecase.IdempotencyStore
	cache    usecase.OrderCache
	checks   map[string]httpadapter.Check
}

func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, error) {
	logger := logging.Init(logging.Options{Component: cfg.App.Name, FilePath: cfg.App.LogFile, Level: cfg.App.LogLevel})
	a := &App{cfg: cfg, log: logger}

	shutdownTracing, err := observ.InitTracing(ctx, observ.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.App.Name,
		Version:     Version,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, func(ctx context.Context) { _ = shutdownTracing(ctx) })

	var p ports
	if cfg.UseMySQL() {
		p, err = a.initMySQL(ctx)
	} else {
		p = a.initMemory()
	}
	if err != nil {
		a.close(context.Background())
		return nil, err
	}

	if cfg.Rabbit.Enabled {
		if err := a.initRabbit(p); err != nil {
			a.close(context.Background())
			return nil, err
		}
	}
	if cfg.Kafka.Enabled {
		if err := a.initKafka(p); err != nil {
			a.close(context.Background())
			return nil, err
		}
	}

	// use cases
	placeOrder := usecase.NewPlaceOrder(p.tx, p.carts, p.orders, p.outbox, p.idem,
		usecase.WithVerifyTotal(cfg.Checkout.VerifyTotal))
	updateStatus := usecase.NewUpdateOrderStatus(p.orders, p.cache)
	queries := usecase.NewOrderQueries(p.orders)
	cart := usecase.NewCart(p.carts, p.products)
	tokens := security.NewTokens(security.TokenConfig{
		Secret:   cfg.Security.JWTSecret,
		Issuer:   cfg.Security.Issuer,
		Audience: cfg.Security.Audience,
		TTL:      cfg.Security.TTL,
		Leeway:   30 * time.Second,
	})
	auth := usecase.NewAuth(p.users, security.BcryptHasher{Cost: cfg.Security.BcryptCost}, tokens)

	// init handlers + routers + middleware
	router := httpadapter.NewRouter(httpadapter.Handlers{
		Orders: httpadapter.NewOrderHandler(placeOrder, updateStatus, queries, cfg.HTTP.RequestTimeout),
		Carts:  httpadapter.NewCartHandler(cart, cfg.HTTP.RequestTimeout),
		Auth:   httpadapter.NewAuthHandler(auth),
		Health: httpadapter.NewHealthHandler(p.checks),
		Authz:  middleware.NewAuthz(tokens, auth),
		Logger: logging.New("http"),
	})
	a.server = newServer(cfg, router)
	return a, nil
}

func (a *App) initMySQL(ctx context.Context) (ports, error) {
	cfg := a.cfg
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return ports{}, fmt.Errorf("open mysql: %w", err)
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	a.closers = append(a.closers, func(context.Context) { _ = db.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return ports{}, fmt.Errorf("ping mysql: %w", err)
	}
	if cfg.MySQL.AutoMigrate {
		if err := repo.EnsureSchema(pingCtx, db); err != nil {
			return ports{}, fmt.Errorf("migrate: %w", err)
		}
		a.log.Info("schema ensured")
	}

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, func(context.Context) { _ = rdb.Close() })
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return ports{}, fmt.Errorf("ping redis: %w", err)
	}

	a.log.Info("storage ready", "driver", "mysql")
	return ports{
		tx:       repo.NewTxManager(db),
		carts:    repo.NewMySQLCartRepo(db),
		products: repo.NewMySQLProductRepo(db),
		orders:   repo.NewMySQLOrderRepo(db),
		users:    repo.NewMySQLUserRepo(db),
		outbox:   repo.NewMySQLOutboxRepo(db),
		idem:     cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL, cfg.Checkout.LockTTL),
		cache:    cache.NewRedisCache(rdb, cfg.Cache.TTL),
		checks: map[string]httpadapter.Check{
			"mysql": db.PingContext,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}, nil
}

func (a *App) initMemory() ports {
	store := memory.New()
	a.log.Warn("storage ready", "driver", "memory")
	return ports{
		tx:       store,
		carts:    store.Carts(),
		products: store.Products(),
		orders:   store.Orders(),
		users:    store.Users(),
		outbox:   store.Outbox(),
		idem:     store.KV(),
		cache:    store.KV(),
		checks:   map[string]httpadapter.Check{"memory": func(context.Context) error { return nil }},
	}
}

// initRabbit relays the outbox to the exchange and consumes order.placed.
// Publisher and consumer use separate channels on one connection.
func (a *App) initRabbit(p ports) error {
	cfg := a.cfg
	conn, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) { _ = conn.Close() })

	pubCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open publish channel: %w", err)
	}
	producer, err := queue.NewRabbitProducer(pubCh, cfg.Rabbit.Exchange)
	if err != nil {
		return err
	}
	relay := queue.NewOutboxRelay(p.outbox, producer, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)
	a.workers = append(a.workers, relay.Run)

	subCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	router := queue.NewRouter(subCh, queue.WithPrefetch(cfg.Rabbit.Prefetch))
	router.Register(queue.OrderPlacedQueue, queue.NewOrderPlacedHandler(p.cache))
	a.workers = append(a.workers, func(ctx context.Context) {
		if err := router.Start(ctx); err != nil {
			a.log.Error("rabbitmq consumer failed to start", "error", err)
			return
		}
		router.Wait()
	})
	return nil
}

func (a *App) initKafka(p ports) error {
	cfg := a.cfg
	grp, err := kafka.NewGroup(kafka.GroupConfig{
		Brokers:  cfg.Kafka.Brokers,
		GroupID:  cfg.Kafka.GroupID,
		ClientID: cfg.App.Name,
	})
	if err != nil {
		return fmt.Errorf("kafka group: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) { _ = grp.Close() })

	h := kafka.NewFulfillmentStatusHandler(usecase.NewUpdateOrderStatus(p.orders, p.cache), p.cache)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.Topic}, h.Handle)
	a.workers = append(a.workers, func(ctx context.Context) {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			a.log.Error("kafka consumer stopped", "error", err)
		}
	})
	return nil
}

// close runs closers in reverse order of registration.
func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
}
