package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-udp-reservation/internal/catalog"
	"github.com/iliyamo/cinema-udp-reservation/internal/config"
	"github.com/iliyamo/cinema-udp-reservation/internal/database"
	"github.com/iliyamo/cinema-udp-reservation/internal/dispatcher"
	"github.com/iliyamo/cinema-udp-reservation/internal/engine"
	"github.com/iliyamo/cinema-udp-reservation/internal/handler"
	"github.com/iliyamo/cinema-udp-reservation/internal/logging"
	"github.com/iliyamo/cinema-udp-reservation/internal/middleware"
	"github.com/iliyamo/cinema-udp-reservation/internal/persist"
	"github.com/iliyamo/cinema-udp-reservation/internal/queue"
	"github.com/iliyamo/cinema-udp-reservation/internal/ratelimit"
	"github.com/iliyamo/cinema-udp-reservation/internal/repository"
	"github.com/iliyamo/cinema-udp-reservation/internal/router"
	"github.com/iliyamo/cinema-udp-reservation/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logger := logging.New("server")
	if err := run(cfg, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Catalog and reservations come from MySQL when configured.
	var (
		store persist.Store
		snap  persist.Snapshot
	)
	if cfg.DB.Enabled() {
		db, repo, err := openStore(ctx, cfg.DB, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		if snap, err = persist.Load(ctx, repo); err != nil {
			return err
		}
		store = repo
		logger.Infof("loaded %d screenings and %d reservations from %s", len(snap.Screenings), len(snap.Reservations), cfg.DB.Host)
	} else {
		logger.Warn("DB_HOST not set; running without durability on the demo catalog")
		snap.Movies, snap.Rooms, snap.Screenings = catalog.Demo(time.Now())
	}
	cat, err := catalog.New(snap.Movies, snap.Rooms, snap.Screenings)
	if err != nil {
		return err
	}

	var events persist.EventPublisher
	var consumer *queue.AuditConsumer
	if cfg.AMQPURL != "" {
		pub := queue.NewPublisher(cfg.AMQPURL, logging.New("amqp"))
		defer pub.Close()
		events = pub
		consumer = &queue.AuditConsumer{URL: cfg.AMQPURL, LogPath: cfg.AuditLogPath, Logger: logging.New("audit")}
	}

	writer := persist.NewWriter(store, events, cfg.Persist, logging.New("persist"))
	eng, err := engine.New(cat, engine.Options{
		IdempotencyTTL:        cfg.IdempotencyTTL,
		IdempotencyMaxEntries: cfg.IdempotencyMaxEntries,
		Recorder:              writer,
		Logger:                logging.New("engine"),
	})
	if err != nil {
		return err
	}
	if err := eng.Restore(snap.Reservations); err != nil {
		logger.Errorf("some stored reservations were not restored: %v", err)
	}

	if store != nil {
		sched, err := persist.StartReconciler(writer, cfg.Persist.ReconcileEvery, logging.New("reconcile"))
		if err != nil {
			return err
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				logger.Warnf("scheduler shutdown: %v", err)
			}
		}()
	}

	rdb := connectRedis(logger)
	if rdb != nil {
		defer rdb.Close()
	}
	bucket := ratelimit.New(config.LoadRateLimitConfig(), rdb)
	disp := dispatcher.New(eng, logging.New("dispatcher"))

	udp := transport.NewServer(transport.ServerConfig{
		Addr:      cfg.UDPAddr(),
		Workers:   cfg.UDPWorkers,
		QueueSize: cfg.UDPQueueSize,
	}, disp, bucket, logging.New("udp"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return udp.ListenAndServe(gctx) })

	if cfg.HTTPEnabled() {
		e := newGateway(disp, writer, bucket, rdb)
		addr := ":" + cfg.HTTPPort
		logger.Infof("ops gateway listening on %s (env=%s)", addr, cfg.Env)
		g.Go(func() error {
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return e.Shutdown(sctx)
		})
	}
	if consumer != nil {
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	serveErr := g.Wait()
	logger.Info("shutting down")

	// Everything the UDP workers committed is queued by now.
	cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := writer.Close(cctx); err != nil {
		logger.Errorf("write-behind queue not drained: %v", err)
	}
	if n := writer.Journal().Len(); n > 0 {
		logger.Errorf("%d writes still diverge from the database", n)
	}
	return serveErr
}

func openStore(ctx context.Context, cfg config.DBConfig, logger *log.Logger) (*sql.DB, *repository.Store, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	repo := repository.NewStore(db)
	if cfg.Seed {
		seeded, err := repo.Seed(ctx, time.Now())
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if seeded {
			logger.Info("seeded empty database with the demo catalog")
		}
	}
	return db, repo, nil
}

// connectRedis returns nil when Redis is unreachable; rate limiting and
// caching are then disabled.
func connectRedis(logger *log.Logger) *redis.Client {
	rcfg := config.LoadRedisConfig()
	rdb, err := config.NewRedisClient(rcfg)
	if err != nil {
		logger.Warnf("redis unavailable, rate limiting and cache disabled: %v", err)
		return nil
	}
	logger.Infof("connected to redis at %s", rcfg.Addr)
	return rdb
}

func newGateway(disp *dispatcher.Dispatcher, writer *persist.Writer, bucket *ratelimit.TokenBucket, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger = logging.New("http")
	e.Use(echomw.Recover())
	router.RegisterRoutes(e, &handler.GatewayHandler{Dispatcher: disp, Divergences: writer}, router.Middlewares{
		RateLimit: middleware.RateLimit(bucket),
		Cache:     middleware.Cache(config.LoadCacheConfig(), rdb),
	})
	return e
}
