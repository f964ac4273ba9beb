package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "MarketDash/internal/middleware"
	"MarketDash/internal/service/ratelimit"
	"MarketDash/internal/service/stream"
	"MarketDash/internal/usecase"
	"MarketDash/pkg/config"
	xhttp "MarketDash/pkg/http"
	pkgkafka "MarketDash/pkg/kafka"
	applogger "MarketDash/pkg/logger"
	"MarketDash/pkg/queue"

	"github.com/robfig/cron/v3"
)

const janitorSpec = "@every 1m"

// Components is everything the App starts and stops. Optional parts are
// nil when their feature is disabled in config.
type Components struct {
	Config    *config.Config
	Logger    *applogger.Logger
	HTTP      *xhttp.Server
	Hub       *stream.Hub
	Refresher *usecase.Refresher
	Sessions  *usecase.SessionStore
	Limiter   *ratelimit.Limiter

	Pipeline       *mid.EventPipeline
	Recorder       *usecase.DecisionRecorder
	Consumer       *pkgkafka.Consumer
	ArchiveHandler *usecase.ArchiveHandler

	Queue      *queue.RedisQueue
	PrewarmJob *usecase.PrewarmJob
	Prewarmer  *usecase.Prewarmer
}

// App encapsulates the entire application lifecycle.
type App struct {
	Components
	cron *cron.Cron
}

// New creates a new App instance with all dependencies.
func New(c Components) *App {
	if c.Logger == nil {
		c.Logger = applogger.Nop()
	}
	return &App{Components: c, cron: cron.New()}
}

// Run starts every component and blocks until ctx is cancelled or the
// process receives SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	l := a.Logger

	go a.Hub.Run(ctx)

	if err := a.Refresher.Start(ctx); err != nil {
		return fmt.Errorf("start refresher: %w", err)
	}

	if a.Pipeline != nil {
		a.Pipeline.Start(ctx)
		l.Info("decision pipeline started", applogger.String("backend", a.Config.Archive.Backend))
	}

	if a.Consumer != nil && a.ArchiveHandler != nil {
		a.Consumer.RegisterHandler(a.ArchiveHandler)
		if err := a.Consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
		l.Info("kafka consumer started", applogger.String("topic", a.ArchiveHandler.Topic()))
	}

	if err := a.startPrewarm(ctx); err != nil {
		return err
	}

	if _, err := a.cron.AddFunc(janitorSpec, a.sweep); err != nil {
		return fmt.Errorf("schedule janitor: %w", err)
	}
	a.cron.Start()

	if err := a.HTTP.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("marketdash started",
		applogger.String("env", a.Config.Environment),
		applogger.String("upstream", a.Config.Upstream.BaseURL),
		applogger.Strings("watchlist", a.Config.Upstream.Watchlist),
	)

	<-ctx.Done()
	l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) startPrewarm(ctx context.Context) error {
	if a.Queue == nil || a.Prewarmer == nil {
		return nil
	}
	a.Queue.RegisterJob(a.PrewarmJob)
	if err := a.Queue.Start(); err != nil {
		return fmt.Errorf("start prewarm queue: %w", err)
	}
	run := func(force bool) {
		if _, err := a.Prewarmer.Run(ctx, force); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Warn("prewarm failed", applogger.Error(err), applogger.Bool("forced", force))
		}
	}
	if _, err := a.cron.AddFunc(a.Config.Prewarm.Schedule, func() { run(false) }); err != nil {
		return fmt.Errorf("schedule prewarm: %w", err)
	}
	// The startup pass warms the current top stocks regardless of earlier claims.
	go run(true)
	a.Logger.Info("prewarm scheduled",
		applogger.String("schedule", a.Config.Prewarm.Schedule),
		applogger.Int("top_n", a.Config.Prewarm.TopN),
	)
	return nil
}

// sweep drops idle sessions and rate limiter buckets.
func (a *App) sweep() {
	sessions := a.Sessions.Sweep()
	visitors := a.Limiter.Sweep()
	a.Logger.Debug("janitor sweep", applogger.Int("sessions", sessions), applogger.Int("visitors", visitors))
}

// shutdown stops intake first, then background work, then the archive path.
func (a *App) shutdown() error {
	l := a.Logger
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	var errs []error
	if err := a.HTTP.Stop(ctx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if err := a.Refresher.Stop(ctx); err != nil {
		l.Warn("refresher stop error", applogger.Error(err))
	}

	cronCtx := a.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
	}

	if a.Queue != nil {
		if err := a.Queue.Stop(ctx); err != nil {
			l.Warn("prewarm queue stop error", applogger.Error(err))
		}
	}

	if a.Pipeline != nil {
		a.Pipeline.Stop()
		if n := a.Pipeline.Buffered(); n > 0 {
			l.Warn("decision events dropped at shutdown", applogger.Int("count", n))
		}
	}

	if a.Consumer != nil {
		if err := a.Consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.Recorder != nil {
		a.Recorder.Close()
	}

	l.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) shutdownTimeout() time.Duration {
	if d := a.Config.Server.ShutdownTimeout; d > 0 {
		return d
	}
	return 10 * time.Second
}
