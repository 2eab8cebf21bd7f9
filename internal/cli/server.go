package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"video-training-service/internal/app"
	"video-training-service/internal/config"
	"video-training-service/internal/evaluator"
	"video-training-service/internal/infra/filestore"
	"video-training-service/internal/infra/memory"
	"video-training-service/internal/infra/postgres"
	redisinfra "video-training-service/internal/infra/redis"
	transport "video-training-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores are the durable collaborators selected by storage.driver.
type stores struct {
	catalog  app.CatalogStore
	accounts app.AccountStore
	ledger   app.ResultsLedger
	close    func()
}

type sweeper interface {
	Sweep(ctx context.Context) int
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	slog.SetDefault(log)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	policy, err := app.ParseScoringPolicy(cfg.Scoring.Policy)
	if err != nil {
		return err
	}
	var evalOpts []evaluator.Option
	if cfg.Scoring.MaxEditDistance > 0 {
		evalOpts = append(evalOpts, evaluator.WithMaxEditDistance(cfg.Scoring.MaxEditDistance))
	}
	eval, err := evaluator.New(cfg.Scoring.Evaluator, evalOpts...)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	cacheTTL := config.TTLDuration(cfg.Catalog.CacheTTL, 5*time.Minute)
	idleTTL := config.TTLDuration(cfg.Session.IdleTTL, 30*time.Minute)

	var cache app.VideoCache
	var sessions interface {
		app.SessionRepository
		sweeper
	}
	if redisClient != nil {
		cache = redisinfra.NewVideoCache(redisClient, st.catalog, cacheTTL, log)
		sessions = redisinfra.NewSessionStore(redisClient, idleTTL)
	} else {
		cache = memory.NewVideoCache(st.catalog, cacheTTL)
		sessions = memory.NewSessionStore(idleTTL)
	}

	quiz := app.NewQuizService(cache, st.ledger, eval,
		app.WithScoringPolicy(policy),
		app.WithAccounts(st.accounts),
		app.WithLogger(log))
	accounts := app.NewAccountService(st.accounts, log)
	catalog := app.NewCatalogService(st.catalog, cache, log)
	reports := app.NewReportService(st.ledger, st.catalog)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", transport.NewWSHandler(quiz, sessions, log).ServeWS)
	transport.NewAPIHandler(accounts, catalog, reports, log).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, sessions, config.PositiveDuration(cfg.Session.SweepInterval, time.Minute), log)

	go func() {
		log.Info("starting video training service",
			"port", finalPort, "storage", cfg.StorageDriver(), "policy", quiz.Policy(), "redis", redisClient != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (stores, error) {
	switch driver := cfg.StorageDriver(); driver {
	case config.StorageMemory:
		log.Warn("memory storage selected; data is lost on restart")
		return stores{
			catalog:  memory.NewCatalogStore(),
			accounts: memory.NewAccountStore(),
			ledger:   memory.NewResultsLedger(),
			close:    func() {},
		}, nil

	case config.StorageFile:
		dir := cfg.StorageDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stores{}, fmt.Errorf("create storage dir: %w", err)
		}
		catalog, err := memory.NewPersistentCatalogStore(filestore.NewCatalog(dir))
		if err != nil {
			return stores{}, err
		}
		accounts, err := memory.NewPersistentAccountStore(filestore.NewAccounts(dir))
		if err != nil {
			return stores{}, err
		}
		ledger, err := memory.NewJournaledResultsLedger(filestore.NewResultsLog(dir))
		if err != nil {
			return stores{}, err
		}
		log.Info("file storage ready", "dir", dir, "results", ledger.Len())
		return stores{catalog: catalog, accounts: accounts, ledger: ledger, close: func() {}}, nil

	case config.StoragePostgres:
		if err := runMigrations(ctx, cfg, log); err != nil {
			return stores{}, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return stores{}, err
		}
		return stores{
			catalog:  postgres.NewCatalogStore(pool),
			accounts: postgres.NewAccountStore(pool),
			ledger:   postgres.NewResultsLedger(pool),
			close:    pool.Close,
		}, nil

	default:
		return stores{}, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func sweepSessions(ctx context.Context, sessions sweeper, every time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(ctx); n > 0 {
				log.Debug("idle quiz sessions evicted", "count", n)
			}
		}
	}
}
