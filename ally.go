package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rutvik18Verticals/ally-xs-transactions/cfg"
	"github.com/rutvik18Verticals/ally-xs-transactions/dispatch"
	"github.com/rutvik18Verticals/ally-xs-transactions/feed"
	"github.com/rutvik18Verticals/ally-xs-transactions/ops"
	"github.com/rutvik18Verticals/ally-xs-transactions/persist"
	"github.com/rutvik18Verticals/ally-xs-transactions/publisher"
	_ "github.com/rutvik18Verticals/ally-xs-transactions/publisher/sink"
	"github.com/rutvik18Verticals/ally-xs-transactions/store"
	"github.com/rutvik18Verticals/ally-xs-transactions/telemetry"
	"github.com/rutvik18Verticals/ally-xs-transactions/transaction"
)

func main() {
	flag.Parse()

	// Load configuration
	err := cfg.Load(*cfg.ConfigPathFlag)
	if err != nil {
		panic(err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	// Setup logging
	var writer io.Writer = zerolog.NewConsoleWriter()
	if cfg.Config.Logging.Format == "json" {
		writer = os.Stdout
	}
	gLog := zerolog.New(writer).
		With().
		Timestamp().
		Logger()

	if cfg.Config.Logging.Verbose {
		log.Logger = gLog.Level(zerolog.DebugLevel)
	} else {
		log.Logger = gLog.Level(zerolog.InfoLevel)
	}

	log.Info().Msg("Ally XS Transactions - Outbound Device Command Service")
	log.Debug().Msg("Initializing telemetry")
	telemetry.Initialize(cfg.Config.Prometheus.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Legacy database
	log.Info().Str("path", cfg.Config.LegacyDB.Path).Msg("Opening legacy database")
	db, err := store.Open(cfg.Config.LegacyDB.Path, cfg.Config.LegacyDB.BusyTimeoutMS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open legacy database")
		return
	}
	defer db.Close()

	nodes, err := store.NewNodeStore(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create node store")
		return
	}
	txns, err := store.NewTransactionStore(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction store")
		return
	}

	// Composition core
	allocator, err := transaction.NewIDAllocator(txns, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create id allocator")
		return
	}
	composer, err := transaction.NewComposer(nodes, nodes, allocator, cfg.Config.Transaction.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create composer")
		return
	}

	// Publishers and dispatcher
	env := publisher.Env{
		Transactions: txns,
		Retry: persist.Config{
			Retries: cfg.Config.Retry.Count,
			Delay:   time.Duration(cfg.Config.Retry.DelayMS) * time.Millisecond,
		},
	}
	publishers, err := publisher.Build(cfg.Config.Publishers, env)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build publishers")
		return
	}
	defer closePublishers(publishers)

	dispatcher, err := dispatch.NewDispatcher(nodes, nodes, publishers)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create dispatcher")
		return
	}

	// Feed
	log.Info().Str("url", cfg.Config.Nats.URL).Msg("Connecting to NATS")
	nc, err := nats.Connect(cfg.Config.Nats.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.Timeout(time.Duration(cfg.Config.Nats.TimeoutMS)*time.Millisecond),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
		return
	}
	defer nc.Close()

	changes, err := feed.NewChangeConsumer(nc, dispatcher, cfg.Config.Nats.ChangeSubject, cfg.Config.Nats.QueueGroup)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create change consumer")
		return
	}
	if err := changes.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start change consumer")
		return
	}
	defer changes.Close()

	commands, err := feed.NewCommandConsumer(nc, composer, allocator, cfg.Config.Nats.CommandSubject, cfg.Config.Nats.ChangeSubject, cfg.Config.Nats.QueueGroup)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create command consumer")
		return
	}
	if err := commands.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start command consumer")
		return
	}
	defer commands.Close()

	// Ops endpoint
	if cfg.Config.Prometheus.Enabled {
		go serveOps(ctx, ops.NewRouter(ops.NewHandlers(nodes, txns)))
	}

	log.Info().Msg("Service started")
	<-ctx.Done()
	log.Info().Msg("Shutting down")
}

func closePublishers(publishers []publisher.Publisher) {
	for _, p := range publishers {
		if err := p.Close(); err != nil {
			log.Warn().Err(err).Str("publisher", p.Name()).Msg("Failed to close publisher")
		}
	}
}

// serveOps exposes the ops endpoints until the context is canceled.
func serveOps(ctx context.Context, handler http.Handler) {
	addr := fmt.Sprintf("%s:%d", cfg.Config.Prometheus.Address, cfg.Config.Prometheus.Port)
	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Ops endpoint listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Ops endpoint failed")
	}
}
