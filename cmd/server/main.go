// Command server wires the signet service: stores, sealing, notifications,
// the audit ledger, and the HTTP surface. Business logic lives in the
// internal packages; main only composes and supervises.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"signet/internal/audit"
	"signet/internal/blob"
	"signet/internal/document"
	"signet/internal/identity"
	"signet/internal/notify"
	"signet/internal/platform/config"
	"signet/internal/platform/httpserver"
	"signet/internal/platform/logger"
	"signet/internal/platform/metrics"
	"signet/internal/platform/middleware"
	platformpg "signet/internal/platform/postgres"
	platformredis "signet/internal/platform/redis"
	"signet/internal/seal"
	"signet/internal/signature"
	httptransport "signet/internal/transport/http"
	txcontext "signet/pkg/platform/tx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	blobs, err := blob.NewFSStore(cfg.BlobDir, cfg.BaseURL, []byte(cfg.BlobSigningSecret))
	if err != nil {
		return err
	}

	// Stores: postgres when configured, in-memory otherwise so the service
	// runs out of the box in development.
	var (
		docStore   document.Store
		reqStore   signature.Store
		auditStore audit.Store
		runner     txcontext.Runner = txcontext.NopRunner{}
	)
	if cfg.DatabaseURL != "" {
		db, err := platformpg.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := platformpg.Migrate(ctx, db); err != nil {
			return err
		}
		docStore = document.NewPostgresStore(db)
		reqStore = signature.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		runner = txcontext.NewSQLRunner(db)
		log.Info("using postgres stores")
	} else {
		docStore = document.NewMemoryStore()
		reqStore = signature.NewMemoryStore()
		auditStore = audit.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	var limiter middleware.RateLimiter = middleware.NewMemoryLimiter()
	if cfg.RedisAddr != "" {
		client, err := platformredis.New(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		limiter = middleware.NewRedisLimiter(client)
		log.Info("using redis rate limiter", "addr", cfg.RedisAddr)
	}

	var ledgerOpts []audit.LedgerOption
	var publisher *audit.StreamPublisher
	if cfg.KafkaBrokers != "" {
		stream := make(chan audit.Entry, 256)
		publisher, err = audit.NewStreamPublisher(
			strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaAuditTopic, stream, log)
		if err != nil {
			return err
		}
		ledgerOpts = append(ledgerOpts, audit.WithStream(stream))
		log.Info("audit stream enabled", "topic", cfg.KafkaAuditTopic)
	}
	ledger := audit.NewLedger(auditStore, log, m, ledgerOpts...)

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.SMTPHost != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
		log.Info("smtp notifier enabled", "host", cfg.SMTPHost)
	}

	validator := identity.NewValidator(cfg.AuthJWTSecret)
	tokens := signature.NewTokenService([]byte(cfg.SigningTokenSecret), cfg.SigningTokenTTL)
	pipeline := seal.NewPipeline(blobs, seal.NewPDFStamper(), log, m)

	docService := document.NewService(docStore, blobs, ledger, log, cfg.PresignTTL)
	sigService := signature.NewService(reqStore, docStore, blobs, tokens, pipeline,
		ledger, notifier, runner, log, m, signature.Config{
			BaseURL:       cfg.BaseURL,
			RequestExpiry: cfg.RequestExpiry,
			PresignTTL:    cfg.PresignTTL,
		})

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Metrics:    m,
		Validator:  validator,
		Limiter:    limiter,
		Documents:  document.NewHandler(docService, log),
		Signatures: signature.NewHandler(sigService, log),
		Blobs:      blob.NewHandler(blobs, log),
	})
	srv := httpserver.New(cfg.Addr, router)

	if publisher != nil {
		go func() {
			if err := publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit stream publisher stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting signet", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
