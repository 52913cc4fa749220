package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/mockai/internal/catalog"
	"github.com/suPer8Hu/mockai/internal/chat"
	"github.com/suPer8Hu/mockai/internal/config"
	"github.com/suPer8Hu/mockai/internal/db"
	"github.com/suPer8Hu/mockai/internal/httpapi"
	"github.com/suPer8Hu/mockai/internal/httpapi/handlers"
	"github.com/suPer8Hu/mockai/internal/responder"
	"github.com/suPer8Hu/mockai/internal/session"
	"github.com/suPer8Hu/mockai/internal/store/rabbitmq"
	"github.com/suPer8Hu/mockai/internal/store/redisstore"
	"github.com/suPer8Hu/mockai/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if addr != "" {
				cfg.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

// closers run in reverse order on shutdown.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			log.Warn().Err(err).Msg("shutdown cleanup failed")
		}
	}
}

func runServe(ctx context.Context, cfg config.Config, out io.Writer) error {
	var cleanup closers
	defer cleanup.closeAll()

	providers, err := telemetry.Init(ctx, cfg.OtelEnabled, cfg.OtelDir, Version)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	cleanup.add(func() error {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return providers.Shutdown(sctx)
	})

	cat, err := loadCatalog(cfg.ModelsFile)
	if err != nil {
		return err
	}

	sessions, err := buildSessions(ctx, cfg, &cleanup)
	if err != nil {
		return err
	}

	style, err := responder.ParseStyle(cfg.ResponseStyle)
	if err != nil {
		return err
	}
	resp := responder.New(responder.Options{
		Math:         cfg.EnableMath,
		Style:        style,
		Elaborate:    cfg.Elaborate,
		Capabilities: cat,
	})

	archiver, repo, err := buildArchive(cfg, &cleanup)
	if err != nil {
		return err
	}

	svc, err := chat.NewService(chat.Deps{
		Sessions:  sessions,
		Responder: resp,
		Archiver:  archiver,
		Telemetry: providers,
	})
	if err != nil {
		return err
	}

	h := handlers.NewHandler(svc, cat)
	h.KeyConfigured = cfg.APIKey != config.DefaultAPIKey
	h.Style = string(style)
	h.Version = Version
	if repo != nil {
		h.Transcripts = repo
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(h, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	if !h.KeyConfigured {
		log.Warn().Msg("API_KEY not set, using the default key")
	}
	log.Info().
		Str("addr", cfg.Addr).
		Int("models", cat.Len()).
		Bool("memory", svc.MemoryEnabled()).
		Str("style", string(style)).
		Bool("archive", archiver != nil).
		Msg("mockai listening")
	fmt.Fprintf(out, "mockai %s listening on %s\n", Version, cfg.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("models file: %w", err)
	}
	return cat, nil
}

// buildSessions returns nil when memory is disabled.
func buildSessions(ctx context.Context, cfg config.Config, cleanup *closers) (session.Store, error) {
	if !cfg.EnableMemory {
		return nil, nil
	}
	switch cfg.SessionBackend {
	case "redis":
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionCapacity, cfg.SessionTTL)
		cleanup.add(rs.Close)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rs.Ping(pctx); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		return rs, nil
	default:
		return session.NewMemoryStore(cfg.SessionCapacity, cfg.SessionTTL), nil
	}
}

// buildArchive prefers the queue when RABBIT_URL is set and falls back to
// writing straight to DB_DSN. repo is non-nil whenever DB_DSN is set so the
// session endpoint can list transcripts.
func buildArchive(cfg config.Config, cleanup *closers) (chat.Archiver, *chat.Repo, error) {
	var repo *chat.Repo
	if cfg.DBDSN != "" {
		gdb, err := db.Open(cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		cleanup.add(func() error { return db.Close(gdb) })
		repo = chat.NewRepo(gdb)
		if err := repo.AutoMigrate(); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}

	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq: %w", err)
		}
		cleanup.add(pub.Close)
		return pub, repo, nil
	}
	if repo != nil {
		return repo, repo, nil
	}
	return nil, nil, nil
}
