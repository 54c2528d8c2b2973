package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notsoai/dashboard/internal/analysis"
	"github.com/notsoai/dashboard/internal/auth"
	"github.com/notsoai/dashboard/internal/config"
	"github.com/notsoai/dashboard/internal/db"
	"github.com/notsoai/dashboard/internal/httpapi"
	"github.com/notsoai/dashboard/internal/httpapi/handlers"
	"github.com/notsoai/dashboard/internal/logging"
	"github.com/notsoai/dashboard/internal/session"
	"github.com/notsoai/dashboard/internal/store"
	"github.com/notsoai/dashboard/internal/store/rabbitmq"
	"github.com/notsoai/dashboard/internal/store/redisstore"
)

// demoPassword is the password of every seeded demo user.
const demoPassword = "demo1234"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	codec, err := newCodec(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("session codec")
	}
	resolver := session.NewResolver(codec, cfg.Session.CookieName, cfg.Session.MaxAge, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("open store")
	}

	rds := redisstore.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer rds.Close()
	if err := rds.Ping(ctx); err != nil {
		logging.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable; login throttling fails open")
	}

	var publisher analysis.Publisher
	if cfg.Rabbit.URL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.Queue)
		if err != nil {
			logging.Warn().Err(err).Msg("rabbitmq unavailable; analysis jobs stay queued")
		} else {
			defer pub.Close()
			publisher = pub
		}
	}
	an := analysis.NewService(st, publisher, nil, cfg.AI.Provider, "")

	h := handlers.NewHandler(st, cfg, resolver, rds, an)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.Env).Str("db", cfg.DB.Driver).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown")
	}
}

// newCodec builds the session codec. Outside production, a missing secret
// without the unsigned opt-in gets a random per-process secret: sessions
// then do not survive restarts.
func newCodec(cfg config.Config) (*session.Codec, error) {
	secret := cfg.Session.Secret
	if secret == "" && !cfg.IsProduction() && !cfg.Session.AllowUnsigned {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, err
		}
		secret = hex.EncodeToString(b)
		logging.Warn().Msg("SESSION_SECRET not set; using an ephemeral secret")
	}
	if secret == "" && cfg.Session.AllowUnsigned {
		logging.Warn().Msg("SESSION_ALLOW_UNSIGNED enabled; session cookies are not signed")
	}
	return session.NewCodec(secret, cfg.IsProduction(), cfg.Session.AllowUnsigned)
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.DB.Driver == "mock" {
		m := store.NewMock()
		if err := seed(ctx, m); err != nil {
			return nil, err
		}
		logging.Warn().Msg("DB_DRIVER=mock; serving in-memory demo data")
		return m, nil
	}

	gdb, err := db.Connect(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	repo := store.NewRepo(gdb)

	if cfg.DB.Driver == "sqlite" {
		if _, err := repo.GetClient(ctx, store.DemoClientID); errors.Is(err, store.ErrNotFound) {
			if err := seed(ctx, repo); err != nil {
				return nil, err
			}
		}
	}
	return repo, nil
}

func seed(ctx context.Context, st store.Store) error {
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return err
	}
	if err := store.SeedDemo(ctx, st, hash, time.Now()); err != nil {
		return err
	}
	logging.Info().Str("user", "owner@acme.test").Str("password", demoPassword).Msg("seeded demo data")
	return nil
}
