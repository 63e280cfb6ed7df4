package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	adapthttp "meters/internal/adapter/http"
	"meters/internal/adapter/memory"
	"meters/internal/adapter/postgres"
	"meters/internal/app"
	"meters/internal/config"
	"meters/internal/domain"
	"meters/internal/logging"
)

type stores struct {
	users    domain.UserRepository
	readings domain.ReadingRepository
	columns  domain.ColumnStore
	audits   domain.AuditRepository
	close    func() error
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logging.New(cfg.Debug)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	users := app.BoundUsers(st.users, cfg.StoreTimeout)
	readings := app.BoundReadings(st.readings, cfg.StoreTimeout)
	audits := app.BoundAudits(st.audits, cfg.StoreTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := app.NewTypeRegistry(st.columns, cfg.StoreTimeout, log)
	if err := registry.Load(ctx); err != nil {
		return err
	}

	auditor := app.NewAuditor(audits, log)
	tokens := app.NewTokenService(cfg.Secret, cfg.AccessTTL, cfg.RefreshTTL, users)
	authSvc := app.NewAuthService(users, tokens, auditor, log)
	readingSvc := app.NewReadingService(readings, app.NewReadingValidator(registry, cfg.ReadingYearFloor), auditor)

	if cfg.AdminUsername != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return err
		}
	}

	h := adapthttp.New(adapthttp.Services{
		Auth:        authSvc,
		Tokens:      tokens,
		Types:       app.NewTypeService(registry, auditor),
		Readings:    readingSvc,
		Consumption: app.NewConsumptionService(readingSvc),
		Users:       app.NewUserService(users, auditor),
		Audits:      app.NewAuditService(audits),
	}, log).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(cfg config.Config, log *zap.Logger) (stores, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		readings := memory.NewReadingRepo("heating", "hot_water", "cold_water")
		return stores{
			users:    memory.New(),
			readings: readings,
			columns:  readings,
			audits:   memory.NewAuditRepo(),
			close:    func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(cfg.DatabaseURL, log)
	if err != nil {
		return stores{}, err
	}
	readings := postgres.NewReadingRepo(db)
	return stores{
		users:    db,
		readings: readings,
		columns:  readings,
		audits:   postgres.NewAuditRepo(db),
		close:    db.Close,
	}, nil
}
