package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gas-tracker/internal/auth"
	"gas-tracker/internal/config"
	"gas-tracker/internal/handlers"
	"gas-tracker/internal/logging"
	"gas-tracker/internal/models"
	"gas-tracker/internal/storage"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	log.WithField("config", cfg.String()).Info("starting gas tracker")

	db, err := storage.NewDB(cfg.DBPath, storage.WithMigrationLogger(log))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if n, err := db.CleanExpiredSessions(ctx); err != nil {
		log.WithError(err).Warn("failed to clean expired sessions")
	} else if n > 0 {
		log.WithField("count", n).Info("removed expired sessions")
	}

	if err := bootstrapAdmin(ctx, db, cfg, log); err != nil {
		return err
	}

	h := handlers.NewHandlers(db, cfg.TemplateDir, cfg.SecureCookie,
		handlers.WithLogger(log),
		handlers.WithPageSize(cfg.PageSize),
	)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h, cfg.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// bootstrapAdmin creates the configured admin login when no users exist yet.
func bootstrapAdmin(ctx context.Context, db *storage.DB, cfg config.Config, log logrus.FieldLogger) error {
	if cfg.AdminUser == "" {
		return nil
	}
	n, err := db.UserCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	user, err := db.CreateUser(ctx, cfg.AdminUser, hash)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.WithField("username", user.Username).Info("created admin user")
	return nil
}

func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	protected := func(hf http.HandlerFunc) http.Handler { return h.AuthMiddleware(hf) }

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cars", http.StatusFound)
	})
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("POST /set-timezone", h.SetTimezone)

	mux.Handle("GET /cars", protected(h.ListCars))
	mux.Handle("GET /add-car", protected(h.CreateCarForm))
	mux.Handle("POST /add-car", protected(h.CreateCar))
	mux.Handle("GET /car/{car_id}/{$}", protected(h.CarDetail))
	mux.Handle("GET /car/{car_id}/update", protected(h.UpdateCarForm))
	mux.Handle("POST /car/{car_id}/update", protected(h.UpdateCar))
	mux.Handle("GET /car/{car_id}/delete", protected(h.DeleteCarForm))
	mux.Handle("POST /car/{car_id}/delete", protected(h.DeleteCar))

	for _, kind := range models.EntryKinds {
		mux.Handle("GET /car/{car_id}/"+kind.ListSegment(), protected(h.ListEntries(kind)))
		mux.Handle("GET "+handlers.AddPath(kind), protected(h.CreateEntryForm(kind)))
		mux.Handle("POST "+handlers.AddPath(kind), protected(h.CreateEntry(kind)))
	}
	mux.Handle("GET /car/{car_id}/{kind}/{entry_id}/update", protected(h.UpdateEntryForm))
	mux.Handle("POST /car/{car_id}/{kind}/{entry_id}/update", protected(h.UpdateEntry))
	mux.Handle("GET /car/{car_id}/{kind}/{entry_id}/delete", protected(h.DeleteEntryForm))
	mux.Handle("POST /car/{car_id}/{kind}/{entry_id}/delete", protected(h.DeleteEntry))

	return mux
}
