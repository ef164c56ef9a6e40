package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/linkshelf/linkshelf/internal/api"
	"github.com/linkshelf/linkshelf/internal/auth"
	"github.com/linkshelf/linkshelf/internal/config"
	"github.com/linkshelf/linkshelf/internal/db"
	"github.com/linkshelf/linkshelf/internal/handler"
	"github.com/linkshelf/linkshelf/internal/logging"
	"github.com/linkshelf/linkshelf/internal/service"
	"github.com/linkshelf/linkshelf/internal/store"
	"github.com/linkshelf/linkshelf/internal/store/docstore"
	"github.com/linkshelf/linkshelf/internal/store/sqlstore"
	"github.com/linkshelf/linkshelf/internal/trace"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tracing := cfg.Tracing.Endpoint != ""
			if tracing {
				shutdown, err := trace.Init(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
				if err != nil {
					return err
				}
				defer func() { _ = shutdown(context.Background()) }()
			}

			links, users, closeStore, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			verifier, err := newVerifier(ctx, cfg, log)
			if err != nil {
				return err
			}

			uniq, err := service.ParseURLUniqueness(cfg.Links.URLUniqueness)
			if err != nil {
				return err
			}

			apiRouter := api.NewAPIRouter(api.Deps{
				BearerAuth: auth.NewBearerMiddleware(verifier, log),
				Links:      service.NewLinkService(links, users, service.LinkOptions{URLUniqueness: uniq}, log),
				Users:      service.NewUserService(users, log),
				Log:        log,
			})
			router := handler.NewRouter(handler.Deps{
				API: apiRouter,
				Log: log,
				CORS: handler.CORSOptions{
					AllowedOrigins:   cfg.CORS.AllowedOrigins,
					AllowCredentials: cfg.CORS.AllowCredentials,
				},
				Tracing: tracing,
			})

			srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}
			errCh := make(chan error, 1)
			go func() {
				log.WithFields(logrus.Fields{
					"addr":    cfg.HTTP.Addr,
					"backend": cfg.Store.Backend,
					"auth":    cfg.Auth.Mode,
				}).Info("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}

// openStores builds the configured backend. The returned close func
// releases the underlying database.
func openStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (store.LinkStore, store.UserStore, func(), error) {
	switch cfg.Store.Backend {
	case "document":
		ddb, err := docstore.Open(cfg.Badger.Path, log)
		if err != nil {
			return nil, nil, nil, err
		}
		go ddb.RunGC(ctx, cfg.Badger.GCInterval)
		return ddb.Links(), ddb.Users(), func() { _ = ddb.Close() }, nil
	default:
		database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(database, cfg.DB.Driver); err != nil {
			_ = database.Close()
			return nil, nil, nil, err
		}
		return sqlstore.NewLinkStore(database), sqlstore.NewUserStore(database), func() { _ = database.Close() }, nil
	}
}

func newVerifier(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (auth.Verifier, error) {
	if cfg.Auth.Mode == "jwks" {
		return auth.NewJWKSVerifier(ctx, cfg.Auth.JWKSURL, cfg.Auth.Issuer, cfg.Auth.Audience, log)
	}
	return auth.NewOIDCVerifier(ctx, cfg.Auth.Issuer, cfg.Auth.Audience, log)
}
