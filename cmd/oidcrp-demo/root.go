package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cccteam/logger"
	"github.com/cccteam/oidcrp/config"
	"github.com/cccteam/oidcrp/session/postgres"
	"github.com/go-playground/errors/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

type flags struct {
	configFile string
	envFiles   []string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:          "oidcrp-demo",
		Short:        "Sign users in with the OpenID Provider of each configured tenant",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.configFile, f.envFiles...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
	cmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", "tenants.yaml", "tenant configuration file")
	cmd.PersistentFlags().StringSliceVar(&f.envFiles, "env-file", []string{".env"}, "env files loaded before the configuration is read")

	cmd.AddCommand(newMigrateCmd(f))

	return cmd
}

func newMigrateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL session table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.configFile, f.envFiles...)
			if err != nil {
				return err
			}
			if cfg.Session.Store != config.StorePostgres {
				return errors.Newf("session store is %q, not %q", cfg.Session.Store, config.StorePostgres)
			}

			pool, err := pgxpool.New(cmd.Context(), cfg.Session.PostgresURL)
			if err != nil {
				return errors.Wrap(err, "pgxpool.New()")
			}
			defer pool.Close()

			return postgres.CreateSchema(cmd.Context(), pool)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	app, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.close()

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Ctx(ctx).Infof("listening on %s", cfg.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http.Server.ListenAndServe()")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http.Server.Shutdown()")
	}

	return nil
}
