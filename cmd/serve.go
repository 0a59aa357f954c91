package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariebrainware/dentplanner-api/endpoint"
	"github.com/ariebrainware/dentplanner-api/reminder"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var port uint16

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(true)
			if err != nil {
				return err
			}
			defer a.close()

			if err := util.InitGeoIP(a.cfg.GeoIPDBPath); err != nil {
				a.log.Warn().Err(err).Str("path", a.cfg.GeoIPDBPath).Msg("geoip lookups disabled")
			}
			defer util.CloseGeoIP()

			var sched *reminder.Scheduler
			if a.cfg.ReminderEnabled {
				sched, err = reminder.NewScheduler(a.services.Reminders, a.cfg.ReminderSpec)
				if err != nil {
					return fmt.Errorf("reminder schedule %q: %w", a.cfg.ReminderSpec, err)
				}
				sched.Start()
				a.log.Info().Str("spec", a.cfg.ReminderSpec).Time("next", sched.Next()).Msg("reminder scheduler started")
			}

			if port == 0 {
				port = a.cfg.AppPort
			}
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           endpoint.SetupRouter(a.db, a.services),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", srv.Addr).Str("env", a.cfg.AppEnv).Msg("starting server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server: %w", err)
				}
			case sig := <-quit:
				a.log.Info().Str("signal", sig.String()).Msg("shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if sched != nil {
				sched.Stop(ctx)
			}
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			a.log.Info().Msg("server stopped")
			return nil
		},
	}
	cmd.Flags().Uint16Var(&port, "port", 0, "listen port (defaults to APPPORT)")
	return cmd
}
