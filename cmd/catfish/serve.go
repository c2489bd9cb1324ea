package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/datallboy/catfish/internal/api"
	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recorded runs and failures over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			appCtx, cleanup, err := newAppContext(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := requireStore(appCtx); err != nil {
				return err
			}

			e := echo.New()
			api.RegisterRoutes(e, appCtx)

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           e,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				appCtx.Logger.Info("Listening on %s", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				appCtx.Logger.Info("Shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "port to listen on (default from config)")
	return cmd
}
