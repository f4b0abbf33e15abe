package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/goatkit/querypro/internal/mockapi"
)

func newMockServerCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:         "mock-server",
		Short:       "Run the in-memory mock backend with demo data",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSession: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Mock.Addr
			}
			gin.SetMode(gin.ReleaseMode)

			backend := mockapi.New(
				mockapi.WithSecret(a.cfg.Mock.JWTSecret),
				mockapi.WithLogger(a.logger),
			)
			if err := backend.SeedDemo(); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           backend.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			a.logger.Info("mock backend listening", "addr", addr,
				"admin", "admin@querypro.test / admin123",
				"student", "student@querypro.test / student123")

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			a.logger.Info("shutting down mock backend")
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :6969)")
	return cmd
}
