package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/MereWhiplash/specrag/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}

			svc, err := openService(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			// requests may wait on a full generation; no model timeout means no request timeout
			var timeout, writeTimeout time.Duration
			if rt.cfg.OllamaTimeout > 0 {
				timeout = rt.cfg.OllamaTimeout + 30*time.Second
				writeTimeout = timeout + 5*time.Second
			}
			router := api.NewRouter(api.NewHandlers(svc, rt.logger), rt.logger, timeout)

			ln, err := net.Listen("tcp", rt.cfg.Addr)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Handler:      router,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: writeTimeout,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown
			ctx := cmd.Context()
			done := make(chan struct{})
			go func() {
				defer close(done)
				<-ctx.Done()

				rt.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					rt.logger.Error("shutdown failed", "error", err)
				}
			}()

			rt.logger.Info("starting API server", "addr", ln.Addr().String())
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			<-done
			rt.logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	return cmd
}
