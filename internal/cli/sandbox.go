package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/adyen/checkout-sessions-go/internal/sandbox"
)

func (o *options) newSandboxCmd() *cobra.Command {
	sandboxCmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run the sandbox sessions API",
	}

	var port string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sandbox sessions API until interrupted",
		Long: `Serve the sandbox sessions API on the configured hostname and port.

Examples:
  # Serve on the configured port
  checkout sandbox serve

  # Serve on another port
  checkout sandbox serve --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				o.cfg.Server.Port = port
			}
			return o.serveSandbox(cmd.Context())
		},
	}
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on, overrides the configuration")
	sandboxCmd.AddCommand(serveCmd)
	return sandboxCmd
}

func (o *options) serveSandbox(ctx context.Context) error {
	slog := log.With().Str("state", "init").Logger()

	s, err := sandbox.CreateNewServer(o.cfg.SandboxOptions())
	if err != nil {
		return fmt.Errorf("creating sandbox: %w", err)
	}
	s.MountHandlers()

	srv := &http.Server{
		Addr:              o.cfg.Server.Addr(),
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info().Str("addr", srv.Addr).Str("version", sandbox.Version).Msg("sandbox started")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
	}

	// Give outstanding requests 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error().Err(err).Msg("could not stop server gracefully")
		if err := srv.Close(); err != nil {
			slog.Error().Err(err).Msg("could not stop server")
		}
	}
	slog.Info().Msg("sandbox stopped")
	return nil
}
