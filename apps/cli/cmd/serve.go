package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/server"
)

const shutdownTimeout = 5 * time.Second

var (
	serveReq        requestFlags
	serveAddrFlag   string
	serveOriginFlag string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the host commands over HTTP",
	Long: `Start an HTTP bridge that exposes the host commands to a web frontend.

Routes:
  GET  /healthz            liveness probe
  GET  /commands           available command names
  POST /invoke/{command}   body is the command's JSON arguments
  POST /invoke             body is an envelope {"id","cmd","args"}

The bridge binds to loopback by default.

Examples:
  hitpost serve
  hitpost serve --addr 127.0.0.1:9000 --allow-origin http://localhost:1420`,
	Args: cobra.NoArgs,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", getEnvString("HITPOST_ADDR", server.DefaultListenAddr), "Listen address (env: HITPOST_ADDR)")
	serveCmd.Flags().StringVar(&serveOriginFlag, "allow-origin", getEnvString("HITPOST_ALLOW_ORIGIN", ""), "Value of Access-Control-Allow-Origin (env: HITPOST_ALLOW_ORIGIN)")
	serveCmd.Flags().StringVar(&serveReq.proxy, "proxy", getEnvString("HITPOST_PROXY", ""), "Proxy URL (env: HITPOST_PROXY)")
	serveCmd.Flags().BoolVarP(&serveReq.insecure, "insecure", "k", false, "Skip TLS certificate verification")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	commands := server.NewCommands(
		server.WithClient(serveReq.newClient()),
		server.WithLogger(logger),
	)
	srv := server.NewServer(server.Config{
		ListenAddr:  serveAddrFlag,
		AllowOrigin: serveOriginFlag,
		Logger:      logger,
	}, commands).HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bridge listening", "addr", srv.Addr)
		fmt.Fprintf(cmd.ErrOrStderr(), "Listening on http://%s (press Ctrl+C to stop)\n", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			return withExit(ExitConfigError, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down bridge")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
